// Package packed implements the packed encoding of word-aligned messages.
//
// Wire grammar:
//
//	packed-stream := packed-unit*
//	packed-unit   := zero-run | raw-run | literal-word
//	zero-run      := 0x00 count:u8                       ; (count+1) zero words
//	raw-run       := 0xFF word:u8[8] count:u8 extra:u8[count*8]
//	literal-word  := tag:u8 present-bytes                ; one byte per set bit, LSB first
//
// Ownership boundary:
// - Unpacker/Packer state machines
// - read-only Reader and write-only Writer stream adapters
// - whole-buffer Pack/Unpack helpers
//
// Segment framing of the unpacked words is owned by package frame.
package packed
