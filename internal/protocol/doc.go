// Package protocol carries segmented messages over packed streams.
//
// Ownership boundary:
// - frame: segment table primitives
// - packed: packed word-stream codec
// - Encoder/Decoder: framed messages over one packed session
package protocol
