package packed

const (
	WordSize = 8

	TagZeroRun byte = 0x00
	TagRawRun  byte = 0xFF

	// MaxRunCount is the largest count byte; a zero run spans count+1 words
	// and a raw run spans 1+count words.
	MaxRunCount = 255

	DefaultBufferSize = 8 * 1024
)

// Tag returns the literal tag of word: bit i is set iff word[i] != 0.
func Tag(word []byte) byte {
	_ = word[WordSize-1]
	var tag byte
	for i := 0; i < WordSize; i++ {
		if word[i] != 0 {
			tag |= 1 << uint(i)
		}
	}
	return tag
}
