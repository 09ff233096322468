package packed

import (
	"fmt"
	"io"
)

const maxRawBytes = (MaxRunCount + 1) * WordSize

// Packer encodes whole words into packed units written to dst.
//
// Zero runs and raw runs stay open across PackWord calls and are closed by
// a word of another kind, by reaching the count cap, or by Flush.
type Packer struct {
	dst  io.Writer
	out  []byte
	size int

	zeroRun int
	raw     []byte

	words   int64
	written int64
	err     error
}

func NewPacker(dst io.Writer, bufferSize int) (*Packer, error) {
	if dst == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidArgument)
	}
	if bufferSize <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrOutOfRange, bufferSize)
	}
	return &Packer{
		dst:  dst,
		out:  make([]byte, 0, bufferSize+maxRawBytes+2),
		size: bufferSize,
		raw:  make([]byte, 0, maxRawBytes),
	}, nil
}

// PackWord encodes word, which must hold at least WordSize bytes; only the
// first WordSize bytes are used.
func (p *Packer) PackWord(word []byte) error {
	if p.err != nil {
		return p.err
	}
	if len(word) < WordSize {
		return fmt.Errorf("%w: word has %d bytes", ErrUnaligned, len(word))
	}
	word = word[:WordSize]
	p.words++

	switch tag := Tag(word); tag {
	case TagZeroRun:
		p.closeRaw()
		p.zeroRun++
		if p.zeroRun == MaxRunCount+1 {
			p.closeZero()
		}
	case TagRawRun:
		p.closeZero()
		p.raw = append(p.raw, word...)
		if len(p.raw) == maxRawBytes {
			p.closeRaw()
		}
	default:
		p.closeZero()
		p.closeRaw()
		p.out = append(p.out, tag)
		for _, b := range word {
			if b != 0 {
				p.out = append(p.out, b)
			}
		}
	}

	if len(p.out) >= p.size {
		return p.flushOut()
	}
	return nil
}

// Flush closes any open run and writes all buffered packed bytes to dst.
func (p *Packer) Flush() error {
	if p.err != nil {
		return p.err
	}
	p.closeZero()
	p.closeRaw()
	return p.flushOut()
}

// Words returns the number of words accepted so far.
func (p *Packer) Words() int64 {
	return p.words
}

// Written returns the number of packed bytes handed to dst.
func (p *Packer) Written() int64 {
	return p.written
}

func (p *Packer) closeZero() {
	if p.zeroRun == 0 {
		return
	}
	p.out = append(p.out, TagZeroRun, byte(p.zeroRun-1))
	p.zeroRun = 0
}

func (p *Packer) closeRaw() {
	if len(p.raw) == 0 {
		return
	}
	p.out = append(p.out, TagRawRun)
	p.out = append(p.out, p.raw[:WordSize]...)
	p.out = append(p.out, byte(len(p.raw)/WordSize-1))
	p.out = append(p.out, p.raw[WordSize:]...)
	p.raw = p.raw[:0]
}

func (p *Packer) flushOut() error {
	if len(p.out) == 0 {
		return nil
	}
	n, err := p.dst.Write(p.out)
	p.written += int64(n)
	if err == nil && n < len(p.out) {
		err = io.ErrShortWrite
	}
	p.out = p.out[:0]
	if err != nil {
		p.err = err
	}
	return err
}
