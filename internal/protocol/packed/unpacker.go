package packed

import (
	"errors"
	"fmt"
	"io"
)

type unpackState uint8

const (
	stateTag unpackState = iota
	stateZeroCount
	stateZeros
	stateRawWord
	stateRawCount
	stateRawRun
	stateLiteral
	stateWordOut
)

func (s unpackState) String() string {
	switch s {
	case stateTag:
		return "tag"
	case stateZeroCount:
		return "zero_count"
	case stateZeros:
		return "zero_run"
	case stateRawWord:
		return "raw_word"
	case stateRawCount:
		return "raw_count"
	case stateRawRun:
		return "raw_run"
	case stateLiteral:
		return "literal"
	case stateWordOut:
		return "word_out"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// maxEmptyReads matches bufio's tolerance for (0, nil) reads.
const maxEmptyReads = 100

// Unpacker expands a packed byte stream pulled from src on demand.
//
// The decoder is a resumable state machine: it stops whenever dst is full,
// or when its input buffer runs dry after some output was produced, and
// continues from the same tag, bit or run on the next Fill. Raw and literal
// words are assembled in full before any of their bytes reach dst, so a
// truncated stream never yields a partial word.
type Unpacker struct {
	src io.Reader
	buf []byte
	r   int
	w   int

	state unpackState
	next  unpackState
	tag   byte
	bit   uint
	// remaining is zero bytes left in a zero run, or words left in a raw run.
	remaining int

	word [WordSize]byte
	have int

	consumed int64
	produced int64
	srcErr   error
	err      error
}

func NewUnpacker(src io.Reader, bufferSize int) (*Unpacker, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if bufferSize <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrOutOfRange, bufferSize)
	}
	return &Unpacker{src: src, buf: make([]byte, bufferSize)}, nil
}

// Fill writes unpacked bytes into dst and returns how many were written.
// The source is read only when nothing has been produced yet in this call.
// io.EOF is returned only when the source ends on a unit boundary; an end
// anywhere else yields a *MalformedError. Errors are sticky.
func (u *Unpacker) Fill(dst []byte) (int, error) {
	if u.err != nil {
		return 0, u.err
	}
	n := 0
	for n < len(dst) {
		switch {
		case u.state == stateZeros:
			k := min(u.remaining, len(dst)-n)
			clear(dst[n : n+k])
			n += k
			u.remaining -= k
			if u.remaining == 0 {
				u.state = stateTag
			}
			continue
		case u.state == stateWordOut:
			k := copy(dst[n:], u.word[u.have:])
			n += k
			u.have += k
			if u.have == WordSize {
				u.have = 0
				u.state = u.next
			}
			continue
		case u.state == stateLiteral && u.tag&(1<<u.bit) == 0:
			u.word[u.bit] = 0
			u.nextBit()
			continue
		}

		if u.r == u.w {
			if n > 0 {
				break
			}
			if err := u.fillInput(); err != nil {
				u.err = err
				return 0, err
			}
			continue
		}

		switch u.state {
		case stateTag:
			u.tag = u.take()
			switch u.tag {
			case TagZeroRun:
				u.state = stateZeroCount
			case TagRawRun:
				u.state = stateRawWord
			default:
				u.state = stateLiteral
				u.bit = 0
			}
		case stateZeroCount:
			u.remaining = (int(u.take()) + 1) * WordSize
			u.state = stateZeros
		case stateRawRun:
			if u.have == 0 {
				// Whole words already buffered skip the staging copy.
				words := min(u.remaining, (u.w-u.r)/WordSize, (len(dst)-n)/WordSize)
				if words > 0 {
					k := copy(dst[n:], u.buf[u.r:u.r+words*WordSize])
					u.r += k
					u.consumed += int64(k)
					n += k
					u.remaining -= words
					if u.remaining == 0 {
						u.state = stateTag
					}
					continue
				}
			}
			if u.stageRaw() {
				u.remaining--
				if u.remaining == 0 {
					u.emitWord(stateTag)
				} else {
					u.emitWord(stateRawRun)
				}
			}
		case stateRawWord:
			if u.stageRaw() {
				u.emitWord(stateRawCount)
			}
		case stateRawCount:
			u.remaining = int(u.take())
			u.state = stateRawRun
			if u.remaining == 0 {
				u.state = stateTag
			}
		case stateLiteral:
			u.word[u.bit] = u.take()
			u.nextBit()
		}
	}
	u.produced += int64(n)
	return n, nil
}

// Consumed returns the number of packed bytes decoded so far.
func (u *Unpacker) Consumed() int64 {
	return u.consumed
}

// Produced returns the number of unpacked bytes emitted so far.
func (u *Unpacker) Produced() int64 {
	return u.produced
}

// AtBoundary reports whether the decoder sits between packed units.
func (u *Unpacker) AtBoundary() bool {
	return u.state == stateTag
}

func (u *Unpacker) take() byte {
	b := u.buf[u.r]
	u.r++
	u.consumed++
	return b
}

// stageRaw copies buffered input into the staged word and reports whether
// the word is complete.
func (u *Unpacker) stageRaw() bool {
	k := copy(u.word[u.have:], u.buf[u.r:u.w])
	u.r += k
	u.consumed += int64(k)
	u.have += k
	if u.have < WordSize {
		return false
	}
	u.have = 0
	return true
}

func (u *Unpacker) emitWord(next unpackState) {
	u.state = stateWordOut
	u.next = next
	u.have = 0
}

func (u *Unpacker) nextBit() {
	u.bit++
	if u.bit == WordSize {
		u.emitWord(stateTag)
	}
}

func (u *Unpacker) fillInput() error {
	u.r, u.w = 0, 0
	if u.srcErr != nil {
		err := u.srcErr
		u.srcErr = nil
		return u.sourceError(err)
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := u.src.Read(u.buf)
		if n > 0 {
			u.w = n
			u.srcErr = err
			return nil
		}
		if err != nil {
			return u.sourceError(err)
		}
	}
	return io.ErrNoProgress
}

func (u *Unpacker) sourceError(err error) error {
	if !errors.Is(err, io.EOF) {
		return err
	}
	if u.state == stateTag {
		return io.EOF
	}
	return &MalformedError{Offset: u.consumed, State: u.state.String()}
}
