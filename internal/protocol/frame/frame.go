package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const WordSize = 8

var (
	ErrTruncated        = errors.New("frame: truncated message")
	ErrNoSegments       = errors.New("frame: message has no segments")
	ErrSegmentUnaligned = errors.New("frame: segment not word aligned")
	ErrTooManySegments  = errors.New("frame: too many segments")
	ErrMessageTooLarge  = errors.New("frame: message too large")
)

// Message is one segmented, word-aligned message.
type Message struct {
	Segments [][]byte
}

// Words returns the total segment size in words.
func (m Message) Words() uint64 {
	var total uint64
	for _, seg := range m.Segments {
		total += uint64(len(seg) / WordSize)
	}
	return total
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxSegments     uint32
	MaxMessageWords uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxSegments:     512,
		MaxMessageWords: 8 * 1024 * 1024,
	}
}

// HeaderLen returns the segment table size for count segments, padded to a
// whole word.
func HeaderLen(count int) int {
	n := 4 + 4*count
	if n%WordSize != 0 {
		n += 4
	}
	return n
}

// ReadMessage reads one framed message. io.EOF is returned only when r ends
// before the first byte of the message.
func ReadMessage(r io.Reader, limits Limits) (Message, error) {
	var first [4]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Message{}, io.EOF
		}
		return Message{}, truncated(err)
	}

	count := uint64(binary.LittleEndian.Uint32(first[:])) + 1
	if count > uint64(limits.MaxSegments) {
		return Message{}, fmt.Errorf("%w: %d > %d", ErrTooManySegments, count, limits.MaxSegments)
	}

	table := make([]byte, HeaderLen(int(count))-4)
	if _, err := io.ReadFull(r, table); err != nil {
		return Message{}, truncated(err)
	}

	sizes := make([]uint64, count)
	var total uint64
	for i := range sizes {
		sizes[i] = uint64(binary.LittleEndian.Uint32(table[4*i:]))
		total += sizes[i]
	}
	if total > limits.MaxMessageWords {
		return Message{}, fmt.Errorf("%w: %d words > %d", ErrMessageTooLarge, total, limits.MaxMessageWords)
	}

	msg := Message{Segments: make([][]byte, count)}
	for i, words := range sizes {
		seg := make([]byte, words*WordSize)
		if len(seg) > 0 {
			if _, err := io.ReadFull(r, seg); err != nil {
				return Message{}, truncated(err)
			}
		}
		msg.Segments[i] = seg
	}
	return msg, nil
}

func WriteMessage(w io.Writer, msg Message, limits Limits) error {
	if len(msg.Segments) == 0 {
		return ErrNoSegments
	}
	if uint64(len(msg.Segments)) > uint64(limits.MaxSegments) {
		return fmt.Errorf("%w: %d > %d", ErrTooManySegments, len(msg.Segments), limits.MaxSegments)
	}
	for i, seg := range msg.Segments {
		if len(seg)%WordSize != 0 {
			return fmt.Errorf("%w: segment %d has %d bytes", ErrSegmentUnaligned, i, len(seg))
		}
		if uint64(len(seg)/WordSize) > uint64(^uint32(0)) {
			return fmt.Errorf("%w: segment %d", ErrMessageTooLarge, i)
		}
	}
	if words := msg.Words(); words > limits.MaxMessageWords {
		return fmt.Errorf("%w: %d words > %d", ErrMessageTooLarge, words, limits.MaxMessageWords)
	}

	if _, err := w.Write(EncodeHeader(msg)); err != nil {
		return err
	}
	for _, seg := range msg.Segments {
		if len(seg) == 0 {
			continue
		}
		if _, err := w.Write(seg); err != nil {
			return err
		}
	}
	return nil
}

// EncodeHeader returns the segment table for msg.
func EncodeHeader(msg Message) []byte {
	buf := make([]byte, HeaderLen(len(msg.Segments)))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(msg.Segments)-1))
	for i, seg := range msg.Segments {
		binary.LittleEndian.PutUint32(buf[4+4*i:], uint32(len(seg)/WordSize))
	}
	return buf
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
