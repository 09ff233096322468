package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/packwire/internal/protocol/frame"
	"github.com/danmuck/packwire/internal/protocol/packed"
	"github.com/rs/zerolog"
)

// Options configures one Encoder or Decoder session.
type Options struct {
	BufferSize int
	Limits     frame.Limits
	Logger     *zerolog.Logger
	Observer   packed.Observer
}

func DefaultOptions() Options {
	return Options{
		BufferSize: packed.DefaultBufferSize,
		Limits:     frame.DefaultLimits(),
	}
}

func (o Options) packedOptions() []packed.Option {
	opts := make([]packed.Option, 0, 2)
	if o.Logger != nil {
		opts = append(opts, packed.WithLogger(*o.Logger))
	}
	if o.Observer != nil {
		opts = append(opts, packed.WithObserver(o.Observer))
	}
	return opts
}

// Encoder writes framed messages through a single packed session.
type Encoder struct {
	w        *packed.Writer
	limits   frame.Limits
	messages uint64
}

func NewEncoder(w io.Writer, opts Options) (*Encoder, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	pw, err := packed.NewWriter(w, opts.BufferSize, opts.packedOptions()...)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: pw, limits: opts.Limits}, nil
}

// Encode frames msg, packs it and flushes it to the underlying writer.
func (e *Encoder) Encode(msg frame.Message) error {
	if err := frame.WriteMessage(e.w, msg, e.limits); err != nil {
		return fmt.Errorf("protocol: encode message %d: %w", e.messages, err)
	}
	if err := e.w.Flush(); err != nil {
		return err
	}
	e.messages++
	return nil
}

// Messages returns the number of messages encoded.
func (e *Encoder) Messages() uint64 {
	return e.messages
}

func (e *Encoder) Close() error {
	return e.w.Close()
}

// Decoder reads successive framed messages from a single packed session.
type Decoder struct {
	r        *packed.Reader
	limits   frame.Limits
	messages uint64
}

func NewDecoder(r io.Reader, opts Options) (*Decoder, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	pr, err := packed.NewReader(r, opts.BufferSize, opts.packedOptions()...)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: pr, limits: opts.Limits}, nil
}

// Decode returns the next message, or io.EOF when the stream ends cleanly
// between messages.
func (d *Decoder) Decode() (frame.Message, error) {
	msg, err := frame.ReadMessage(d.r, d.limits)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return frame.Message{}, io.EOF
		}
		return frame.Message{}, fmt.Errorf("protocol: decode message %d: %w", d.messages, err)
	}
	d.messages++
	return msg, nil
}

// Messages returns the number of messages decoded.
func (d *Decoder) Messages() uint64 {
	return d.messages
}

func (d *Decoder) Close() error {
	return d.r.Close()
}

// EncodeMessage returns the packed, framed encoding of msg.
func EncodeMessage(msg frame.Message, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, opts)
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMessage decodes exactly one message from b. Bytes after the first
// message are rejected.
func DecodeMessage(b []byte, opts Options) (frame.Message, error) {
	dec, err := NewDecoder(bytes.NewReader(b), opts)
	if err != nil {
		return frame.Message{}, err
	}
	defer dec.Close()
	msg, err := dec.Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return frame.Message{}, frame.ErrTruncated
		}
		return frame.Message{}, err
	}
	var probe [1]byte
	n, err := dec.r.Read(probe[:])
	switch {
	case n > 0:
		return frame.Message{}, ErrTrailingData
	case err != nil && !errors.Is(err, io.EOF):
		return frame.Message{}, err
	}
	return msg, nil
}
