package packed

import (
	"errors"
	"fmt"
	"io"
)

// Writer is the write-only encoding stream over a packed sink.
type Writer struct {
	p    *Packer
	dst  io.Writer
	opts options

	partial  [WordSize]byte
	npartial int
	accepted int64
	closed   bool
}

// NewWriter returns a Writer that packs words into dst, buffering up to
// bufferSize packed bytes between sink writes. Close does not close dst.
func NewWriter(dst io.Writer, bufferSize int, opts ...Option) (*Writer, error) {
	p, err := NewPacker(dst, bufferSize)
	if err != nil {
		return nil, err
	}
	return &Writer{p: p, dst: dst, opts: buildOptions(opts)}, nil
}

func (w *Writer) Write(b []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	n := 0
	defer func() { w.accepted += int64(n) }()

	if w.npartial > 0 {
		k := copy(w.partial[w.npartial:], b)
		w.npartial += k
		n += k
		if w.npartial < WordSize {
			return n, nil
		}
		w.npartial = 0
		if err := w.p.PackWord(w.partial[:]); err != nil {
			return n, err
		}
	}
	for len(b)-n >= WordSize {
		err := w.p.PackWord(b[n : n+WordSize])
		n += WordSize
		if err != nil {
			return n, err
		}
	}
	k := copy(w.partial[:], b[n:])
	w.npartial = k
	n += k
	return n, nil
}

// Flush closes open runs and writes buffered packed bytes to the sink. A
// pending partial word stays buffered.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	if err := w.p.Flush(); err != nil {
		return err
	}
	if f, ok := w.dst.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close emits every complete word and flushes the sink. Trailing bytes that
// do not form a whole word are discarded and reported as ErrUnaligned.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	err := w.Flush()
	w.closed = true
	if w.npartial > 0 {
		err = errors.Join(err, fmt.Errorf("%w: %d trailing bytes", ErrUnaligned, w.npartial))
		w.npartial = 0
	}
	w.finish(err)
	return err
}

// Position returns the number of unpacked bytes accepted so far.
func (w *Writer) Position() (int64, error) {
	return w.accepted, nil
}

// Stats returns the packed bytes written and unpacked bytes accepted so far.
func (w *Writer) Stats() Stats {
	return Stats{PackedBytes: w.p.Written(), UnpackedBytes: w.accepted}
}

func (w *Writer) CanRead() bool { return false }
func (w *Writer) CanWrite() bool { return true }
func (w *Writer) CanSeek() bool { return false }

func (w *Writer) Read([]byte) (int, error) { return 0, unsupported("read") }
func (w *Writer) Seek(int64, int) (int64, error) { return 0, unsupported("seek") }
func (w *Writer) Length() (int64, error) { return 0, unsupported("length") }
func (w *Writer) SetLength(int64) error { return unsupported("set length") }
func (w *Writer) SetPosition(int64) error { return unsupported("set position") }

func (w *Writer) finish(err error) {
	stats := w.Stats()
	logger := w.opts.logger
	if errors.Is(err, ErrUnaligned) {
		logger.Warn().Err(err).Int64("unpacked_bytes", stats.UnpackedBytes).Msg("packed.Writer unaligned input")
	}
	logger.Debug().
		Int64("packed_bytes", stats.PackedBytes).
		Int64("unpacked_bytes", stats.UnpackedBytes).
		Msg("packed.Writer session done")
	if w.opts.observer != nil {
		w.opts.observer.ObserveSession(DirectionPack, stats, err)
	}
}
