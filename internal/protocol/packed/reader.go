package packed

import (
	"errors"
	"fmt"
	"io"
)

// Reader is the read-only decoding stream over a packed source.
type Reader struct {
	u        *Unpacker
	opts     options
	closed   bool
	reported bool
}

// NewReader returns a Reader that pulls packed bytes from src through an
// internal buffer of bufferSize bytes. Close does not close src.
func NewReader(src io.Reader, bufferSize int, opts ...Option) (*Reader, error) {
	u, err := NewUnpacker(src, bufferSize)
	if err != nil {
		return nil, err
	}
	return &Reader{u: u, opts: buildOptions(opts)}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	n, err := r.u.Fill(p)
	if err != nil {
		r.finish(err)
	}
	return n, err
}

func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if !r.u.AtBoundary() {
		// The caller stopped reading mid-unit.
		err = fmt.Errorf("%w: offset=%d state=%s", ErrIncomplete, r.u.Consumed(), r.u.state)
	}
	r.finish(err)
	return nil
}

// Position returns the number of unpacked bytes read so far.
func (r *Reader) Position() (int64, error) {
	return r.u.Produced(), nil
}

// Stats returns the packed and unpacked byte counts so far.
func (r *Reader) Stats() Stats {
	return Stats{PackedBytes: r.u.Consumed(), UnpackedBytes: r.u.Produced()}
}

func (r *Reader) CanRead() bool { return true }
func (r *Reader) CanWrite() bool { return false }
func (r *Reader) CanSeek() bool { return false }

func (r *Reader) Write([]byte) (int, error) { return 0, unsupported("write") }
func (r *Reader) Seek(int64, int) (int64, error) { return 0, unsupported("seek") }
func (r *Reader) Flush() error { return unsupported("flush") }
func (r *Reader) Length() (int64, error) { return 0, unsupported("length") }
func (r *Reader) SetLength(int64) error { return unsupported("set length") }
func (r *Reader) SetPosition(int64) error { return unsupported("set position") }

func (r *Reader) finish(err error) {
	if r.reported {
		return
	}
	r.reported = true
	if errors.Is(err, io.EOF) {
		err = nil
	}
	stats := r.Stats()
	logger := r.opts.logger
	if errors.Is(err, ErrMalformed) {
		logger.Warn().Err(err).Int64("packed_bytes", stats.PackedBytes).Msg("packed.Reader malformed input")
	}
	logger.Debug().
		Int64("packed_bytes", stats.PackedBytes).
		Int64("unpacked_bytes", stats.UnpackedBytes).
		Bool("boundary", r.u.AtBoundary()).
		Msg("packed.Reader session done")
	if r.opts.observer != nil {
		r.opts.observer.ObserveSession(DirectionUnpack, stats, err)
	}
}
