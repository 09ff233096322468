package packed

import "io"

// Stream is the capability surface shared by Reader and Writer. Each
// adapter supports one direction; calls outside it fail with ErrUnsupported.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	Flush() error
	Length() (int64, error)
	SetLength(n int64) error
	Position() (int64, error)
	SetPosition(pos int64) error

	CanRead() bool
	CanWrite() bool
	CanSeek() bool
}

var (
	_ Stream = (*Reader)(nil)
	_ Stream = (*Writer)(nil)
)

type flusher interface {
	Flush() error
}
