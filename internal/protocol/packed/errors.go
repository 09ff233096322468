package packed

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("packed: invalid argument")
	ErrOutOfRange      = errors.New("packed: argument out of range")
	ErrUnsupported     = errors.New("packed: operation not supported")
	ErrMalformed       = errors.New("packed: malformed stream")
	ErrUnaligned       = errors.New("packed: input is not word aligned")
	ErrClosed          = errors.New("packed: stream closed")
	ErrIncomplete      = errors.New("packed: stream closed mid-unit")
)

// MalformedError reports where a packed stream ended mid-unit.
type MalformedError struct {
	Offset int64
	State  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("packed: malformed stream: unexpected end of input at offset=%d state=%s", e.Offset, e.State)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func unsupported(op string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, op)
}
