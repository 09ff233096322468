package protocol

import "errors"

var (
	ErrNilWriter    = errors.New("protocol: nil writer")
	ErrNilReader    = errors.New("protocol: nil reader")
	ErrTrailingData = errors.New("protocol: trailing data after message")
)
