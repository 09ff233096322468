package packed

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Direction names the codec side of a stream session.
type Direction string

const (
	DirectionPack   Direction = "pack"
	DirectionUnpack Direction = "unpack"
)

// Stats summarizes one stream session.
type Stats struct {
	PackedBytes   int64
	UnpackedBytes int64
}

// Observer receives one call per stream session when it ends.
// err is nil for a clean end.
type Observer interface {
	ObserveSession(dir Direction, stats Stats, err error)
}

type Option func(*options)

type options struct {
	logger   zerolog.Logger
	observer Observer
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
