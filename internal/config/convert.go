package config

import (
	"github.com/danmuck/packwire/internal/protocol"
	"github.com/danmuck/packwire/internal/protocol/frame"
)

// ProtocolOptions maps codec settings onto protocol session options.
func (c CodecConfig) ProtocolOptions() protocol.Options {
	opts := protocol.DefaultOptions()
	opts.BufferSize = c.BufferSize
	opts.Limits = frame.Limits{
		MaxSegments:     c.MaxSegments,
		MaxMessageWords: c.MaxMessageWords,
	}
	return opts
}
