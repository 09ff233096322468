package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// PackctlConfig drives the packctl command line tool.
type PackctlConfig struct {
	Codec        CodecConfig
	Framed       bool
	ServerConfig string
}

type packctlFile struct {
	BufferSize      int    `toml:"buffer_size"`
	Framed          bool   `toml:"framed"`
	MaxSegments     uint32 `toml:"max_segments"`
	MaxMessageWords uint64 `toml:"max_message_words"`
	ServerConfig    string `toml:"server_config"`
}

func DefaultPackctlConfig() PackctlConfig {
	return PackctlConfig{Codec: DefaultCodecConfig()}
}

// LoadPackctlConfig applies only the keys present in path over the defaults.
func LoadPackctlConfig(path string) (PackctlConfig, error) {
	cfg := DefaultPackctlConfig()

	var raw packctlFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return PackctlConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return PackctlConfig{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("buffer_size") {
		cfg.Codec.BufferSize = raw.BufferSize
	}
	if meta.IsDefined("framed") {
		cfg.Framed = raw.Framed
	}
	if meta.IsDefined("max_segments") {
		cfg.Codec.MaxSegments = raw.MaxSegments
	}
	if meta.IsDefined("max_message_words") {
		cfg.Codec.MaxMessageWords = raw.MaxMessageWords
	}
	if meta.IsDefined("server_config") {
		cfg.ServerConfig = strings.TrimSpace(raw.ServerConfig)
	}

	if err := ValidateCodecConfig(cfg.Codec); err != nil {
		return PackctlConfig{}, fmt.Errorf("packctl config invalid: %w", err)
	}
	return cfg, nil
}
