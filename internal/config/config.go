package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Name         string      `toml:"name"`
	Addr         string      `toml:"addr"`
	CorsOrigins  []string    `toml:"cors_origins"`
	MaxBodyBytes int64       `toml:"max_body_bytes"`
	Codec        CodecConfig `toml:"codec"`
}

type CodecConfig struct {
	BufferSize      int    `toml:"buffer_size"`
	MaxSegments     uint32 `toml:"max_segments"`
	MaxMessageWords uint64 `toml:"max_message_words"`
}

func DefaultCodecConfig() CodecConfig {
	return CodecConfig{
		BufferSize:      8 * 1024,
		MaxSegments:     512,
		MaxMessageWords: 8 * 1024 * 1024,
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:         "packwire",
		Addr:         ":9400",
		MaxBodyBytes: 64 << 20,
		Codec:        DefaultCodecConfig(),
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.MaxBodyBytes <= 0 {
		return fmt.Errorf("server config max_body_bytes must be positive")
	}
	if err := ValidateCodecConfig(cfg.Codec); err != nil {
		return fmt.Errorf("codec invalid: %w", err)
	}
	return nil
}

func ValidateCodecConfig(cfg CodecConfig) error {
	if cfg.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive")
	}
	if cfg.MaxSegments == 0 {
		return fmt.Errorf("max_segments must be positive")
	}
	if cfg.MaxMessageWords == 0 {
		return fmt.Errorf("max_message_words must be positive")
	}
	return nil
}
