package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "packctl":
		return packctlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "packwire"
addr = ":9400"
cors_origins = ["http://localhost:3000"]
max_body_bytes = 67108864

[codec]
buffer_size = 8192
max_segments = 512
max_message_words = 8388608
`

const packctlTemplate = `buffer_size = 8192
framed = false
max_segments = 512
max_message_words = 8388608
server_config = "cmd/packctl/server.toml"
`
