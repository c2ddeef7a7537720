package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version    int               `toml:"version"`
	Connection *connectionSchema `toml:"connection,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type connectionSchema struct {
	BaseURL     string `toml:"base_url"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	SessionID   string `toml:"session_id,omitempty"`
	Connected   bool   `toml:"connected"`
	ConnectedAt string `toml:"connected_at,omitempty"`
}
