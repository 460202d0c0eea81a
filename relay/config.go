package relay

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the relay server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string `toml:"listen_addr"`

	// Provider API base URL. Overridden in tests; defaults to the
	// hosted Gemini endpoint.
	BaseURL string `toml:"base_url"`

	// RequestTimeoutSeconds bounds a single provider call.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`

	// DefaultModel for sessions created without an explicit model.
	DefaultModel string `toml:"default_model"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:            ":8080",
		RequestTimeoutSeconds: 90,
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults unchanged; a missing file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration before startup.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	return nil
}

// RequestTimeout returns the provider call window as a time.Duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
