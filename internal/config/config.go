// Package config holds the settings shared by the LSP host and the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Enabled       bool              `json:"enabled"`
	BulkThreshold int               `json:"bulk_threshold"`
	Languages     map[string]string `json:"languages"` // file extension -> outline script
	CachePath     string            `json:"cache_path"`
	DebounceMS    int               `json:"debounce_ms"`
	LogVerbosity  int               `json:"log_verbosity"`
}

func defaultConfig() Config {
	return Config{
		Enabled:       true,
		BulkThreshold: 10000,
		Languages:     map[string]string{".go": "go"},
		CachePath:     "",
		DebounceMS:    150,
		LogVerbosity:  0,
	}
}

// Default returns the built-in configuration.
func Default() Config { return defaultConfig() }

// Load overlays v, typically the LSP initializationOptions, on the defaults.
// Only fields present in v are overwritten.
func Load(v any) (Config, error) {
	cfg := defaultConfig()
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := defaultConfig()

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot be honored.
func (c Config) Validate() error {
	if c.BulkThreshold < 0 {
		return fmt.Errorf("bulk_threshold %d: %w", c.BulkThreshold, ErrInvalid)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms %d: %w", c.DebounceMS, ErrInvalid)
	}
	return nil
}

// Debounce returns DebounceMS as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// LanguageFor returns the outline script name for path, or false when the
// file's extension is not configured.
func (c Config) LanguageFor(path string) (string, bool) {
	lang, ok := c.Languages[filepath.Ext(path)]
	return lang, ok && lang != ""
}
