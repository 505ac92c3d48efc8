package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(map[string]any{"bulk_threshold": 50, "cache_path": "/tmp/x.db"})
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.BulkThreshold)
	assert.Equal(t, "/tmp/x.db", cfg.CachePath)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 150*time.Millisecond, cfg.Debounce())
}

func TestLoad_Nil(t *testing.T) {
	t.Parallel()
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()
	_, err := Load(map[string]any{"debounce_ms": -1})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(map[string]any{"enabled": "yes"})
	assert.Error(t, err)
}

func TestLoadFromJSON(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromJSON(strings.NewReader(`{"enabled": false, "languages": {".go": "go", ".gox": "go"}}`))
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)

	lang, ok := cfg.LanguageFor("/src/main.gox")
	assert.True(t, ok)
	assert.Equal(t, "go", lang)

	_, ok = cfg.LanguageFor("README.md")
	assert.False(t, ok)

	_, err = LoadFromJSON(strings.NewReader(`{`))
	assert.Error(t, err)
}
