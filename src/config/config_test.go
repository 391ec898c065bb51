package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"DATABASE_PATH", "DATABASE_TIMEOUT", "DATA_DIR", "ROUTES_PATH", "LOG_LEVEL",
	"LOG_FORMAT", "LOG_FILE", "COMMIT_MODE", "MAX_ROWS_PER_SECOND",
}

// clearEnv unsets every key for the test; t.Setenv restores the old values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "./pricefolio.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Empty(t, cfg.RoutesPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "import_log.txt", cfg.LogFile)
	assert.Equal(t, "per-row", cfg.CommitMode)
	assert.Zero(t, cfg.MaxRowsPerSecond)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "/tmp/prices.db")
	t.Setenv("DATABASE_TIMEOUT", "5s")
	t.Setenv("COMMIT_MODE", "per-file")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("MAX_ROWS_PER_SECOND", "200")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/prices.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.DatabaseTimeout)
	assert.Equal(t, "per-file", cfg.CommitMode)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 200, cfg.MaxRowsPerSecond)
}

func TestLoadConfigBadNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_TIMEOUT", "soon")
	t.Setenv("MAX_ROWS_PER_SECOND", "fast")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.DatabaseTimeout)
	assert.Zero(t, cfg.MaxRowsPerSecond)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"COMMIT_MODE", "per-batch"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "xml"},
		{"DATABASE_PATH", ""},
		{"MAX_ROWS_PER_SECOND", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
