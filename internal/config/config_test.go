package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prices/internal/comics"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "prices.db", cfg.DSN)
	assert.Equal(t, 10, cfg.Load.Attempts)
	assert.Equal(t, 33*time.Millisecond, time.Duration(cfg.Load.Interval))
	assert.Equal(t, comics.DefaultBaseURL, cfg.Comics.BaseURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("testdata", "postgres.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, 5, cfg.Load.Attempts)
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Load.Interval))
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
	// Unset sections keep their defaults.
	assert.Equal(t, comics.DefaultBaseURL, cfg.Comics.BaseURL)
}

func TestLoadFile_EmptyPath(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_CompositeInterval(t *testing.T) {
	cfg, err := Parse([]byte("load:\n  interval: 1m30s\n"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, time.Duration(cfg.Load.Interval))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "drivr: sqlite3\n"},
		{"unknown driver", "driver: mysql\n"},
		{"empty dsn", "dsn: \"\"\n"},
		{"zero attempts", "load:\n  attempts: 0\n"},
		{"bad interval", "load:\n  interval: soon\n"},
		{"negative interval", "load:\n  interval: -1s\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad base url", "comics:\n  base_url: ftp://example.com\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Driver = "mysql"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Errors), 2)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := Default()
		cfg.Log.Level = level
		assert.Equal(t, want, cfg.LogLevel(), level)
	}
}
