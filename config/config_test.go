package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/deckforge/geometry"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, geometry.Grid{Columns: 12, Rows: 12}, cfg.GridSpec())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Hour, cfg.Lock.StaleAfter)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deckforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid:
  rows: 10
log:
  level: debug
  json: true
lock:
  stale_after: 30m
  wait: 5s
placement:
  allow_out_of_bounds: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Grid.Columns, "unset keys keep their defaults")
	assert.Equal(t, 10, cfg.Grid.Rows)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 30*time.Minute, cfg.Lock.StaleAfter)
	assert.Equal(t, 5*time.Second, cfg.Lock.Wait)

	opts := cfg.SessionOptions(true, nil)
	assert.True(t, opts.ReadOnly)
	assert.True(t, opts.AllowOutOfBounds)
	assert.Equal(t, geometry.Grid{Columns: 12, Rows: 10}, opts.Grid)
}

func TestLoad_EmptyPathAndFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		message string
	}{
		{"zero columns", "grid:\n  columns: 0\n", "Columns"},
		{"too many rows", "grid:\n  rows: 101\n", "Rows"},
		{"unknown level", "log:\n  level: loud\n", "Level"},
		{"negative stale", "lock:\n  stale_after: -1m\n", "StaleAfter"},
		{"unknown key", "colour: blue\n", "colour"},
		{"bad duration", "lock:\n  wait: soon\n", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Grid.Rows = 8
	cfg.Lock.Wait = 90 * time.Second

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "wait: 1m30s")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
