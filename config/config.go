// Package config loads deckforge settings from YAML.
//
// Every field has a default, so a file only needs the values it changes:
//
//	grid:
//	  columns: 12
//	  rows: 10
//	log:
//	  level: debug
//	lock:
//	  stale_after: 30m
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/internal/logging"
	"github.com/tsawler/deckforge/session"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "DECKFORGE_CONFIG"

// Config is the complete configuration.
type Config struct {
	Grid      GridConfig      `yaml:"grid" json:"grid"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Lock      LockConfig      `yaml:"lock" json:"lock"`
	Placement PlacementConfig `yaml:"placement" json:"placement"`
}

// GridConfig sizes the layout grid used for cell addressing.
type GridConfig struct {
	Columns int `yaml:"columns" json:"columns" validate:"gte=1,lte=100"`
	Rows    int `yaml:"rows" json:"rows" validate:"gte=1,lte=100"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json" json:"json"`
}

// LockConfig tunes the caller-side lock helpers.
type LockConfig struct {
	// StaleAfter is the age past which a lock is reported as stale; 0
	// disables the age check.
	StaleAfter time.Duration `yaml:"stale_after" json:"stale_after" validate:"gte=0"`
	// Wait is how long commands wait for a held lock before giving up.
	Wait time.Duration `yaml:"wait" json:"wait" validate:"gte=0"`
}

// PlacementConfig controls position validation.
type PlacementConfig struct {
	AllowOutOfBounds bool `yaml:"allow_out_of_bounds" json:"allow_out_of_bounds"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: GridConfig{Columns: geometry.DefaultColumns, Rows: geometry.DefaultRows},
		Log:  LogConfig{Level: "info"},
		Lock: LockConfig{StaleAfter: time.Hour},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML from data over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse: %w", err)
	}
	return c.Validate()
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid %s: %v fails %q", f.Namespace(), f.Value(), f.Tag()+paramSuffix(f.Param()))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// GridSpec returns the configured grid.
func (c Config) GridSpec() geometry.Grid {
	return geometry.Grid{Columns: c.Grid.Columns, Rows: c.Grid.Rows}
}

// Logging returns the logger configuration writing to out.
func (c Config) Logging(out io.Writer) logging.Config {
	return logging.Config{Level: c.Log.Level, JSON: c.Log.JSON, Output: out}
}

// SessionOptions returns session options for the configuration.
func (c Config) SessionOptions(readOnly bool, logger *slog.Logger) session.Options {
	return session.Options{
		ReadOnly:         readOnly,
		Grid:             c.GridSpec(),
		AllowOutOfBounds: c.Placement.AllowOutOfBounds,
		Logger:           logger,
	}
}
