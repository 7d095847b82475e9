package deckforge

import (
	"log/slog"
	"time"

	"github.com/tsawler/deckforge/config"
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/session"
)

// editOptions holds the configuration collected by an Editor.
type editOptions struct {
	readOnly         bool
	grid             geometry.Grid
	allowOutOfBounds bool
	logger           *slog.Logger

	// wait is how long Run waits for another holder's lock; 0 fails fast.
	wait time.Duration
}

// defaultOptions returns the options of a fresh Editor.
func defaultOptions() editOptions {
	return editOptions{grid: geometry.DefaultGrid()}
}

// fromConfig overlays a loaded configuration.
func (o editOptions) fromConfig(cfg config.Config) editOptions {
	o.grid = cfg.GridSpec()
	o.allowOutOfBounds = cfg.Placement.AllowOutOfBounds
	o.wait = cfg.Lock.Wait
	return o
}

// session converts to session options.
func (o editOptions) session() session.Options {
	return session.Options{
		ReadOnly:         o.readOnly,
		Grid:             o.grid,
		AllowOutOfBounds: o.allowOutOfBounds,
		Logger:           o.logger,
	}
}
