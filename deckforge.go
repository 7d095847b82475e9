// Package deckforge provides a fluent API for inspecting and editing slide
// decks by position, size and grid cell.
//
// Basic usage:
//
//	err := deckforge.Edit("deck.pptx").Run(func(s *session.Session) error {
//	    _, err := s.SetGeometry(0, 2, geometry.AtCell("B2"), nil)
//	    if err != nil {
//	        return err
//	    }
//	    return s.Save("")
//	})
//
// Read-only work is checked against concurrent writers:
//
//	fp := deckforge.Must(deckforge.Inspect("deck.pptx").Fingerprint())
//
// For full control, the session package is also available.
package deckforge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tsawler/deckforge/config"
	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/lock"
	"github.com/tsawler/deckforge/session"
)

// Editor collects options for a session on one file. Every option method
// returns a new Editor, so a configured Editor can be reused.
type Editor struct {
	path    string
	options editOptions
}

// Edit returns an Editor that locks path for writing.
func Edit(path string) *Editor {
	return &Editor{path: path, options: defaultOptions()}
}

// Inspect returns a read-only Editor for path.
func Inspect(path string) *Editor {
	return Edit(path).ReadOnly()
}

func (e *Editor) clone() *Editor {
	c := *e
	return &c
}

// ReadOnly opens the file without taking the lock.
func (e *Editor) ReadOnly() *Editor {
	n := e.clone()
	n.options.readOnly = true
	return n
}

// Grid sets the layout grid used for cell references.
func (e *Editor) Grid(columns, rows int) *Editor {
	n := e.clone()
	n.options.grid = geometry.Grid{Columns: columns, Rows: rows}
	return n
}

// AllowOutOfBounds accepts percent positions outside 0..100.
func (e *Editor) AllowOutOfBounds() *Editor {
	n := e.clone()
	n.options.allowOutOfBounds = true
	return n
}

// Logger sets the session logger.
func (e *Editor) Logger(l *slog.Logger) *Editor {
	n := e.clone()
	n.options.logger = l
	return n
}

// Wait makes Run wait up to d for a lock held elsewhere.
func (e *Editor) Wait(d time.Duration) *Editor {
	n := e.clone()
	n.options.wait = d
	return n
}

// Config applies the grid, placement and lock wait settings of cfg.
func (e *Editor) Config(cfg config.Config) *Editor {
	n := e.clone()
	n.options = n.options.fromConfig(cfg)
	return n
}

// Options returns the session options the Editor would open with.
func (e *Editor) Options() session.Options {
	return e.options.session()
}

// Run opens a session, calls fn and closes the session. See RunContext.
func (e *Editor) Run(fn func(*session.Session) error) error {
	return e.RunContext(context.Background(), fn)
}

// RunContext opens a session, calls fn once and closes the session. When the
// lock is held elsewhere and a wait is configured, only opening is retried:
// it waits for the release until the wait or ctx runs out and then returns
// the LockUnavailable error. Errors returned by fn are never retried.
func (e *Editor) RunContext(ctx context.Context, fn func(*session.Session) error) error {
	opts := e.options.session()
	if opts.ReadOnly || e.options.wait <= 0 {
		return session.With(e.path, opts, fn)
	}

	ctx, cancel := context.WithTimeout(ctx, e.options.wait)
	defer cancel()
	s, err := e.openWhenReleased(ctx, opts)
	if err != nil {
		return err
	}
	return session.Run(s, fn)
}

func (e *Editor) openWhenReleased(ctx context.Context, opts session.Options) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for {
		s, err := session.Open(e.path, opts)
		if !errors.Is(err, deckerr.ErrLockUnavailable) {
			return s, err
		}
		if werr := lock.WaitReleased(ctx, e.path); werr != nil && ctx.Err() == nil {
			return nil, werr
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
}

// Read runs fn in a read-only session and fails with a consistency
// violation if the file changed meanwhile.
func (e *Editor) Read(fn func(*session.Session) error) error {
	return session.AtomicRead(e.path, e.options.session(), fn)
}

// Fingerprint returns the structural fingerprint of the file.
func (e *Editor) Fingerprint() (string, error) {
	var fp string
	err := e.Read(func(s *session.Session) error {
		var err error
		fp, err = s.CurrentFingerprint()
		return err
	})
	return fp, err
}

// SlideCount returns the number of slides.
func (e *Editor) SlideCount() (int, error) {
	var n int
	err := e.Read(func(s *session.Session) error {
		doc, err := s.Document()
		if err != nil {
			return err
		}
		n = doc.SlideCount()
		return nil
	})
	return n, err
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := deckforge.Must(deckforge.Inspect("deck.pptx").SlideCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
