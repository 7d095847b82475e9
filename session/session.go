// Package session implements the editing lifecycle of a presentation file:
// open, mutate, save and close, guarded by an exclusive file lock.
//
//	s, err := session.Open("deck.pptx", session.Options{})
//	if err != nil {
//	    return err // deckerr.LockUnavailable when someone else is editing
//	}
//	defer s.Close()
//
//	change, err := s.SetGeometry(0, 3, geometry.AtAnchor("center", model.Length{}, model.Length{}), nil)
//	...
//	return s.Save("")
//
// Read-only sessions never touch the lock and may only save to a different
// path. Every mutation reports the content fingerprint before and after, so
// callers can verify what an operation did.
//
// A Session is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/internal/logging"
	"github.com/tsawler/deckforge/lock"
	"github.com/tsawler/deckforge/model"
	"github.com/tsawler/deckforge/pptx"
)

// Options configures a session.
type Options struct {
	// ReadOnly skips the file lock. The session can still be mutated in
	// memory but may only be saved to another path.
	ReadOnly bool
	// Grid for grid addressing; zero fields take the 12x12 default.
	Grid geometry.Grid
	// AllowOutOfBounds accepts percentages outside 0..100.
	AllowOutOfBounds bool
	Logger           *slog.Logger
}

// Session is an open presentation.
type Session struct {
	id       string
	path     string // absolute
	opts     Options
	logger   *slog.Logger
	doc      *pptx.Document
	lock     *lock.Handle
	checksum uint64 // raw file checksum when opened or last saved

	layouts []pptx.Layout // cached by ResolveLayout
	closed  bool
}

// Open opens the presentation at path. Unless opts.ReadOnly is set the file
// lock is taken first; it is released again if the document cannot be read.
func Open(path string, opts Options) (*Session, error) {
	const op = "open session"

	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, deckerr.Wrap(deckerr.IO, op, path, err)
	}
	s := newSession(abs, opts)

	if !opts.ReadOnly {
		h, err := lock.Acquire(abs, lock.Options{Logger: s.logger})
		if err != nil {
			return nil, err
		}
		s.lock = h
	}

	if err := s.load(); err != nil {
		s.releaseLock()
		return nil, err
	}

	s.logger.Debug("opened session",
		"session", s.id, "path", abs, "read_only", opts.ReadOnly, "slides", s.doc.SlideCount())
	return s, nil
}

// Create writes a new empty presentation to path and opens it. The file
// must not exist yet. Create always takes the lock; opts.ReadOnly is
// ignored.
func Create(path string, canvas model.Canvas, opts Options) (*Session, error) {
	const op = "create session"

	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, deckerr.Wrap(deckerr.IO, op, path, err)
	}
	opts.ReadOnly = false
	s := newSession(abs, opts)

	h, err := lock.Acquire(abs, lock.Options{Logger: s.logger})
	if err != nil {
		return nil, err
	}
	s.lock = h

	if err := s.create(canvas); err != nil {
		s.releaseLock()
		return nil, err
	}

	s.logger.Debug("created presentation", "session", s.id, "path", abs,
		"width", canvas.Width, "height", canvas.Height)
	return s, nil
}

func newSession(abs string, opts Options) *Session {
	return &Session{
		id:     uuid.NewString(),
		path:   abs,
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger),
	}
}

func (s *Session) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return deckerr.Wrap(deckerr.IO, "open session", s.path, err)
	}
	doc, err := pptx.Parse(data)
	if err != nil {
		var e *deckerr.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = s.path
		}
		return err
	}
	s.doc = doc
	s.checksum = xxhash.Sum64(data)
	return nil
}

func (s *Session) create(canvas model.Canvas) error {
	const op = "create session"

	if _, err := os.Stat(s.path); err == nil {
		return deckerr.Wrap(deckerr.IO, op, s.path, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return deckerr.Wrap(deckerr.IO, op, s.path, err)
	}

	doc, err := pptx.New(canvas)
	if err != nil {
		return err
	}
	if err := doc.Save(s.path); err != nil {
		return err
	}
	sum, err := Checksum(s.path)
	if err != nil {
		return err
	}
	s.doc = doc
	s.checksum = sum
	return nil
}

// releaseLock releases the lock, logging rather than returning failures. It
// is used on error paths where the original error wins.
func (s *Session) releaseLock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Release(); err != nil {
		s.logger.Warn("releasing lock failed", "session", s.id, "path", s.path, "error", err)
	}
}

// Close releases the lock and drops the document. Calling Close again is a
// no-op. Unsaved changes are discarded.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	modified := s.doc != nil && s.doc.Modified()
	s.doc = nil
	s.layouts = nil

	var err error
	if s.lock != nil {
		err = s.lock.Release()
	}
	s.logger.Debug("closed session", "session", s.id, "path", s.path, "discarded_changes", modified)
	return err
}

func (s *Session) check(op string) error {
	if s == nil || s.closed {
		return &deckerr.Error{Kind: deckerr.SessionClosed, Op: op}
	}
	return nil
}

// ID returns the session's unique identifier, used in log records.
func (s *Session) ID() string { return s.id }

// Path returns the absolute path of the opened file.
func (s *Session) Path() string { return s.path }

// ReadOnly reports whether the session was opened without the lock.
func (s *Session) ReadOnly() bool { return s.opts.ReadOnly }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// Lock returns the held lock, or nil for read-only sessions.
func (s *Session) Lock() *lock.Handle { return s.lock }

// Grid returns the grid used for grid addressing.
func (s *Session) Grid() geometry.Grid {
	g := s.opts.Grid
	if g.Columns == 0 {
		g.Columns = geometry.DefaultColumns
	}
	if g.Rows == 0 {
		g.Rows = geometry.DefaultRows
	}
	return g
}

// Document returns the underlying presentation for read access.
func (s *Session) Document() (*pptx.Document, error) {
	if err := s.check("document"); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// Canvas returns the slide size in EMU.
func (s *Session) Canvas() (model.Canvas, error) {
	if err := s.check("canvas"); err != nil {
		return model.Canvas{}, err
	}
	return s.doc.Canvas(), nil
}

// Modified reports whether there are unsaved changes.
func (s *Session) Modified() bool {
	return !s.closed && s.doc.Modified()
}

// Save writes the document. An empty path, or the path the session was
// opened from, overwrites the original file; this needs the lock and fails
// with ConsistencyViolation if the file changed on disk since it was read.
// Any other path is a save-as, which leaves the original file and its lock
// alone.
func (s *Session) Save(path string) error {
	const op = "save session"
	if err := s.check(op); err != nil {
		return err
	}

	target := s.path
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return deckerr.Wrap(deckerr.IO, op, path, err)
		}
		target = abs
	}

	if target != s.path {
		return s.saveAs(target)
	}

	if s.lock == nil {
		return &deckerr.Error{Kind: deckerr.LockUnavailable, Op: op, Path: s.path,
			Err: errors.New("read-only session cannot overwrite the original; save to another path")}
	}
	sum, err := Checksum(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err != nil || sum != s.checksum {
		return &deckerr.Error{Kind: deckerr.ConsistencyViolation, Op: op, Path: s.path,
			Field: "checksum", Value: fmt.Sprintf("%016x", sum), Allowed: fmt.Sprintf("%016x", s.checksum),
			Err: errors.New("file changed on disk since it was read")}
	}

	if err := s.doc.Save(s.path); err != nil {
		return err
	}
	if s.checksum, err = Checksum(s.path); err != nil {
		return err
	}
	s.layouts = nil
	s.logger.Debug("saved session", "session", s.id, "path", s.path)
	return nil
}

func (s *Session) saveAs(target string) error {
	const op = "save session"

	if info, held, err := lock.Inspect(target); err == nil && held {
		return &deckerr.Error{Kind: deckerr.LockUnavailable, Op: op, Path: target, Value: info,
			HeldFor: info.Age(time.Now())}
	}
	if err := s.doc.SaveCopy(target); err != nil {
		return err
	}
	s.layouts = nil
	s.logger.Debug("saved copy", "session", s.id, "path", s.path, "target", target)
	return nil
}

// CurrentFingerprint returns the content fingerprint of the document as it
// is now, including unsaved changes. The file's base name is the identity.
func (s *Session) CurrentFingerprint() (string, error) {
	if err := s.check("fingerprint"); err != nil {
		return "", err
	}
	return s.doc.Fingerprint(filepath.Base(s.path)), nil
}
