// Package lock provides the advisory, cross-process file lock that guards a
// deck against concurrent writers.
//
// The lock is a sibling artifact named "<file>.lock" created with
// O_CREATE|O_EXCL, so acquisition is a single atomic syscall: it either
// creates the artifact or fails because it already exists. The artifact holds
// a JSON [Info] record naming the owner.
//
// The lock is cooperative. It only excludes writers that also acquire it.
//
//	h, err := lock.Acquire("deck.pptx", lock.Options{})
//	if errors.Is(err, deckerr.ErrLockUnavailable) {
//	    // another session is editing the deck
//	}
//	defer h.Release()
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/internal/logging"
)

// Suffix is appended to the target path to name the lock artifact.
const Suffix = ".lock"

// PathFor returns the lock artifact path for target.
func PathFor(target string) string {
	return target + Suffix
}

// Info is the record stored in a lock artifact.
type Info struct {
	Owner      string    `json:"owner"`
	PID        int       `json:"pid"`
	Host       string    `json:"host"`
	Path       string    `json:"path"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// String describes the holder for error messages.
func (i Info) String() string {
	if i.PID == 0 {
		return "held by unknown owner"
	}
	if i.Host != "" {
		return fmt.Sprintf("held by pid %d on %s", i.PID, i.Host)
	}
	return fmt.Sprintf("held by pid %d", i.PID)
}

// Age returns how long the lock has been held as of now.
func (i Info) Age(now time.Time) time.Duration {
	if i.AcquiredAt.IsZero() {
		return 0
	}
	d := now.Sub(i.AcquiredAt)
	if d < 0 {
		return 0
	}
	return d
}

// Stale reports whether the holder is gone or the lock is older than maxAge.
// The process probe only applies when the holder ran on this host. A zero
// maxAge disables the age check.
func (i Info) Stale(maxAge time.Duration, now time.Time) bool {
	if i.PID > 0 && i.Host == hostname() && !processAlive(i.PID) {
		return true
	}
	return maxAge > 0 && i.Age(now) > maxAge
}

// State of a Handle.
type State int

const (
	StateHeld State = iota
	StateReleased
)

// String returns the string representation of the state.
func (s State) String() string {
	if s == StateReleased {
		return "released"
	}
	return "held"
}

// Options configures Acquire.
type Options struct {
	Logger *slog.Logger
}

// Handle is a held lock. It is safe for concurrent use.
type Handle struct {
	target   string
	lockPath string
	info     Info
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// Acquire takes the lock for target in one non-blocking attempt. If the lock
// artifact already exists it returns a LockUnavailable error carrying the
// path, the holder and, when known, how long the lock has been held.
func Acquire(target string, opts Options) (*Handle, error) {
	const op = "acquire lock"
	logger := logging.OrDiscard(opts.Logger)

	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, deckerr.Wrap(deckerr.IO, op, target, err)
	}
	lockPath := PathFor(abs)

	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, unavailable(op, abs)
		}
		return nil, deckerr.Wrap(deckerr.IO, op, abs, err)
	}

	info := Info{
		Owner:      uuid.NewString(),
		PID:        os.Getpid(),
		Host:       hostname(),
		Path:       abs,
		AcquiredAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err == nil {
		_, err = f.Write(data)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, deckerr.Wrap(deckerr.IO, op, abs, fmt.Errorf("writing lock info: %w", err))
	}

	logger.Debug("acquired lock", "path", abs, "owner", info.Owner)
	return &Handle{target: abs, lockPath: lockPath, info: info, logger: logger}, nil
}

func unavailable(op, abs string) error {
	e := &deckerr.Error{Kind: deckerr.LockUnavailable, Op: op, Path: abs}
	if holder, ok, err := Inspect(abs); err == nil && ok {
		e.HeldFor = holder.Age(time.Now())
		if holder.PID != 0 {
			e.Value = holder
		}
	}
	return e
}

// Path returns the absolute path of the locked file.
func (h *Handle) Path() string { return h.target }

// LockPath returns the path of the lock artifact.
func (h *Handle) LockPath() string { return h.lockPath }

// Info returns the record written when the lock was acquired.
func (h *Handle) Info() Info { return h.info }

// HeldFor returns the time since acquisition.
func (h *Handle) HeldFor() time.Duration { return h.info.Age(time.Now()) }

// State reports whether the handle still holds the lock.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Release removes the lock artifact. It is idempotent: releasing twice, or
// after the artifact was removed externally, returns nil. An artifact that now
// belongs to another owner is left in place.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateReleased {
		return nil
	}
	h.state = StateReleased

	current, ok, err := Inspect(h.target)
	if err != nil {
		return deckerr.Wrap(deckerr.IO, "release lock", h.target, err)
	}
	if !ok {
		h.logger.Warn("lock artifact already removed", "path", h.target)
		return nil
	}
	if current.Owner != "" && current.Owner != h.info.Owner {
		h.logger.Warn("lock artifact owned by another session, leaving it",
			"path", h.target, "owner", current.Owner)
		return nil
	}

	if err := os.Remove(h.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return deckerr.Wrap(deckerr.IO, "release lock", h.target, err)
	}
	h.logger.Debug("released lock", "path", h.target, "held_for", h.HeldFor())
	return nil
}

// Inspect reads the lock artifact for target. ok is false when no lock is
// held. An artifact that cannot be decoded (for example one still being
// written) yields an Info with only Path and AcquiredAt, taken from the
// artifact's modification time.
func Inspect(target string) (info Info, ok bool, err error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return Info{}, false, err
	}
	lockPath := PathFor(abs)

	st, err := os.Stat(lockPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, false, nil
		}
		return Info{}, false, err
	}
	data, err := os.ReadFile(lockPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, false, nil
		}
		return Info{}, false, err
	}
	if jerr := json.Unmarshal(data, &info); jerr != nil {
		return Info{Path: abs, AcquiredAt: st.ModTime().UTC()}, true, nil
	}
	return info, true, nil
}

// Break removes the lock artifact for target regardless of its owner. It is
// meant for operators clearing a stale lock.
func Break(target string, logger *slog.Logger) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return deckerr.Wrap(deckerr.IO, "break lock", target, err)
	}
	info, ok, _ := Inspect(abs)
	if err := os.Remove(PathFor(abs)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return deckerr.Wrap(deckerr.IO, "break lock", abs, err)
	}
	if ok {
		logging.OrDiscard(logger).Warn("broke lock", "path", abs, "owner", info.Owner, "pid", info.PID)
	}
	return nil
}

var (
	hostOnce sync.Once
	hostName string
)

func hostname() string {
	hostOnce.Do(func() {
		hostName, _ = os.Hostname()
	})
	return hostName
}
