package lock

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollInterval backs up the watcher on file systems that drop events.
const pollInterval = time.Second

// WaitReleased blocks until no lock is held for target or ctx is done. It
// watches the directory holding the lock artifact and returns as soon as the
// artifact is removed or renamed away. It does not acquire the lock; callers
// still race other waiters for it.
func WaitReleased(ctx context.Context, target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	lockPath := PathFor(abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(lockPath)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(lockPath), err)
	}

	// Check after the watch is in place so a release in between is not missed.
	if _, held, err := Inspect(abs); err != nil || !held {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			if filepath.Clean(ev.Name) != lockPath {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if _, held, err := Inspect(abs); err != nil || !held {
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("file watcher closed")
			}
			return fmt.Errorf("watching lock: %w", err)

		case <-ticker.C:
			if _, held, err := Inspect(abs); err != nil || !held {
				return err
			}
		}
	}
}
