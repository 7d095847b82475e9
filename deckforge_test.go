package deckforge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tsawler/deckforge/config"
	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/geometry"
	"github.com/tsawler/deckforge/internal/testdeck"
	"github.com/tsawler/deckforge/lock"
	"github.com/tsawler/deckforge/session"
)

func TestEdit_Run(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)

	err := Edit(path).Grid(12, 10).Run(func(s *session.Session) error {
		if s.ReadOnly() {
			t.Error("Edit should open for writing")
		}
		if got := s.Grid(); got != (geometry.Grid{Columns: 12, Rows: 10}) {
			t.Errorf("grid = %+v", got)
		}
		if _, err := s.SetGeometry(0, 3, geometry.AtCell("C4"), nil); err != nil {
			return err
		}
		return s.Save("")
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	fp, err := Inspect(path).Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	orig := testdeck.Standard().WriteTemp(t)
	if same := Must(Inspect(orig).Fingerprint()); same == fp {
		t.Error("saved edit should change the fingerprint")
	}
}

func TestEditor_OptionsAreImmutable(t *testing.T) {
	base := Edit("deck.pptx")
	ro := base.ReadOnly()
	wide := base.Grid(24, 6).AllowOutOfBounds()

	if base.Options().ReadOnly {
		t.Error("ReadOnly leaked into the base editor")
	}
	if !ro.Options().ReadOnly {
		t.Error("expected read-only options")
	}
	if base.Options().Grid != geometry.DefaultGrid() {
		t.Errorf("base grid = %+v", base.Options().Grid)
	}
	if got := wide.Options(); got.Grid != (geometry.Grid{Columns: 24, Rows: 6}) || !got.AllowOutOfBounds {
		t.Errorf("wide options = %+v", got)
	}
}

func TestEditor_Config(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Rows = 4
	cfg.Placement.AllowOutOfBounds = true
	cfg.Lock.Wait = 3 * time.Second

	e := Edit("deck.pptx").Config(cfg)
	opts := e.Options()
	if opts.Grid != (geometry.Grid{Columns: 12, Rows: 4}) {
		t.Errorf("grid = %+v", opts.Grid)
	}
	if !opts.AllowOutOfBounds {
		t.Error("expected AllowOutOfBounds")
	}
	if e.options.wait != 3*time.Second {
		t.Errorf("wait = %v", e.options.wait)
	}
}

func TestEdit_LockedFailsFast(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)
	holder, err := session.Open(path, session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()

	called := false
	err = Edit(path).Run(func(*session.Session) error { called = true; return nil })
	if !errors.Is(err, deckerr.ErrLockUnavailable) {
		t.Fatalf("err = %v, want lock unavailable", err)
	}
	if called {
		t.Error("fn must not run without the lock")
	}

	err = Edit(path).Wait(200 * time.Millisecond).Run(func(*session.Session) error { return nil })
	if !errors.Is(err, deckerr.ErrLockUnavailable) {
		t.Fatalf("after wait: err = %v, want lock unavailable", err)
	}
}

func TestEdit_WaitsForRelease(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)
	holder, err := session.Open(path, session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = holder.Close()
	}()

	called := false
	err = Edit(path).Wait(10 * time.Second).Run(func(*session.Session) error { called = true; return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !called {
		t.Error("fn should run once the lock is released")
	}
}

func TestEdit_WaitNeverRetriesCallbackErrors(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)
	other := testdeck.Standard().WriteTemp(t)
	holder, err := session.Open(other, session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Edit(path).Wait(300 * time.Millisecond).Run(func(s *session.Session) error {
			calls++
			return s.Save(other)
		})
	}()

	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept retrying after fn failed")
	}
	if !errors.Is(err, deckerr.ErrLockUnavailable) {
		t.Fatalf("err = %v, want lock unavailable from the save", err)
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
	if _, held, _ := lock.Inspect(path); held {
		t.Error("the session's own lock should be released")
	}
}

func TestEdit_WaitHonorsCancelledContext(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Edit(path).Wait(time.Minute).RunContext(ctx, func(*session.Session) error { called = true; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Error("fn must not run after the context is cancelled")
	}
}

func TestInspect_SlideCount(t *testing.T) {
	path := testdeck.Standard().WriteTemp(t)
	if got := Must(Inspect(path).SlideCount()); got != 3 {
		t.Errorf("SlideCount = %d, want 3", got)
	}

	// Readers do not need the lock.
	holder, err := session.Open(path, session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Close()
	if _, err := Inspect(path).SlideCount(); err != nil {
		t.Errorf("read-only count under a writer: %v", err)
	}
}

func TestMust_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Must(Inspect("does-not-exist.pptx").SlideCount())
}
