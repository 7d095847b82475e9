package session

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/tsawler/deckforge/deckerr"
)

// With opens a session, runs fn and closes the session on every path. A
// panic in fn is re-raised after the session is closed. The first error of
// fn and Close is returned.
func With(path string, opts Options, fn func(*Session) error) error {
	s, err := Open(path, opts)
	if err != nil {
		return err
	}
	return Run(s, fn)
}

// Run calls fn on an open session and closes it afterwards, with the same
// panic and error handling as With.
func Run(s *Session, fn func(*Session) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			_ = s.Close()
			panic(r)
		}
	}()

	err = fn(s)
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Checksum returns the xxhash64 of the raw file at path. It is a cheap
// change detector, not an integrity check.
func Checksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, deckerr.Wrap(deckerr.IO, "checksum", path, err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, deckerr.Wrap(deckerr.IO, "checksum", path, err)
	}
	return h.Sum64(), nil
}

// AtomicRead runs fn in a read-only session and verifies the file did not
// change while it ran. A change is a ConsistencyViolation even when fn
// itself failed; fn's error is then kept as the cause.
func AtomicRead(path string, opts Options, fn func(*Session) error) error {
	const op = "atomic read"

	before, err := Checksum(path)
	if err != nil {
		return err
	}

	opts.ReadOnly = true
	ferr := With(path, opts, fn)

	after, err := Checksum(path)
	if err != nil {
		return &deckerr.Error{Kind: deckerr.ConsistencyViolation, Op: op, Path: path,
			Err: fmt.Errorf("file disappeared during read: %w", err)}
	}
	if after != before {
		return &deckerr.Error{Kind: deckerr.ConsistencyViolation, Op: op, Path: path,
			Field: "checksum", Value: fmt.Sprintf("%016x", after), Allowed: fmt.Sprintf("%016x", before),
			Err: ferr}
	}
	return ferr
}
