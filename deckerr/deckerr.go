// Package deckerr defines the closed error taxonomy shared by every deckforge
// package.
//
// Each failure carries a [Kind] so callers can branch without matching on
// message text:
//
//	if errors.Is(err, deckerr.ErrLockUnavailable) {
//	    // someone else is editing the deck
//	}
//
//	switch deckerr.KindOf(err) {
//	case deckerr.InvalidPositionSpec, deckerr.InvalidSizeSpec:
//	    // fix the position and retry
//	}
//
// The concrete [Error] type also records the offending field, the received
// value and the allowed set or range, which is enough for a caller to build a
// corrected request.
package deckerr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an error.
type Kind int

const (
	// Unknown is reported by KindOf for errors outside the taxonomy.
	Unknown Kind = iota
	// LockUnavailable means another session holds the file lock.
	LockUnavailable
	// InvalidPositionSpec covers malformed or ambiguous position addressing.
	InvalidPositionSpec
	// InvalidSizeSpec covers malformed sizes, including auto sizing without
	// aspect-ratio data.
	InvalidSizeSpec
	// InvalidColor is a malformed hex color.
	InvalidColor
	// OutOfRange is an index or value outside its valid bounds.
	OutOfRange
	// ConsistencyViolation means a file changed underneath a reader or writer.
	ConsistencyViolation
	// NotFound is a lookup that matched nothing.
	NotFound
	// SessionClosed is an operation on a closed session.
	SessionClosed
	// InvalidDocument is a file that is not a usable presentation package.
	InvalidDocument
	// IO wraps file system failures.
	IO
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case LockUnavailable:
		return "lock unavailable"
	case InvalidPositionSpec:
		return "invalid position"
	case InvalidSizeSpec:
		return "invalid size"
	case InvalidColor:
		return "invalid color"
	case OutOfRange:
		return "out of range"
	case ConsistencyViolation:
		return "consistency violation"
	case NotFound:
		return "not found"
	case SessionClosed:
		return "session closed"
	case InvalidDocument:
		return "invalid document"
	case IO:
		return "i/o error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrLockUnavailable      = &Error{Kind: LockUnavailable}
	ErrInvalidPositionSpec  = &Error{Kind: InvalidPositionSpec}
	ErrInvalidSizeSpec      = &Error{Kind: InvalidSizeSpec}
	ErrInvalidColor         = &Error{Kind: InvalidColor}
	ErrOutOfRange           = &Error{Kind: OutOfRange}
	ErrConsistencyViolation = &Error{Kind: ConsistencyViolation}
	ErrNotFound             = &Error{Kind: NotFound}
	ErrSessionClosed        = &Error{Kind: SessionClosed}
	ErrInvalidDocument      = &Error{Kind: InvalidDocument}
	ErrIO                   = &Error{Kind: IO}
)

// Error is the single concrete error type of the taxonomy.
type Error struct {
	Kind    Kind
	Op      string        // operation that failed, e.g. "resolve position"
	Field   string        // offending field, e.g. "left"
	Value   any           // received value
	Allowed string        // allowed set or range, human readable
	Path    string        // file involved, if any
	HeldFor time.Duration // lock age for LockUnavailable, when known
	Err     error         // underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
		if e.Value != nil {
			fmt.Fprintf(&b, "=%v", e.Value)
		}
	} else if e.Value != nil {
		fmt.Fprintf(&b, ": %v", e.Value)
	}
	if e.Allowed != "" {
		fmt.Fprintf(&b, " (allowed: %s)", e.Allowed)
	}
	if e.HeldFor > 0 {
		fmt.Fprintf(&b, " (held for %s)", e.HeldFor.Round(time.Second))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// New creates an error of the given kind with a formatted message as cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Field creates an error describing an invalid field value.
func Field(kind Kind, op, field string, value any, allowed string) *Error {
	return &Error{Kind: kind, Op: op, Field: field, Value: value, Allowed: allowed}
}

// Wrap attaches a kind to err. It returns nil when err is nil.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
