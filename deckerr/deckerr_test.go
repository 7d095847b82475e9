package deckerr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{LockUnavailable, "lock unavailable"},
		{InvalidPositionSpec, "invalid position"},
		{InvalidSizeSpec, "invalid size"},
		{InvalidColor, "invalid color"},
		{OutOfRange, "out of range"},
		{ConsistencyViolation, "consistency violation"},
		{NotFound, "not found"},
		{SessionClosed, "session closed"},
		{InvalidDocument, "invalid document"},
		{IO, "i/o error"},
		{Unknown, "unknown"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestErrorsIs(t *testing.T) {
	err := fmt.Errorf("saving deck: %w", &Error{Kind: LockUnavailable, Path: "/tmp/a.pptx"})

	assert.True(t, errors.Is(err, ErrLockUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, LockUnavailable, KindOf(err))
}

func TestKindOf_Foreign(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestError_Message(t *testing.T) {
	t.Run("field error", func(t *testing.T) {
		err := Field(InvalidPositionSpec, "resolve position", "anchor", "middle_top", "top_left, center")
		assert.Equal(t, "resolve position: invalid position: anchor=middle_top (allowed: top_left, center)", err.Error())
	})

	t.Run("lock error with age", func(t *testing.T) {
		err := &Error{Kind: LockUnavailable, Op: "acquire", Path: "deck.pptx", HeldFor: 90 * time.Second}
		assert.Equal(t, "acquire: lock unavailable (deck.pptx) (held for 1m30s)", err.Error())
	})

	t.Run("wrapped cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(IO, "save", "deck.pptx", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(IO, "save", "", nil))
}
