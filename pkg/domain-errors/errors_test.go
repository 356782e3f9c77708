package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct match", func(t *testing.T) {
		err := New(CodeNotFound, "lot not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("walks the wrap chain", func(t *testing.T) {
		inner := New(CodeEmptyReason, "reason required")
		outer := Wrap(inner, CodeInvalidTransition, "transition rejected")
		assert.True(t, HasCode(outer, CodeInvalidTransition))
		assert.True(t, HasCode(outer, CodeEmptyReason))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("while rejecting: %w", New(CodeEmptyReason, "reason required"))
		assert.True(t, HasCode(err, CodeEmptyReason))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "bad input")))
	require.Equal(t, CodeInternal, CodeOf(errors.New("boom")))

	outer := Wrap(New(CodeEmptyReason, "inner"), CodeInvalidTransition, "outer")
	require.Equal(t, CodeInvalidTransition, CodeOf(outer), "outermost code wins")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "storage failure")
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "storage failure")
	require.Contains(t, err.Error(), "connection refused")

	require.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}
