package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCommandNotFoundError(t *testing.T) {
	err := NewCommandNotFoundError("frobnicate")
	assert.Equal(t, KindCommandNotFound, err.Kind)
	assert.True(t, IsKind(err, KindCommandNotFound))
	cmd, ok := err.GetContext("command")
	assert.True(t, ok)
	assert.Equal(t, "frobnicate", cmd)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindIO, "read failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewRecursionError(t *testing.T) {
	err := NewRecursionError(65, 64)
	assert.Equal(t, KindRecursion, err.Kind)
	depth, _ := err.GetContext("depth")
	assert.Equal(t, 65, depth)
}

func TestIsKindFalseForPlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("plain"), KindIO))
}
