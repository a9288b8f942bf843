package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.Register("echo", BuiltinFunc(func(ctx context.Context, rc *Context) (int, error) {
		return 0, nil
	}))

	b, ok := r.Lookup("echo")
	require.True(t, ok)
	code, err := b.Run(context.Background(), &Context{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestLookupMissing(t *testing.T) {
	r := New()
	_, ok := r.Lookup("nope")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	r := New()
	noop := BuiltinFunc(func(ctx context.Context, rc *Context) (int, error) { return 0, nil })
	r.Register("wc", noop)
	r.Register("cat", noop)
	r.Register("echo", noop)
	assert.Equal(t, []string{"cat", "echo", "wc"}, r.Names())
}

func TestErrCommandNotFound(t *testing.T) {
	assert.Equal(t, "frobnicate: command not found\n", ErrCommandNotFound("frobnicate"))
}
