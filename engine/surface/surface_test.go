package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	canvas := NewOffscreen("canvas", 320, 240)
	r := NewRegistry(canvas)

	s, err := r.Resolve("canvas")
	require.NoError(t, err)
	assert.Equal(t, 320, s.Width())
	assert.Equal(t, 240, s.Height())

	_, err = r.Resolve("missing")
	assert.ErrorIs(t, err, ErrUnknownSurface)

	r.Unregister("canvas")
	_, err = r.Resolve("canvas")
	assert.ErrorIs(t, err, ErrUnknownSurface)
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry(NewOffscreen("canvas", 1, 1))
	r.Register(NewOffscreen("canvas", 2, 2))

	s, err := r.Resolve("canvas")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Width())
}
