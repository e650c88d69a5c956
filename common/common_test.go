package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceToBytesRoundTrip(t *testing.T) {
	in := []float32{-0.14, -1.702, 5.936, 0, 1}
	raw := SliceToBytes(in)
	require.Len(t, raw, len(in)*4)

	out, err := BytesToSlice[float32](raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSliceToBytesEmpty(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint16{}))

	out, err := BytesToSlice[uint16](nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBytesToSliceMisaligned(t *testing.T) {
	_, err := BytesToSlice[uint32]([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestColorRGBA8(t *testing.T) {
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, Black.RGBA8())
	assert.Equal(t, [4]uint8{255, 128, 0, 255}, Color{R: 2, G: 0.5, B: -1, A: 1}.RGBA8())
}

func TestColorFromSlice(t *testing.T) {
	c, err := ColorFromSlice([]float32{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, Color{R: 1, G: 1, B: 0, A: 1}, c)

	_, err = ColorFromSlice([]float32{1})
	assert.Error(t, err)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
