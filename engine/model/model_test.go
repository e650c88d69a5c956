package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpike(t *testing.T) {
	m := Spike()
	require.NoError(t, m.Validate())

	assert.Equal(t, "spike", m.Name())
	assert.Equal(t, 20, m.VertexCount())
	assert.Equal(t, 108, m.IndexCount())
	assert.Equal(t, 36, m.TriangleCount())
	assert.Len(t, m.Colors(), 60)
	assert.True(t, m.IsClosed())
	assert.Greater(t, m.SignedVolume(), float32(0))
}

func TestSpikePaletteRepeats(t *testing.T) {
	colors := Spike().Colors()
	for v := range 20 {
		want := SpikePalette[v%5]
		assert.Equal(t, want[:], colors[v*3:v*3+3], "vertex %d", v)
	}
}

func TestSpikeReturnsCopies(t *testing.T) {
	a := Spike()
	a.Positions()[0] = 99
	a.Indices()[0] = 0
	b := Spike()
	assert.Equal(t, float32(-0.14), b.Positions()[0])
	assert.Equal(t, uint32(12), b.Indices()[0])
}

func TestCube(t *testing.T) {
	m := Cube(0.5)
	require.NoError(t, m.Validate())

	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, 36, m.IndexCount())
	assert.Equal(t, 12, m.TriangleCount())
	assert.True(t, m.IsClosed())
	assert.InDelta(t, 1.0, m.SignedVolume(), 1e-6)
	assert.InDelta(t, 0.8660254, m.BoundingRadius(), 1e-6)
}

func TestReversedWindingHasNegativeVolume(t *testing.T) {
	cube := Cube(1)
	reversed := append([]uint32(nil), cube.Indices()...)
	for i := 0; i < len(reversed); i += 3 {
		reversed[i+1], reversed[i+2] = reversed[i+2], reversed[i+1]
	}
	m := NewModel(WithPositions(cube.Positions()), WithColors(cube.Colors()), WithIndices(reversed))
	assert.True(t, m.IsClosed())
	assert.Less(t, m.SignedVolume(), float32(0))
}

func TestValidate(t *testing.T) {
	cases := map[string]Model{
		"positions not xyz": NewModel(WithPositions([]float32{0, 0}), WithColors([]float32{0, 0})),
		"color mismatch":    NewModel(WithPositions([]float32{0, 0, 0}), WithColors([]float32{1, 1})),
		"partial triangle":  NewModel(WithPositions([]float32{0, 0, 0}), WithColors([]float32{1, 1, 1}), WithIndices([]uint32{0, 0})),
		"index range":       NewModel(WithPositions([]float32{0, 0, 0}), WithColors([]float32{1, 1, 1}), WithIndices([]uint32{0, 0, 1})),
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, m.Validate(), ErrInvalidGeometry)
		})
	}

	empty := NewModel()
	assert.NoError(t, empty.Validate())
	assert.False(t, empty.IsClosed())
	assert.Equal(t, float32(0), empty.SignedVolume())
}
