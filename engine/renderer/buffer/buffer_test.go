package buffer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/headless_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T, options ...headless_backend.HeadlessBuilderOption) device.Device {
	t.Helper()
	dev := headless_backend.NewHeadless(options...)
	require.NoError(t, dev.Attach(surface.NewOffscreen("canvas", 4, 4)))
	t.Cleanup(dev.Release)
	return dev
}

func TestVertexBufferRoundTrip(t *testing.T) {
	dev := newDevice(t)
	data := []float32{-0.14, -1.702, 5.936, 1, 1, 0}

	vb, err := NewVertexBuffer(dev, data)
	require.NoError(t, err)
	assert.NotZero(t, vb.ID())
	assert.Equal(t, 6, vb.Len())
	assert.Equal(t, 24, vb.ByteSize())

	got, err := ReadVertexBuffer(dev, vb)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestIndexBufferFormat(t *testing.T) {
	dev := newDevice(t)

	small, err := NewIndexBuffer(dev, []uint32{12, 10, 1, 2, 3, 9})
	require.NoError(t, err)
	assert.Equal(t, device.IndexFormatUint16, small.Format())
	assert.Equal(t, 12, small.ByteSize())

	large, err := NewIndexBuffer(dev, []uint32{0, 1, 70000})
	require.NoError(t, err)
	assert.Equal(t, device.IndexFormatUint32, large.Format())
	assert.Equal(t, 12, large.ByteSize())

	got, err := ReadIndexBuffer(dev, large)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 70000}, got)
}

func TestEmptyBuffers(t *testing.T) {
	dev := newDevice(t)

	vb, err := NewVertexBuffer(dev, nil)
	require.NoError(t, err)
	assert.Zero(t, vb.Len())

	ib, err := NewIndexBuffer(dev, []uint32{})
	require.NoError(t, err)
	assert.Zero(t, ib.Len())
	assert.Equal(t, device.IndexFormatUint16, ib.Format())

	got, err := ReadIndexBuffer(dev, ib)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndicesAreNotRangeChecked(t *testing.T) {
	dev := newDevice(t)
	ib, err := NewIndexBuffer(dev, []uint32{0, 1, 500})
	require.NoError(t, err)
	assert.Equal(t, 3, ib.Len())
}

func TestAllocationFailure(t *testing.T) {
	dev := newDevice(t, headless_backend.WithMemoryLimit(16))

	_, err := NewVertexBuffer(dev, make([]float32, 8))
	var allocErr *device.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, device.BufferKindVertex, allocErr.Kind)
	assert.ErrorIs(t, err, device.ErrOutOfMemory)

	_, err = NewIndexBuffer(dev, make([]uint32, 12))
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, device.BufferKindIndex, allocErr.Kind)
}

func TestEncodeDecodeIndices(t *testing.T) {
	raw := EncodeIndices([]uint32{1, 258}, device.IndexFormatUint16)
	assert.Equal(t, []byte{1, 0, 2, 1}, raw)

	_, err := DecodeIndices([]byte{1, 2, 3}, device.IndexFormatUint16)
	assert.Error(t, err)
}
