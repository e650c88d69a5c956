// Package buffer creates the immutable vertex and index buffers that hold mesh geometry on a device.
package buffer

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
)

// VertexBuffer is a device buffer of 32-bit float vertex components.
type VertexBuffer interface {
	// ID returns the device handle of the buffer.
	//
	// Returns:
	//   - device.BufferID: the buffer handle
	ID() device.BufferID

	// Len returns the number of float components stored.
	//
	// Returns:
	//   - int: the element count
	Len() int

	// ByteSize returns the size of the buffer in bytes.
	//
	// Returns:
	//   - int: Len() * 4
	ByteSize() int
}

// IndexBuffer is a device buffer of unsigned triangle list indices.
type IndexBuffer interface {
	// ID returns the device handle of the buffer.
	//
	// Returns:
	//   - device.BufferID: the buffer handle
	ID() device.BufferID

	// Len returns the number of indices stored.
	//
	// Returns:
	//   - int: the index count
	Len() int

	// Format returns the element width the indices were packed with.
	//
	// Returns:
	//   - device.IndexFormat: uint16 when every index fits, uint32 otherwise
	Format() device.IndexFormat

	// ByteSize returns the size of the buffer in bytes.
	//
	// Returns:
	//   - int: Len() times the index width
	ByteSize() int
}

type vertexBuffer struct {
	id  device.BufferID
	len int
}

var _ VertexBuffer = &vertexBuffer{}

type indexBuffer struct {
	id     device.BufferID
	len    int
	format device.IndexFormat
}

var _ IndexBuffer = &indexBuffer{}

// NewVertexBuffer uploads float vertex data into a new device buffer. Empty data yields a valid,
// zero length buffer.
//
// Parameters:
//   - dev: the device to allocate on
//   - data: the vertex components
//
// Returns:
//   - VertexBuffer: the uploaded buffer
//   - error: a *device.AllocationError if the device cannot allocate the buffer
func NewVertexBuffer(dev device.Device, data []float32) (VertexBuffer, error) {
	raw := common.SliceToBytes(data)
	id, err := dev.CreateBuffer(device.BufferKindVertex, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer: %w", err)
	}
	logger.Logger().Debug("vertex buffer created", "buffer", id, "floats", len(data), "bytes", len(raw))
	return &vertexBuffer{id: id, len: len(data)}, nil
}

// NewIndexBuffer uploads triangle list indices into a new device buffer. Indices are packed as
// uint16 when every value fits and as uint32 otherwise. Values are not checked against any
// vertex count. Empty data yields a valid, zero length buffer.
//
// Parameters:
//   - dev: the device to allocate on
//   - indices: the triangle list indices
//
// Returns:
//   - IndexBuffer: the uploaded buffer
//   - error: a *device.AllocationError if the device cannot allocate the buffer
func NewIndexBuffer(dev device.Device, indices []uint32) (IndexBuffer, error) {
	format := ChooseIndexFormat(indices)
	raw := EncodeIndices(indices, format)
	id, err := dev.CreateBuffer(device.BufferKindIndex, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create index buffer: %w", err)
	}
	logger.Logger().Debug("index buffer created", "buffer", id, "indices", len(indices), "format", format)
	return &indexBuffer{id: id, len: len(indices), format: format}, nil
}

// ReadVertexBuffer copies a vertex buffer's contents back from the device.
//
// Parameters:
//   - dev: the device owning the buffer
//   - vb: the buffer to read
//
// Returns:
//   - []float32: the stored components
//   - error: device.ErrReadbackUnsupported on devices without readback
func ReadVertexBuffer(dev device.Device, vb VertexBuffer) ([]float32, error) {
	raw, err := dev.ReadBuffer(vb.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to read vertex buffer %d: %w", vb.ID(), err)
	}
	return common.BytesToSlice[float32](raw)
}

// ReadIndexBuffer copies an index buffer's contents back from the device, widening to uint32.
//
// Parameters:
//   - dev: the device owning the buffer
//   - ib: the buffer to read
//
// Returns:
//   - []uint32: the stored indices
//   - error: device.ErrReadbackUnsupported on devices without readback
func ReadIndexBuffer(dev device.Device, ib IndexBuffer) ([]uint32, error) {
	raw, err := dev.ReadBuffer(ib.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to read index buffer %d: %w", ib.ID(), err)
	}
	return DecodeIndices(raw, ib.Format())
}

// ChooseIndexFormat picks the narrowest format able to hold every index.
//
// Parameters:
//   - indices: the indices to store
//
// Returns:
//   - device.IndexFormat: IndexFormatUint16 if every value is below 65536, IndexFormatUint32 otherwise
func ChooseIndexFormat(indices []uint32) device.IndexFormat {
	for _, i := range indices {
		if i > 0xFFFF {
			return device.IndexFormatUint32
		}
	}
	return device.IndexFormatUint16
}

// EncodeIndices packs indices little-endian in the given format.
//
// Parameters:
//   - indices: the indices to pack
//   - format: the element width
//
// Returns:
//   - []byte: the packed bytes
func EncodeIndices(indices []uint32, format device.IndexFormat) []byte {
	out := make([]byte, len(indices)*format.Size())
	for i, idx := range indices {
		if format == device.IndexFormatUint16 {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(idx))
		} else {
			binary.LittleEndian.PutUint32(out[i*4:], idx)
		}
	}
	return out
}

// DecodeIndices unpacks little-endian indices of the given format.
//
// Parameters:
//   - raw: the packed bytes
//   - format: the element width
//
// Returns:
//   - []uint32: the unpacked indices
//   - error: an error if the byte length is not a multiple of the index width
func DecodeIndices(raw []byte, format device.IndexFormat) ([]uint32, error) {
	size := format.Size()
	if len(raw)%size != 0 {
		return nil, fmt.Errorf("index data length %d is not a multiple of %d", len(raw), size)
	}
	out := make([]uint32, len(raw)/size)
	for i := range out {
		if format == device.IndexFormatUint16 {
			out[i] = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
		} else {
			out[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
	}
	return out, nil
}

func (b *vertexBuffer) ID() device.BufferID { return b.id }
func (b *vertexBuffer) Len() int            { return b.len }
func (b *vertexBuffer) ByteSize() int       { return b.len * 4 }

func (b *indexBuffer) ID() device.BufferID        { return b.id }
func (b *indexBuffer) Len() int                   { return b.len }
func (b *indexBuffer) Format() device.IndexFormat { return b.format }
func (b *indexBuffer) ByteSize() int              { return b.len * b.format.Size() }
