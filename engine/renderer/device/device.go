// Package device defines the contract between the renderer and a concrete GPU API. A Device owns
// every GPU object it creates and hands out small integer handles to them, so that the layers above
// it never touch API specific types.
package device

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
)

// Handles to device objects. The zero value never names a live object.
type (
	ShaderID      uint32
	ProgramID     uint32
	BufferID      uint32
	VertexArrayID uint32
)

// BufferKind identifies the binding target of a buffer.
type BufferKind int

const (
	// BufferKindVertex holds per-vertex attribute data.
	BufferKindVertex BufferKind = iota

	// BufferKindIndex holds element indices.
	BufferKindIndex
)

func (k BufferKind) String() string {
	switch k {
	case BufferKindVertex:
		return "vertex"
	case BufferKindIndex:
		return "index"
	default:
		return fmt.Sprintf("BufferKind(%d)", int(k))
	}
}

// IndexFormat is the element width of an index buffer.
type IndexFormat int

const (
	// IndexFormatUint16 stores each index in two bytes.
	IndexFormatUint16 IndexFormat = iota

	// IndexFormatUint32 stores each index in four bytes.
	IndexFormatUint32
)

// Size returns the byte width of one index.
func (f IndexFormat) Size() int {
	if f == IndexFormatUint16 {
		return 2
	}
	return 4
}

func (f IndexFormat) String() string {
	if f == IndexFormatUint16 {
		return "uint16"
	}
	return "uint32"
}

// Baseline is the fixed-function state applied once when a context is acquired.
type Baseline struct {
	ClearColor common.Color
	DepthTest  bool
}

// AttributeLayout connects one program attribute location to a region of a vertex buffer.
// Components are 32-bit floats.
type AttributeLayout struct {
	Location   uint32
	Components int
	Buffer     BufferID
	// Stride is the byte distance between consecutive vertices, 0 for tightly packed.
	Stride int
	// Offset is the byte offset of the first component.
	Offset     int
	Normalized bool
}

// EffectiveStride returns the stride in bytes, resolving 0 to the tightly packed size.
func (a AttributeLayout) EffectiveStride() int {
	if a.Stride > 0 {
		return a.Stride
	}
	return a.Components * 4
}

// VertexArrayLayout is the complete input assembly state captured by a sealed binding state.
type VertexArrayLayout struct {
	Label       string
	Attributes  []AttributeLayout
	IndexBuffer BufferID
	IndexFormat IndexFormat
}

// Device is a GPU API implementation. All calls are synchronous and must be made from the thread
// that attached the device.
type Device interface {
	// Name returns a short identifier for the backend, used in logs.
	Name() string

	// Attach binds the device to a drawable. It must be called once before any other method.
	//
	// Parameters:
	//   - s: the surface to render into
	//
	// Returns:
	//   - error: an error if the device cannot render into the surface
	Attach(s surface.Surface) error

	// ApplyBaseline sets the clear color and the depth test state.
	//
	// Parameters:
	//   - b: the baseline state
	ApplyBaseline(b Baseline)

	// ClipDepthZeroToOne reports whether clip space depth spans [0, 1] rather than [-1, 1].
	//
	// Returns:
	//   - bool: true for [0, 1] clip depth
	ClipDepthZeroToOne() bool

	// Language returns the shading language CompileShader accepts.
	//
	// Returns:
	//   - shader.Language: the source language
	Language() shader.Language

	// CompileShader compiles a single shader stage.
	//
	// Parameters:
	//   - src: the shader source
	//
	// Returns:
	//   - ShaderID: the compiled shader handle
	//   - error: a *ShaderCompileError carrying the device diagnostic on failure
	CompileShader(src shader.Source) (ShaderID, error)

	// DeleteShader releases a compiled shader. Programs already linked from it are unaffected.
	//
	// Parameters:
	//   - id: the shader to release
	DeleteShader(id ShaderID)

	// LinkProgram links a vertex and a fragment shader into an executable program.
	//
	// Parameters:
	//   - vertex: a compiled vertex shader
	//   - fragment: a compiled fragment shader
	//
	// Returns:
	//   - ProgramID: the linked program handle
	//   - error: a *ProgramLinkError carrying the device diagnostic on failure
	LinkProgram(vertex, fragment ShaderID) (ProgramID, error)

	// AttributeLocation looks up the location of an active vertex attribute.
	//
	// Parameters:
	//   - p: the linked program
	//   - name: the attribute name as declared in the vertex shader
	//
	// Returns:
	//   - int32: the attribute location, or -1 if the program has no such active attribute
	AttributeLocation(p ProgramID, name string) int32

	// SetUniformMatrix4 writes a column-major 4x4 matrix to a uniform of the program.
	//
	// Parameters:
	//   - p: the linked program
	//   - name: the uniform name
	//   - m: the matrix in column-major order
	//
	// Returns:
	//   - error: an error wrapping ErrUniformNotFound if the program declares no such uniform
	SetUniformMatrix4(p ProgramID, name string, m [16]float32) error

	// CreateBuffer allocates a buffer and uploads data into it. The buffer is immutable afterwards.
	//
	// Parameters:
	//   - kind: the binding target of the buffer
	//   - data: the contents, which may be empty
	//
	// Returns:
	//   - BufferID: the buffer handle
	//   - error: an *AllocationError if the device cannot allocate the buffer
	CreateBuffer(kind BufferKind, data []byte) (BufferID, error)

	// ReadBuffer copies the contents of a buffer back to the host.
	//
	// Parameters:
	//   - id: the buffer to read
	//
	// Returns:
	//   - []byte: a copy of the buffer contents
	//   - error: ErrReadbackUnsupported on devices that cannot read buffers back
	ReadBuffer(id BufferID) ([]byte, error)

	// CreateVertexArray realizes a sealed input assembly state on the device.
	//
	// Parameters:
	//   - layout: the attribute bindings and index buffer
	//
	// Returns:
	//   - VertexArrayID: the vertex array handle
	//   - error: an error if a referenced buffer is invalid
	CreateVertexArray(layout VertexArrayLayout) (VertexArrayID, error)

	// UseProgram makes a program current for subsequent draws.
	UseProgram(p ProgramID)

	// BindVertexArray makes a vertex array current for subsequent draws, replacing the previous one.
	BindVertexArray(v VertexArrayID)

	// Clear clears the color and depth targets to the baseline values.
	Clear()

	// DrawElements draws count indices from offset 0 of the current vertex array's index buffer
	// as a triangle list, using the current program.
	//
	// Parameters:
	//   - count: the number of indices to consume
	//
	// Returns:
	//   - error: a device detected failure, such as ErrUnboundAttribute
	DrawElements(count int) error

	// Present hands the finished frame to the surface.
	//
	// Returns:
	//   - error: an error if the surface rejected the frame
	Present() error

	// Release frees every object the device created.
	Release()
}
