package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/binding_state"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
)

// Stats counts the draw traffic issued through a Renderer.
type Stats struct {
	// DrawCalls is the number of draws handed to the device.
	DrawCalls int
	// Triangles is the number of triangles assembled by those draws.
	Triangles int
	// Indices is the number of indices consumed by those draws.
	Indices int
	// Skipped is the number of draws dropped because a precondition was unmet.
	Skipped int
	// Clears is the number of color and depth clears.
	Clears int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	label            string
	dev              device.Device
	surface          surface.Surface
	baseline         device.Baseline
	strictAttributes bool

	program program.Program
	state   binding_state.BindingState
	stats   Stats

	released bool
}

// Renderer is an acquired rendering context: a device bound to one surface with its baseline state
// applied. It is passed explicitly to every setup step and tracks the single active program and the
// single active binding state used by draws.
type Renderer interface {
	// Label returns the debug label of the context.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Device returns the device the context drives.
	//
	// Returns:
	//   - device.Device: the device
	Device() device.Device

	// Surface returns the drawable the context renders into.
	//
	// Returns:
	//   - surface.Surface: the surface
	Surface() surface.Surface

	// Baseline returns the clear color and depth test state applied at acquisition.
	//
	// Returns:
	//   - device.Baseline: the baseline state
	Baseline() device.Baseline

	// ClipDepthZeroToOne reports the device's clip space depth convention.
	//
	// Returns:
	//   - bool: true when clip depth spans [0, 1], false for [-1, 1]
	ClipDepthZeroToOne() bool

	// CompileShader compiles one shader stage.
	//
	// Parameters:
	//   - src: the shader source
	//
	// Returns:
	//   - program.Shader: the compiled stage
	//   - error: a *device.ShaderCompileError carrying the device diagnostic verbatim
	CompileShader(src shader.Source) (program.Shader, error)

	// ReleaseShader discards a compiled shader. Programs already linked from it are unaffected.
	//
	// Parameters:
	//   - s: the shader to release
	ReleaseShader(s program.Shader)

	// LinkProgram links a vertex and a fragment shader. No program is returned on failure.
	//
	// Parameters:
	//   - vertex: the compiled vertex stage
	//   - fragment: the compiled fragment stage
	//
	// Returns:
	//   - program.Program: the linked program
	//   - error: a *device.ProgramLinkError carrying the device diagnostic verbatim
	LinkProgram(vertex, fragment program.Shader) (program.Program, error)

	// AttributeLocation looks up an attribute location under the context's attribute policy. By default
	// a missing attribute yields program.NotFound and no error. With the strict policy it yields an error.
	//
	// Parameters:
	//   - p: the linked program
	//   - name: the attribute name
	//
	// Returns:
	//   - int32: the location, or program.NotFound
	//   - error: an error wrapping device.ErrAttributeNotFound under the strict policy
	AttributeLocation(p program.Program, name string) (int32, error)

	// CreateVertexBuffer uploads float vertex data.
	//
	// Parameters:
	//   - data: the vertex components, possibly empty
	//
	// Returns:
	//   - buffer.VertexBuffer: the buffer
	//   - error: a *device.AllocationError on allocation failure
	CreateVertexBuffer(data []float32) (buffer.VertexBuffer, error)

	// CreateIndexBuffer uploads triangle list indices. Indices are not checked against any vertex count.
	//
	// Parameters:
	//   - data: the indices, possibly empty
	//
	// Returns:
	//   - buffer.IndexBuffer: the buffer
	//   - error: a *device.AllocationError on allocation failure
	CreateIndexBuffer(data []uint32) (buffer.IndexBuffer, error)

	// ReadVertexBuffer reads a vertex buffer back from the device.
	//
	// Parameters:
	//   - vb: the buffer
	//
	// Returns:
	//   - []float32: the stored components
	//   - error: device.ErrReadbackUnsupported on devices without readback
	ReadVertexBuffer(vb buffer.VertexBuffer) ([]float32, error)

	// ReadIndexBuffer reads an index buffer back from the device.
	//
	// Parameters:
	//   - ib: the buffer
	//
	// Returns:
	//   - []uint32: the stored indices
	//   - error: device.ErrReadbackUnsupported on devices without readback
	ReadIndexBuffer(ib buffer.IndexBuffer) ([]uint32, error)

	// BeginBindingState starts recording a binding state. Recording does not change the active state.
	//
	// Parameters:
	//   - label: a debug label
	//
	// Returns:
	//   - binding_state.BindingState: the recording state
	BeginBindingState(label string) binding_state.BindingState

	// BindBindingState makes a sealed binding state the active one, superseding the previous state.
	//
	// Parameters:
	//   - s: the sealed state
	//
	// Returns:
	//   - error: an error wrapping binding_state.ErrNotSealed if s has not been ended
	BindBindingState(s binding_state.BindingState) error

	// ActiveBindingState returns the binding state used by draws.
	//
	// Returns:
	//   - binding_state.BindingState: the active state, or nil
	ActiveBindingState() binding_state.BindingState

	// UseProgram makes a linked program the active one.
	//
	// Parameters:
	//   - p: the program
	UseProgram(p program.Program)

	// ActiveProgram returns the program used by draws.
	//
	// Returns:
	//   - program.Program: the active program, or nil
	ActiveProgram() program.Program

	// Clear clears color and depth to the baseline values.
	Clear()

	// DrawIndexedTriangles draws indexCount indices from offset 0 of the active binding state's index
	// buffer with the active program. Draws whose preconditions are unmet (no program, no binding
	// state, no index buffer, more indices than stored) are logged and skipped without error. A count
	// that is not a multiple of three draws the whole triangles it contains. A count of 0 is a no-op.
	//
	// Parameters:
	//   - indexCount: the number of indices to consume
	//
	// Returns:
	//   - error: a failure the device detected while drawing
	DrawIndexedTriangles(indexCount int) error

	// Present hands the finished frame to the surface.
	//
	// Returns:
	//   - error: an error if the surface rejected the frame
	Present() error

	// Stats returns the draw counters accumulated since acquisition.
	//
	// Returns:
	//   - Stats: a copy of the counters
	Stats() Stats

	// Release frees every device object created through the context. It is safe to call more than once.
	Release()
}

var _ Renderer = &renderer{}

// AcquireContext resolves a surface identifier, binds the device to that surface and applies the
// baseline state exactly once: the clear color and depth testing, which is on unless disabled.
//
// Parameters:
//   - dev: the device to drive
//   - surfaces: the registry the identifier is resolved against
//   - surfaceID: the opaque surface identifier
//   - options: functional options to configure the context
//
// Returns:
//   - Renderer: the acquired context
//   - error: an error wrapping device.ErrContextUnavailable if the surface is unknown or the device
//     cannot render into it
func AcquireContext(dev device.Device, surfaces *surface.Registry, surfaceID string, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:       &sync.Mutex{},
		label:    surfaceID,
		dev:      dev,
		baseline: DefaultBaseline(),
	}
	for _, opt := range options {
		opt(r)
	}

	if dev == nil {
		return nil, fmt.Errorf("%w: no device", device.ErrContextUnavailable)
	}
	if surfaces == nil {
		return nil, fmt.Errorf("%w: no surface registry", device.ErrContextUnavailable)
	}
	s, err := surfaces.Resolve(surfaceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrContextUnavailable, err)
	}
	if err := dev.Attach(s); err != nil {
		return nil, fmt.Errorf("%w: %s device on surface %q: %w", device.ErrContextUnavailable, dev.Name(), surfaceID, err)
	}
	r.surface = s
	dev.ApplyBaseline(r.baseline)

	logger.Logger().Info("rendering context acquired",
		"label", r.label,
		"device", dev.Name(),
		"surface", s.ID(),
		"width", s.Width(),
		"height", s.Height(),
		"clear_color", r.baseline.ClearColor,
		"depth_test", r.baseline.DepthTest,
	)
	return r, nil
}

func (r *renderer) Label() string {
	return r.label
}

func (r *renderer) Device() device.Device {
	return r.dev
}

func (r *renderer) Surface() surface.Surface {
	return r.surface
}

func (r *renderer) Baseline() device.Baseline {
	return r.baseline
}

func (r *renderer) ClipDepthZeroToOne() bool {
	return r.dev.ClipDepthZeroToOne()
}

func (r *renderer) CompileShader(src shader.Source) (program.Shader, error) {
	s, err := program.Compile(r.dev, src)
	if err != nil {
		logger.Logger().Error("shader compilation failed", "key", src.Key, "stage", src.Type, "error", err)
		return nil, err
	}
	return s, nil
}

func (r *renderer) ReleaseShader(s program.Shader) {
	if s != nil {
		s.Release()
	}
}

func (r *renderer) LinkProgram(vertex, fragment program.Shader) (program.Program, error) {
	p, err := program.Link(r.dev, vertex, fragment)
	if err != nil {
		logger.Logger().Error("program link failed", "error", err)
		return nil, err
	}
	logger.Logger().Info("program linked", "program", p.ID())
	return p, nil
}

func (r *renderer) AttributeLocation(p program.Program, name string) (int32, error) {
	loc := p.AttributeLocation(name)
	if loc != program.NotFound {
		logger.Logger().Debug("attribute located", "program", p.ID(), "name", name, "location", loc)
		return loc, nil
	}
	if r.strictAttributes {
		return program.NotFound, fmt.Errorf("program %d: %q: %w", p.ID(), name, device.ErrAttributeNotFound)
	}
	logger.Logger().Warn("attribute not found", "program", p.ID(), "name", name)
	return program.NotFound, nil
}

func (r *renderer) CreateVertexBuffer(data []float32) (buffer.VertexBuffer, error) {
	return buffer.NewVertexBuffer(r.dev, data)
}

func (r *renderer) CreateIndexBuffer(data []uint32) (buffer.IndexBuffer, error) {
	return buffer.NewIndexBuffer(r.dev, data)
}

func (r *renderer) ReadVertexBuffer(vb buffer.VertexBuffer) ([]float32, error) {
	return buffer.ReadVertexBuffer(r.dev, vb)
}

func (r *renderer) ReadIndexBuffer(ib buffer.IndexBuffer) ([]uint32, error) {
	return buffer.ReadIndexBuffer(r.dev, ib)
}

func (r *renderer) BeginBindingState(label string) binding_state.BindingState {
	return binding_state.Begin(r.dev, label)
}

func (r *renderer) BindBindingState(s binding_state.BindingState) error {
	if s == nil {
		return errors.New("nil binding state")
	}
	if !s.Sealed() {
		return fmt.Errorf("binding state %q: %w", s.Label(), binding_state.ErrNotSealed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.dev.BindVertexArray(s.ID())
	return nil
}

func (r *renderer) ActiveBindingState() binding_state.BindingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *renderer) UseProgram(p program.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
	if p != nil {
		r.dev.UseProgram(p.ID())
	} else {
		r.dev.UseProgram(0)
	}
}

func (r *renderer) ActiveProgram() program.Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.program
}

func (r *renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dev.Clear()
	r.stats.Clears++
}

func (r *renderer) DrawIndexedTriangles(indexCount int) error {
	if indexCount <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if skip := r.drawPrecondition(indexCount); skip != "" {
		r.stats.Skipped++
		logger.Logger().Warn("draw skipped", "reason", skip, "indices", indexCount)
		return nil
	}

	count := indexCount - indexCount%3
	if count != indexCount {
		logger.Logger().Warn("index count is not a multiple of 3, trailing indices ignored", "indices", indexCount)
	}
	if count == 0 {
		return nil
	}

	if err := r.dev.DrawElements(count); err != nil {
		return fmt.Errorf("failed to draw %d indices: %w", count, err)
	}
	r.stats.DrawCalls++
	r.stats.Indices += count
	r.stats.Triangles += count / 3
	return nil
}

func (r *renderer) Present() error {
	if err := r.dev.Present(); err != nil {
		return fmt.Errorf("failed to present to surface %q: %w", r.surface.ID(), err)
	}
	return nil
}

func (r *renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.program = nil
	r.state = nil
	r.dev.Release()
	logger.Logger().Info("rendering context released", "label", r.label)
}

// drawPrecondition must be called with mu held. It returns the reason a draw cannot proceed, or "".
func (r *renderer) drawPrecondition(indexCount int) string {
	switch {
	case r.released:
		return "context released"
	case r.program == nil:
		return "no active program"
	case r.state == nil:
		return "no active binding state"
	case r.state.IndexBuffer() == nil:
		return "active binding state has no index buffer"
	case indexCount > r.state.IndexBuffer().Len():
		return fmt.Sprintf("index buffer holds %d indices", r.state.IndexBuffer().Len())
	default:
		return ""
	}
}
