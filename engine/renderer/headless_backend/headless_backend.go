// Package headless_backend implements device.Device in host memory. It compiles WGSL through naga for
// diagnostics and reflection, keeps buffers as byte slices and rasterizes indexed triangle lists into
// an RGBA8 color target with a float depth target.
package headless_backend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
)

// Name is the backend identifier reported by Device.Name.
const Name = "headless"

var errReleased = errors.New("headless device released")

// Headless is a software device. Besides device.Device it exposes its render targets for inspection.
type Headless interface {
	device.Device

	// Pixel returns the color target value at a pixel, with (0, 0) the top left corner.
	//
	// Parameters:
	//   - x: the column
	//   - y: the row
	//
	// Returns:
	//   - [4]uint8: the RGBA value, zero outside the target
	Pixel(x, y int) [4]uint8

	// Depth returns the depth target value at a pixel.
	//
	// Parameters:
	//   - x: the column
	//   - y: the row
	//
	// Returns:
	//   - float32: the depth in [0, 1], 1 outside the target
	Depth(x, y int) float32

	// Image copies the color target as of the last Present.
	//
	// Returns:
	//   - *image.RGBA: the presented frame, nil before the first Present
	Image() *image.RGBA

	// Frames returns how many frames have been presented.
	//
	// Returns:
	//   - int: the present count
	Frames() int

	// MemoryUsed returns the total bytes of live buffer storage.
	//
	// Returns:
	//   - int: the allocated bytes
	MemoryUsed() int
}

type compiledShader struct {
	source     shader.Source
	reflection *shader.Reflection
}

type linkedProgram struct {
	vertex   *shader.Reflection
	fragment *shader.Reflection
	uniforms map[string][16]float32
}

type storedBuffer struct {
	kind device.BufferKind
	data []byte
}

type headless struct {
	mu       sync.Mutex
	released bool

	workers           int
	memoryLimit       int
	memoryUsed        int
	positionAttribute string
	colorAttribute    string
	transformUniform  string

	surface  surface.Surface
	width    int
	height   int
	baseline device.Baseline
	color    []uint8
	depth    []float32
	frame    *image.RGBA
	frames   int

	nextID   uint32
	shaders  map[device.ShaderID]*compiledShader
	programs map[device.ProgramID]*linkedProgram
	buffers  map[device.BufferID]*storedBuffer
	arrays   map[device.VertexArrayID]device.VertexArrayLayout

	program device.ProgramID
	array   device.VertexArrayID

	pool worker.DynamicWorkerPool
}

var _ Headless = &headless{}

// NewHeadless creates a software device with all specified options applied. The device is unusable
// until Attach is called.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - Headless: the new device
func NewHeadless(options ...HeadlessBuilderOption) Headless {
	h := &headless{
		workers:           4,
		positionAttribute: "vertexPosition",
		colorAttribute:    "vertexColor",
		transformUniform:  "modelViewProjection",
		baseline:          device.Baseline{ClearColor: common.Black},
		shaders:           make(map[device.ShaderID]*compiledShader),
		programs:          make(map[device.ProgramID]*linkedProgram),
		buffers:           make(map[device.BufferID]*storedBuffer),
		arrays:            make(map[device.VertexArrayID]device.VertexArrayLayout),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *headless) Name() string {
	return Name
}

func (h *headless) Attach(s surface.Surface) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return errReleased
	}
	if s == nil {
		return errors.New("nil surface")
	}
	if s.Width() <= 0 || s.Height() <= 0 {
		return fmt.Errorf("surface %q has no drawable area (%dx%d)", s.ID(), s.Width(), s.Height())
	}
	if h.surface != nil {
		return fmt.Errorf("device already attached to surface %q", h.surface.ID())
	}

	h.surface = s
	h.width, h.height = s.Width(), s.Height()
	h.color = make([]uint8, h.width*h.height*4)
	h.depth = make([]float32, h.width*h.height)
	h.pool = worker.NewDynamicWorkerPool(h.workers, h.workers, time.Second)
	h.clearLocked()
	logger.Logger().Debug("headless device attached", "surface", s.ID(), "width", h.width, "height", h.height, "workers", h.workers)
	return nil
}

func (h *headless) ApplyBaseline(b device.Baseline) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.baseline = b
}

func (h *headless) ClipDepthZeroToOne() bool {
	return false
}

func (h *headless) Language() shader.Language {
	return shader.LanguageWGSL
}

func (h *headless) CompileShader(src shader.Source) (device.ShaderID, error) {
	if src.Language != shader.LanguageWGSL {
		return 0, &device.ShaderCompileError{
			Stage: src.Type,
			Key:   src.Key,
			Log:   fmt.Sprintf("headless device compiles wgsl only, got %s", src.Language),
		}
	}
	refl, err := shader.Reflect(src)
	if err != nil {
		return 0, &device.ShaderCompileError{Stage: src.Type, Key: src.Key, Log: err.Error()}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := device.ShaderID(h.nextID)
	h.shaders[id] = &compiledShader{source: src, reflection: refl}
	return id, nil
}

func (h *headless) DeleteShader(id device.ShaderID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.shaders, id)
}

func (h *headless) LinkProgram(vertex, fragment device.ShaderID) (device.ProgramID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	vs, ok := h.shaders[vertex]
	if !ok {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("shader %d is not a compiled shader", vertex)}
	}
	fs, ok := h.shaders[fragment]
	if !ok {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("shader %d is not a compiled shader", fragment)}
	}
	if vs.source.Type != shader.ShaderTypeVertex || fs.source.Type != shader.ShaderTypeFragment {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("expected vertex and fragment shaders, got %s and %s", vs.source.Type, fs.source.Type)}
	}
	if problems := shader.MatchInterface(vs.reflection, fs.reflection); len(problems) > 0 {
		return 0, &device.ProgramLinkError{Log: strings.Join(problems, "\n")}
	}

	h.nextID++
	id := device.ProgramID(h.nextID)
	h.programs[id] = &linkedProgram{
		vertex:   vs.reflection,
		fragment: fs.reflection,
		uniforms: make(map[string][16]float32),
	}
	return id, nil
}

func (h *headless) AttributeLocation(p device.ProgramID, name string) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	prog, ok := h.programs[p]
	if !ok {
		return -1
	}
	in, ok := prog.vertex.Input(name)
	if !ok {
		return -1
	}
	return int32(in.Location)
}

func (h *headless) SetUniformMatrix4(p device.ProgramID, name string, m [16]float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	prog, ok := h.programs[p]
	if !ok {
		return fmt.Errorf("program %d: %w", p, device.ErrInvalidHandle)
	}
	if _, ok := prog.vertex.Uniform(name); !ok {
		if _, ok := prog.fragment.Uniform(name); !ok {
			return fmt.Errorf("%q: %w", name, device.ErrUniformNotFound)
		}
	}
	prog.uniforms[name] = m
	return nil
}

func (h *headless) CreateBuffer(kind device.BufferKind, data []byte) (device.BufferID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: errReleased}
	}
	if h.memoryLimit > 0 && h.memoryUsed+len(data) > h.memoryLimit {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: device.ErrOutOfMemory}
	}

	h.memoryUsed += len(data)
	h.nextID++
	id := device.BufferID(h.nextID)
	h.buffers[id] = &storedBuffer{kind: kind, data: append([]byte(nil), data...)}
	return id, nil
}

func (h *headless) ReadBuffer(id device.BufferID) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.buffers[id]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w", id, device.ErrInvalidHandle)
	}
	return append([]byte(nil), b.data...), nil
}

func (h *headless) CreateVertexArray(layout device.VertexArrayLayout) (device.VertexArrayID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, a := range layout.Attributes {
		b, ok := h.buffers[a.Buffer]
		if !ok || b.kind != device.BufferKindVertex {
			return 0, fmt.Errorf("attribute %d: vertex buffer %d: %w", a.Location, a.Buffer, device.ErrInvalidHandle)
		}
	}
	if layout.IndexBuffer != 0 {
		b, ok := h.buffers[layout.IndexBuffer]
		if !ok || b.kind != device.BufferKindIndex {
			return 0, fmt.Errorf("index buffer %d: %w", layout.IndexBuffer, device.ErrInvalidHandle)
		}
	}

	h.nextID++
	id := device.VertexArrayID(h.nextID)
	layout.Attributes = append([]device.AttributeLayout(nil), layout.Attributes...)
	h.arrays[id] = layout
	return id, nil
}

func (h *headless) UseProgram(p device.ProgramID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.program = p
}

func (h *headless) BindVertexArray(v device.VertexArrayID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.array = v
}

func (h *headless) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
}

func (h *headless) DrawElements(count int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return errReleased
	}
	if h.surface == nil {
		return errors.New("device is not attached")
	}
	prog, ok := h.programs[h.program]
	if !ok {
		return fmt.Errorf("current program %d: %w", h.program, device.ErrInvalidHandle)
	}
	layout, ok := h.arrays[h.array]
	if !ok {
		return fmt.Errorf("current vertex array %d: %w", h.array, device.ErrInvalidHandle)
	}
	ib, ok := h.buffers[layout.IndexBuffer]
	if !ok {
		return errors.New("current vertex array has no index buffer")
	}

	available := len(ib.data) / layout.IndexFormat.Size()
	if count > available {
		return fmt.Errorf("draw of %d indices exceeds the %d in the index buffer", count, available)
	}

	attributes := make(map[uint32]device.AttributeLayout, len(layout.Attributes))
	for _, a := range layout.Attributes {
		attributes[a.Location] = a
	}
	for _, in := range prog.vertex.Inputs {
		if _, ok := attributes[in.Location]; !ok {
			return fmt.Errorf("%q at location %d: %w", in.Name, in.Location, device.ErrUnboundAttribute)
		}
	}

	transform, ok := prog.uniforms[h.transformUniform]
	if !ok {
		transform = identity
	}

	triangles := make([]triangle, 0, count/3)
	for t := 0; t+3 <= count; t += 3 {
		var tri triangle
		for k := range 3 {
			idx := readIndex(ib.data, t+k, layout.IndexFormat)
			tri[k] = h.shadeVertex(prog, attributes, idx, transform)
		}
		triangles = append(triangles, tri)
	}

	h.rasterize(triangles)
	return nil
}

func (h *headless) Present() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.surface == nil {
		return errors.New("device is not attached")
	}
	if h.frame == nil {
		h.frame = image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	}
	copy(h.frame.Pix, h.color)
	h.frames++
	return nil
}

func (h *headless) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	if h.pool != nil {
		h.pool.Stop()
	}
	h.shaders = map[device.ShaderID]*compiledShader{}
	h.programs = map[device.ProgramID]*linkedProgram{}
	h.buffers = map[device.BufferID]*storedBuffer{}
	h.arrays = map[device.VertexArrayID]device.VertexArrayLayout{}
	h.memoryUsed = 0
}

func (h *headless) Pixel(x, y int) [4]uint8 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if x < 0 || y < 0 || x >= h.width || y >= h.height {
		return [4]uint8{}
	}
	i := (y*h.width + x) * 4
	return [4]uint8{h.color[i], h.color[i+1], h.color[i+2], h.color[i+3]}
}

func (h *headless) Depth(x, y int) float32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if x < 0 || y < 0 || x >= h.width || y >= h.height {
		return 1
	}
	return h.depth[y*h.width+x]
}

func (h *headless) Image() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frame == nil {
		return nil
	}
	out := image.NewRGBA(h.frame.Rect)
	copy(out.Pix, h.frame.Pix)
	return out
}

func (h *headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

func (h *headless) MemoryUsed() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.memoryUsed
}

// clearLocked must be called with mu held.
func (h *headless) clearLocked() {
	c := h.baseline.ClearColor.RGBA8()
	for i := 0; i < len(h.color); i += 4 {
		copy(h.color[i:i+4], c[:])
	}
	for i := range h.depth {
		h.depth[i] = 1
	}
}

// shadeVertex runs the fixed vertex model: position times the transform uniform, color passed through.
// Missing components default to 0, with w and alpha defaulting to 1.
func (h *headless) shadeVertex(prog *linkedProgram, attributes map[uint32]device.AttributeLayout, idx uint32, transform [16]float32) vertex {
	position := [4]float32{0, 0, 0, 1}
	color := [4]float32{1, 1, 1, 1}

	if in, ok := prog.vertex.Input(h.positionAttribute); ok {
		h.fetch(attributes[in.Location], idx, position[:])
	}
	if in, ok := prog.vertex.Input(h.colorAttribute); ok {
		h.fetch(attributes[in.Location], idx, color[:])
	}

	var clip [4]float32
	for row := range 4 {
		for col := range 4 {
			clip[row] += transform[col*4+row] * position[col]
		}
	}
	return vertex{clip: clip, color: color}
}

// fetch reads one vertex worth of float components into dst. Reads past the end of the buffer
// leave dst untouched.
func (h *headless) fetch(a device.AttributeLayout, idx uint32, dst []float32) {
	b, ok := h.buffers[a.Buffer]
	if !ok {
		return
	}
	base := a.Offset + int(idx)*a.EffectiveStride()
	for c := 0; c < a.Components && c < len(dst); c++ {
		at := base + c*4
		if at < 0 || at+4 > len(b.data) {
			return
		}
		dst[c] = math.Float32frombits(binary.LittleEndian.Uint32(b.data[at:]))
	}
}

func readIndex(data []byte, i int, format device.IndexFormat) uint32 {
	if format == device.IndexFormatUint16 {
		return uint32(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return binary.LittleEndian.Uint32(data[i*4:])
}

var identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}
