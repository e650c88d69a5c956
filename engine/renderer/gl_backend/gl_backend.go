package gl_backend

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Name identifies the OpenGL backend in logs and configuration.
const Name = "opengl"

var errReleased = errors.New("opengl device released")

// ContextSurface is a surface that owns an OpenGL context, such as a window created with an
// OpenGL client API.
type ContextSurface interface {
	surface.Surface

	// MakeContextCurrent binds the surface's OpenGL context to the calling thread.
	MakeContextCurrent()

	// SwapBuffers presents the back buffer.
	SwapBuffers()
}

// GL is a device.Device backed by an OpenGL 4.1 core profile context.
type GL interface {
	device.Device

	// Resize updates the viewport after the surface changed size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)
}

type glShader struct {
	handle uint32
	typ    shader.ShaderType
	key    string
}

type glProgram struct {
	handle uint32
	// attributes maps active attribute names to their locations.
	attributes map[string]int32
}

type glBuffer struct {
	handle uint32
	kind   device.BufferKind
	size   int
}

type glVertexArray struct {
	handle uint32
	layout device.VertexArrayLayout
}

// glDevice is the implementation of the GL interface.
type glDevice struct {
	mu *sync.Mutex

	checkErrors bool

	target ContextSurface

	nextID   uint32
	shaders  map[device.ShaderID]*glShader
	programs map[device.ProgramID]*glProgram
	buffers  map[device.BufferID]*glBuffer
	arrays   map[device.VertexArrayID]*glVertexArray

	program device.ProgramID
	array   device.VertexArrayID

	released bool
}

var _ GL = &glDevice{}

// NewGL creates an OpenGL device. Function pointers are loaded on Attach, once the surface's context
// is current. The calling goroutine is locked to its OS thread, which every later call must be
// made from.
//
// Parameters:
//   - options: functional options for device configuration
//
// Returns:
//   - GL: the new device
func NewGL(options ...GLBuilderOption) GL {
	runtime.LockOSThread()
	d := &glDevice{
		mu:       &sync.Mutex{},
		shaders:  make(map[device.ShaderID]*glShader),
		programs: make(map[device.ProgramID]*glProgram),
		buffers:  make(map[device.BufferID]*glBuffer),
		arrays:   make(map[device.VertexArrayID]*glVertexArray),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *glDevice) Name() string {
	return Name
}

func (d *glDevice) Attach(s surface.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return errReleased
	}
	if d.target != nil {
		return fmt.Errorf("device already attached to surface %q", d.target.ID())
	}
	cs, ok := s.(ContextSurface)
	if !ok {
		return fmt.Errorf("surface %q has no opengl context", s.ID())
	}
	if s.Width() <= 0 || s.Height() <= 0 {
		return fmt.Errorf("surface %q has no drawable area (%dx%d)", s.ID(), s.Width(), s.Height())
	}

	cs.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to load opengl functions: %w", err)
	}
	d.target = cs
	gl.Viewport(0, 0, int32(s.Width()), int32(s.Height()))

	logger.Logger().Debug("opengl device attached",
		"surface", s.ID(),
		"width", s.Width(),
		"height", s.Height(),
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)
	return nil
}

func (d *glDevice) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.target == nil || width <= 0 || height <= 0 {
		return
	}
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *glDevice) ApplyBaseline(b device.Baseline) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gl.ClearColor(b.ClearColor.R, b.ClearColor.G, b.ClearColor.B, b.ClearColor.A)
	gl.ClearDepth(1)
	if b.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if err := d.check("apply baseline"); err != nil {
		logger.Logger().Warn("baseline not applied", "error", err)
	}
}

func (d *glDevice) ClipDepthZeroToOne() bool {
	return false
}

func (d *glDevice) Language() shader.Language {
	return shader.LanguageGLSL
}

func (d *glDevice) CompileShader(src shader.Source) (device.ShaderID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if src.Language != shader.LanguageGLSL {
		return 0, &device.ShaderCompileError{
			Stage: src.Type,
			Key:   src.Key,
			Log:   fmt.Sprintf("opengl compiles glsl only, got %s", src.Language),
		}
	}
	if d.target == nil {
		return 0, &device.ShaderCompileError{Stage: src.Type, Key: src.Key, Log: "device is not attached"}
	}

	handle := gl.CreateShader(shaderType(src.Type))
	csources, free := gl.Strs(cString(src.Code))
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, &device.ShaderCompileError{Stage: src.Type, Key: src.Key, Log: trimLog(msg)}
	}

	d.nextID++
	id := device.ShaderID(d.nextID)
	d.shaders[id] = &glShader{handle: handle, typ: src.Type, key: src.Key}
	return id, nil
}

func (d *glDevice) DeleteShader(id device.ShaderID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.shaders[id]
	if !ok {
		return
	}
	gl.DeleteShader(s.handle)
	delete(d.shaders, id)
}

func (d *glDevice) LinkProgram(vertex, fragment device.ShaderID) (device.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	vs, ok := d.shaders[vertex]
	if !ok {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("shader %d is not a compiled shader", vertex)}
	}
	fs, ok := d.shaders[fragment]
	if !ok {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("shader %d is not a compiled shader", fragment)}
	}
	if vs.typ != shader.ShaderTypeVertex || fs.typ != shader.ShaderTypeFragment {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("expected vertex and fragment shaders, got %s and %s", vs.typ, fs.typ)}
	}

	handle := gl.CreateProgram()
	gl.AttachShader(handle, vs.handle)
	gl.AttachShader(handle, fs.handle)
	gl.LinkProgram(handle)
	gl.DetachShader(handle, vs.handle)
	gl.DetachShader(handle, fs.handle)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return 0, &device.ProgramLinkError{Log: trimLog(msg)}
	}

	d.nextID++
	id := device.ProgramID(d.nextID)
	d.programs[id] = &glProgram{handle: handle, attributes: activeAttributes(handle)}
	return id, nil
}

// activeAttributes lists the attributes the linker kept, keyed by name.
func activeAttributes(program uint32) map[string]int32 {
	var count, maxLength int32
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTES, &count)
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLength)

	out := make(map[string]int32, count)
	buf := make([]uint8, maxLength+1)
	for i := range uint32(count) {
		var length, size int32
		var xtype uint32
		gl.GetActiveAttrib(program, i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		out[name] = gl.GetAttribLocation(program, gl.Str(cString(name)))
	}
	return out
}

func (d *glDevice) AttributeLocation(p device.ProgramID, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	prog, ok := d.programs[p]
	if !ok {
		return -1
	}
	loc, ok := prog.attributes[name]
	if !ok {
		return -1
	}
	return loc
}

func (d *glDevice) SetUniformMatrix4(p device.ProgramID, name string, m [16]float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prog, ok := d.programs[p]
	if !ok {
		return fmt.Errorf("program %d: %w", p, device.ErrInvalidHandle)
	}
	loc := gl.GetUniformLocation(prog.handle, gl.Str(cString(name)))
	if loc < 0 {
		return fmt.Errorf("%q: %w", name, device.ErrUniformNotFound)
	}
	gl.ProgramUniformMatrix4fv(prog.handle, loc, 1, false, &m[0])
	return d.check("set uniform " + name)
}

func (d *glDevice) CreateBuffer(kind device.BufferKind, data []byte) (device.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: errReleased}
	}
	if d.target == nil {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: errors.New("device is not attached")}
	}

	var handle uint32
	gl.GenBuffers(1, &handle)
	// Uploads go through the copy target so the element binding of the current vertex array is
	// left alone.
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, handle)
	if len(data) > 0 {
		gl.BufferData(gl.COPY_WRITE_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	} else {
		gl.BufferData(gl.COPY_WRITE_BUFFER, 0, nil, gl.STATIC_DRAW)
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &handle)
		err := fmt.Errorf("opengl error %s", errorName(code))
		if code == gl.OUT_OF_MEMORY {
			err = device.ErrOutOfMemory
		}
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: err}
	}

	d.nextID++
	id := device.BufferID(d.nextID)
	d.buffers[id] = &glBuffer{handle: handle, kind: kind, size: len(data)}
	return id, nil
}

func (d *glDevice) ReadBuffer(id device.BufferID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w", id, device.ErrInvalidHandle)
	}
	out := make([]byte, b.size)
	if b.size == 0 {
		return out, nil
	}
	gl.BindBuffer(gl.COPY_READ_BUFFER, b.handle)
	gl.GetBufferSubData(gl.COPY_READ_BUFFER, 0, b.size, gl.Ptr(out))
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	if err := d.check("read buffer"); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *glDevice) CreateVertexArray(layout device.VertexArrayLayout) (device.VertexArrayID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range layout.Attributes {
		b, ok := d.buffers[a.Buffer]
		if !ok || b.kind != device.BufferKindVertex {
			return 0, fmt.Errorf("attribute %d buffer %d: %w", a.Location, a.Buffer, device.ErrInvalidHandle)
		}
	}
	var ib *glBuffer
	if layout.IndexBuffer != 0 {
		b, ok := d.buffers[layout.IndexBuffer]
		if !ok || b.kind != device.BufferKindIndex {
			return 0, fmt.Errorf("index buffer %d: %w", layout.IndexBuffer, device.ErrInvalidHandle)
		}
		ib = b
	}

	var handle uint32
	gl.GenVertexArrays(1, &handle)
	gl.BindVertexArray(handle)
	for _, a := range layout.Attributes {
		gl.BindBuffer(gl.ARRAY_BUFFER, d.buffers[a.Buffer].handle)
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Components), gl.FLOAT, a.Normalized, int32(a.Stride), uintptr(a.Offset))
	}
	if ib != nil {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.handle)
	}

	// Recording must not disturb the active vertex array.
	if current, ok := d.arrays[d.array]; ok {
		gl.BindVertexArray(current.handle)
	} else {
		gl.BindVertexArray(0)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if err := d.check("create vertex array"); err != nil {
		gl.DeleteVertexArrays(1, &handle)
		return 0, err
	}

	d.nextID++
	id := device.VertexArrayID(d.nextID)
	d.arrays[id] = &glVertexArray{handle: handle, layout: layout}
	return id, nil
}

func (d *glDevice) UseProgram(p device.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.program = p
	if prog, ok := d.programs[p]; ok {
		gl.UseProgram(prog.handle)
	} else {
		gl.UseProgram(0)
	}
}

func (d *glDevice) BindVertexArray(v device.VertexArrayID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.array = v
	if va, ok := d.arrays[v]; ok {
		gl.BindVertexArray(va.handle)
	} else {
		gl.BindVertexArray(0)
	}
}

func (d *glDevice) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *glDevice) DrawElements(count int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return errReleased
	}
	prog, ok := d.programs[d.program]
	if !ok {
		return fmt.Errorf("current program %d: %w", d.program, device.ErrInvalidHandle)
	}
	va, ok := d.arrays[d.array]
	if !ok {
		return fmt.Errorf("current vertex array %d: %w", d.array, device.ErrInvalidHandle)
	}
	ib, ok := d.buffers[va.layout.IndexBuffer]
	if !ok {
		return errors.New("current vertex array has no index buffer")
	}
	if available := ib.size / va.layout.IndexFormat.Size(); count > available {
		return fmt.Errorf("draw of %d indices exceeds the %d in the index buffer", count, available)
	}

	bound := make(map[int32]bool, len(va.layout.Attributes))
	for _, a := range va.layout.Attributes {
		bound[int32(a.Location)] = true
	}
	for name, loc := range prog.attributes {
		if !bound[loc] {
			return fmt.Errorf("%q at location %d: %w", name, loc, device.ErrUnboundAttribute)
		}
	}

	gl.DrawElements(gl.TRIANGLES, int32(count), indexType(va.layout.IndexFormat), gl.PtrOffset(0))
	return d.check("draw elements")
}

func (d *glDevice) Present() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return errReleased
	}
	if d.target == nil {
		return errors.New("device is not attached")
	}
	d.target.SwapBuffers()
	return nil
}

func (d *glDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return
	}
	d.released = true
	if d.target == nil {
		return
	}

	gl.BindVertexArray(0)
	gl.UseProgram(0)
	for id, va := range d.arrays {
		gl.DeleteVertexArrays(1, &va.handle)
		delete(d.arrays, id)
	}
	for id, b := range d.buffers {
		gl.DeleteBuffers(1, &b.handle)
		delete(d.buffers, id)
	}
	for id, p := range d.programs {
		gl.DeleteProgram(p.handle)
		delete(d.programs, id)
	}
	for id, s := range d.shaders {
		gl.DeleteShader(s.handle)
		delete(d.shaders, id)
	}
	logger.Logger().Debug("opengl device released")
}

// check drains the GL error queue when error checking is enabled. Must be called with mu held.
func (d *glDevice) check(op string) error {
	if !d.checkErrors {
		return nil
	}
	var names []string
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		names = append(names, errorName(code))
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%s: opengl error %s", op, strings.Join(names, ", "))
}
