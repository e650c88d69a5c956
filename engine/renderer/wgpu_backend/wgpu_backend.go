package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/cogentcore/webgpu/wgpu"
)

// Name identifies the WebGPU backend in logs and configuration.
const Name = "wgpu"

var errReleased = errors.New("wgpu device released")

// Presentable is a surface that can hand out a native WebGPU surface descriptor, such as a window.
type Presentable interface {
	surface.Surface

	// SurfaceDescriptor returns the platform specific descriptor used to create the WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the surface is not ready
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// WGPU is a device.Device backed by wgpu-native. Buffers live in GPU memory and cannot be read back.
type WGPU interface {
	device.Device

	// Resize reconfigures the swapchain and the depth and multisample targets after the surface changed size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)
}

type compiledShader struct {
	source     shader.Source
	reflection *shader.Reflection
	module     *wgpu.ShaderModule
	// refs counts the programs holding the module. It is released once deleted and unreferenced.
	refs    int
	deleted bool
}

func (s *compiledShader) unref() {
	s.refs--
	if s.refs <= 0 && s.deleted {
		s.module.Release()
	}
}

type uniformSlot struct {
	uniform shader.Uniform
	buffer  *wgpu.Buffer
}

type linkedProgram struct {
	vertex   *compiledShader
	fragment *compiledShader
	uniforms map[string]*uniformSlot

	bindGroupLayouts []*wgpu.BindGroupLayout
	bindGroups       []*wgpu.BindGroup
	layout           *wgpu.PipelineLayout
}

type storedBuffer struct {
	kind   device.BufferKind
	buffer *wgpu.Buffer
	size   int
}

// wgpuDevice is the implementation of the WGPU interface.
type wgpuDevice struct {
	mu *sync.Mutex

	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode
	sampleCount          MSAASampleCount

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	target        surface.Surface
	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	msaaTexture   *wgpu.Texture
	msaaView      *wgpu.TextureView
	depthTexture  *wgpu.Texture
	depthView     *wgpu.TextureView

	baseline device.Baseline
	nextID   uint32
	shaders  map[device.ShaderID]*compiledShader
	programs map[device.ProgramID]*linkedProgram
	buffers  map[device.BufferID]*storedBuffer
	arrays   map[device.VertexArrayID]device.VertexArrayLayout
	cache    *pipelineCache

	program device.ProgramID
	array   device.VertexArrayID

	// clearPending makes the next pass load with a clear instead of keeping the previous contents.
	clearPending bool

	frameEncoder *wgpu.CommandEncoder
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	frameDrawn   bool

	released bool
}

var _ WGPU = &wgpuDevice{}

// NewWGPU creates a WebGPU device. The instance, adapter and device are requested on Attach, once a
// surface to present into is known. The calling goroutine is locked to its OS thread, which every
// later call must be made from.
//
// Parameters:
//   - options: functional options for device configuration
//
// Returns:
//   - WGPU: the new device
func NewWGPU(options ...WGPUBuilderOption) WGPU {
	runtime.LockOSThread()
	w := &wgpuDevice{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeFifo,
		sampleCount: MSAA4x,
		shaders:     make(map[device.ShaderID]*compiledShader),
		programs:    make(map[device.ProgramID]*linkedProgram),
		buffers:     make(map[device.BufferID]*storedBuffer),
		arrays:      make(map[device.VertexArrayID]device.VertexArrayLayout),
		cache:       newPipelineCache(),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *wgpuDevice) Name() string {
	return Name
}

func (w *wgpuDevice) Attach(s surface.Surface) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return errReleased
	}
	if w.target != nil {
		return fmt.Errorf("device already attached to surface %q", w.target.ID())
	}
	p, ok := s.(Presentable)
	if !ok {
		return fmt.Errorf("surface %q cannot present webgpu frames", s.ID())
	}
	if s.Width() <= 0 || s.Height() <= 0 {
		return fmt.Errorf("surface %q has no drawable area (%dx%d)", s.ID(), s.Width(), s.Height())
	}
	desc := p.SurfaceDescriptor()
	if desc == nil {
		return fmt.Errorf("surface %q has no native handle", s.ID())
	}

	w.instance = wgpu.CreateInstance(nil)
	w.surface = w.instance.CreateSurface(desc)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: w.forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.releaseInstanceLocked()
		return fmt.Errorf("failed to request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Mesh Device",
	})
	if err != nil {
		w.releaseInstanceLocked()
		return fmt.Errorf("failed to request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()
	w.target = s

	if err := w.configureLocked(s.Width(), s.Height()); err != nil {
		w.releaseInstanceLocked()
		w.target = nil
		return err
	}
	w.clearPending = true

	logger.Logger().Debug("wgpu device attached",
		"surface", s.ID(),
		"width", s.Width(),
		"height", s.Height(),
		"format", w.surfaceFormat,
		"msaa", uint32(w.sampleCount),
	)
	return nil
}

func (w *wgpuDevice) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device == nil || width <= 0 || height <= 0 {
		return
	}
	if err := w.configureLocked(width, height); err != nil {
		logger.Logger().Error("failed to reconfigure surface", "width", width, "height", height, "error", err)
	}
}

// configureLocked must be called with mu held.
func (w *wgpuDevice) configureLocked(width, height int) error {
	capabilities := w.surface.GetCapabilities(w.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}
	w.surfaceFormat = capabilities.Formats[0]
	if len(capabilities.AlphaModes) > 0 {
		w.alphaMode = capabilities.AlphaModes[0]
	}

	w.surface.Configure(w.adapter, w.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      w.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: w.presentMode,
		AlphaMode:   w.alphaMode,
	})

	w.releaseTargetsLocked()

	count := uint32(w.sampleCount)
	if count > 1 {
		tex, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        w.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create msaa texture: %w", err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fmt.Errorf("failed to create msaa view: %w", err)
		}
		w.msaaTexture, w.msaaView = tex, view
	}

	// Depth sample count must match the color attachment.
	depth, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	view, err := depth.CreateView(nil)
	if err != nil {
		depth.Release()
		return fmt.Errorf("failed to create depth view: %w", err)
	}
	w.depthTexture, w.depthView = depth, view

	// Pipelines bake in the color format.
	w.cache.reset()
	return nil
}

func (w *wgpuDevice) ApplyBaseline(b device.Baseline) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.baseline = b
	// Depth state is baked into pipelines.
	w.cache.reset()
}

func (w *wgpuDevice) ClipDepthZeroToOne() bool {
	return true
}

func (w *wgpuDevice) Language() shader.Language {
	return shader.LanguageWGSL
}

func (w *wgpuDevice) CompileShader(src shader.Source) (device.ShaderID, error) {
	if src.Language != shader.LanguageWGSL {
		return 0, &device.ShaderCompileError{
			Stage: src.Type,
			Key:   src.Key,
			Log:   fmt.Sprintf("webgpu compiles wgsl only, got %s", src.Language),
		}
	}
	refl, err := shader.Reflect(src)
	if err != nil {
		return 0, &device.ShaderCompileError{Stage: src.Type, Key: src.Key, Log: err.Error()}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device == nil {
		return 0, &device.ShaderCompileError{Stage: src.Type, Key: src.Key, Log: "device is not attached"}
	}
	module, err := w.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: src.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src.Code,
		},
	})
	if err != nil {
		return 0, &device.ShaderCompileError{Stage: src.Type, Key: src.Key, Log: err.Error()}
	}

	w.nextID++
	id := device.ShaderID(w.nextID)
	w.shaders[id] = &compiledShader{source: src, reflection: refl, module: module}
	return id, nil
}

func (w *wgpuDevice) DeleteShader(id device.ShaderID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.shaders[id]
	if !ok {
		return
	}
	delete(w.shaders, id)
	s.deleted = true
	if s.refs == 0 {
		s.module.Release()
	}
}

func (w *wgpuDevice) LinkProgram(vertex, fragment device.ShaderID) (device.ProgramID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	vs, ok := w.shaders[vertex]
	if !ok {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("shader %d is not a compiled shader", vertex)}
	}
	fs, ok := w.shaders[fragment]
	if !ok {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("shader %d is not a compiled shader", fragment)}
	}
	if vs.source.Type != shader.ShaderTypeVertex || fs.source.Type != shader.ShaderTypeFragment {
		return 0, &device.ProgramLinkError{Log: fmt.Sprintf("expected vertex and fragment shaders, got %s and %s", vs.source.Type, fs.source.Type)}
	}
	if problems := shader.MatchInterface(vs.reflection, fs.reflection); len(problems) > 0 {
		return 0, &device.ProgramLinkError{Log: strings.Join(problems, "\n")}
	}

	prog := &linkedProgram{
		vertex:   vs,
		fragment: fs,
		uniforms: make(map[string]*uniformSlot),
	}
	vs.refs++
	fs.refs++
	if err := w.createBindingsLocked(prog); err != nil {
		prog.release()
		return 0, &device.ProgramLinkError{Log: err.Error()}
	}

	w.nextID++
	id := device.ProgramID(w.nextID)
	w.programs[id] = prog
	return id, nil
}

// createBindingsLocked allocates one uniform buffer per declared uniform and the bind groups and
// pipeline layout that expose them. Must be called with mu held.
func (w *wgpuDevice) createBindingsLocked(prog *linkedProgram) error {
	groups := groupUniforms(prog.vertex.reflection, prog.fragment.reflection)

	prog.bindGroupLayouts = make([]*wgpu.BindGroupLayout, len(groups))
	prog.bindGroups = make([]*wgpu.BindGroup, len(groups))
	for g, bindings := range groups {
		layoutEntries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
		groupEntries := make([]wgpu.BindGroupEntry, len(bindings))
		for i, b := range bindings {
			size := uniformBufferSize(b.uniform.Size)
			buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: b.uniform.Name + " Uniform Buffer",
				Size:  size,
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return fmt.Errorf("uniform %q: %w", b.uniform.Name, err)
			}
			prog.uniforms[b.uniform.Name] = &uniformSlot{uniform: b.uniform, buffer: buf}

			layoutEntries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    b.uniform.Binding,
				Visibility: b.visibility,
			}
			layoutEntries[i].Buffer.Type = wgpu.BufferBindingTypeUniform
			layoutEntries[i].Buffer.MinBindingSize = size

			groupEntries[i] = wgpu.BindGroupEntry{
				Binding: b.uniform.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}

		layout, err := w.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("Group %d Layout", g),
			Entries: layoutEntries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		prog.bindGroupLayouts[g] = layout

		group, err := w.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("Group %d", g),
			Layout:  layout,
			Entries: groupEntries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group %d: %w", g, err)
		}
		prog.bindGroups[g] = group
	}

	layout, err := w.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            prog.vertex.source.Key + "+" + prog.fragment.source.Key,
		BindGroupLayouts: prog.bindGroupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}
	prog.layout = layout
	return nil
}

func (w *wgpuDevice) AttributeLocation(p device.ProgramID, name string) int32 {
	w.mu.Lock()
	defer w.mu.Unlock()

	prog, ok := w.programs[p]
	if !ok {
		return -1
	}
	in, ok := prog.vertex.reflection.Input(name)
	if !ok {
		return -1
	}
	return int32(in.Location)
}

func (w *wgpuDevice) SetUniformMatrix4(p device.ProgramID, name string, m [16]float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	prog, ok := w.programs[p]
	if !ok {
		return fmt.Errorf("program %d: %w", p, device.ErrInvalidHandle)
	}
	slot, ok := prog.uniforms[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, device.ErrUniformNotFound)
	}
	w.queue.WriteBuffer(slot.buffer, 0, common.SliceToBytes(m[:]))
	return nil
}

func (w *wgpuDevice) CreateBuffer(kind device.BufferKind, data []byte) (device.BufferID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: errReleased}
	}
	if w.device == nil {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: errors.New("device is not attached")}
	}

	usage := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	if kind == device.BufferKindIndex {
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	}

	// Queue writes must be 4 byte aligned, which odd uint16 index counts are not.
	padded := alignedCopy(data)
	buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: kind.String() + " buffer",
		Size:  uint64(len(padded)),
		Usage: usage,
	})
	if err != nil {
		return 0, &device.AllocationError{Kind: kind, Size: len(data), Err: fmt.Errorf("%w: %w", device.ErrOutOfMemory, err)}
	}
	w.queue.WriteBuffer(buf, 0, padded)

	w.nextID++
	id := device.BufferID(w.nextID)
	w.buffers[id] = &storedBuffer{kind: kind, buffer: buf, size: len(data)}
	return id, nil
}

func (w *wgpuDevice) ReadBuffer(id device.BufferID) ([]byte, error) {
	return nil, fmt.Errorf("%s buffer %d: %w", Name, id, device.ErrReadbackUnsupported)
}

func (w *wgpuDevice) CreateVertexArray(layout device.VertexArrayLayout) (device.VertexArrayID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, a := range layout.Attributes {
		b, ok := w.buffers[a.Buffer]
		if !ok || b.kind != device.BufferKindVertex {
			return 0, fmt.Errorf("attribute %d buffer %d: %w", a.Location, a.Buffer, device.ErrInvalidHandle)
		}
	}
	if layout.IndexBuffer != 0 {
		b, ok := w.buffers[layout.IndexBuffer]
		if !ok || b.kind != device.BufferKindIndex {
			return 0, fmt.Errorf("index buffer %d: %w", layout.IndexBuffer, device.ErrInvalidHandle)
		}
	}

	w.nextID++
	id := device.VertexArrayID(w.nextID)
	w.arrays[id] = layout
	return id, nil
}

func (w *wgpuDevice) UseProgram(p device.ProgramID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.program = p
}

func (w *wgpuDevice) BindVertexArray(v device.VertexArrayID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.array = v
}

func (w *wgpuDevice) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearPending = true
}

func (w *wgpuDevice) DrawElements(count int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return errReleased
	}
	prog, ok := w.programs[w.program]
	if !ok {
		return fmt.Errorf("current program %d: %w", w.program, device.ErrInvalidHandle)
	}
	layout, ok := w.arrays[w.array]
	if !ok {
		return fmt.Errorf("current vertex array %d: %w", w.array, device.ErrInvalidHandle)
	}
	ib, ok := w.buffers[layout.IndexBuffer]
	if !ok {
		return errors.New("current vertex array has no index buffer")
	}
	if available := ib.size / layout.IndexFormat.Size(); count > available {
		return fmt.Errorf("draw of %d indices exceeds the %d in the index buffer", count, available)
	}
	if missing := unboundInputs(prog.vertex.reflection, layout); len(missing) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(missing, ", "), device.ErrUnboundAttribute)
	}

	rp, err := w.cache.get(pipelineKey{program: w.program, array: w.array}, func() (*wgpu.RenderPipeline, error) {
		return w.createPipelineLocked(prog, layout)
	})
	if err != nil {
		return err
	}

	if err := w.beginFrameLocked(); err != nil {
		return err
	}
	pass := w.frameEncoder.BeginRenderPass(w.passDescriptorLocked())
	pass.SetPipeline(rp)
	for g, bg := range prog.bindGroups {
		pass.SetBindGroup(uint32(g), bg, nil)
	}
	for slot, a := range layout.Attributes {
		_, offset := attributeOffsets(a)
		pass.SetVertexBuffer(uint32(slot), w.buffers[a.Buffer].buffer, offset, wgpu.WholeSize)
	}
	pass.SetIndexBuffer(ib.buffer, indexFormat(layout.IndexFormat), 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(count), 1, 0, 0, 0)
	pass.End()
	pass.Release()

	w.clearPending = false
	w.frameDrawn = true
	return nil
}

// beginFrameLocked acquires the swapchain texture and a command encoder for the current frame if
// the frame has not been started yet. Must be called with mu held.
func (w *wgpuDevice) beginFrameLocked() error {
	if w.frameEncoder != nil {
		return nil
	}
	if w.surface == nil {
		return errors.New("device is not attached")
	}

	tex, err := w.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("failed to acquire swapchain texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create swapchain view: %w", err)
	}
	encoder, err := w.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("failed to create command encoder: %w", err)
	}

	w.frameTexture = tex
	w.frameView = view
	w.frameEncoder = encoder
	w.frameDrawn = false
	return nil
}

// passDescriptorLocked builds the render pass for the current frame. With MSAA the multisample
// texture is drawn into and resolved to the swapchain view. Must be called with mu held.
func (w *wgpuDevice) passDescriptorLocked() *wgpu.RenderPassDescriptor {
	loadOp := wgpu.LoadOpLoad
	if w.clearPending || !w.frameDrawn {
		loadOp = wgpu.LoadOpClear
	}

	color := wgpu.RenderPassColorAttachment{
		View:       w.frameView,
		LoadOp:     loadOp,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clearValue(w.baseline.ClearColor),
	}
	if w.sampleCount > 1 {
		color.View = w.msaaView
		color.ResolveTarget = w.frameView
	}

	return &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            w.depthView,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}
}

func (w *wgpuDevice) Present() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return errReleased
	}

	// A frame without draws still shows the clear color.
	if w.frameEncoder == nil {
		if err := w.beginFrameLocked(); err != nil {
			return err
		}
	}
	if !w.frameDrawn {
		pass := w.frameEncoder.BeginRenderPass(w.passDescriptorLocked())
		pass.End()
		pass.Release()
	}

	cb, err := w.frameEncoder.Finish(nil)
	if err != nil {
		w.endFrameLocked()
		return fmt.Errorf("failed to finish frame: %w", err)
	}
	w.queue.Submit(cb)
	cb.Release()

	w.surface.Present()
	w.endFrameLocked()
	w.clearPending = false
	return nil
}

// endFrameLocked releases the per-frame objects. Must be called with mu held.
func (w *wgpuDevice) endFrameLocked() {
	if w.frameEncoder != nil {
		w.frameEncoder.Release()
		w.frameEncoder = nil
	}
	if w.frameView != nil {
		w.frameView.Release()
		w.frameView = nil
	}
	if w.frameTexture != nil {
		w.frameTexture.Release()
		w.frameTexture = nil
	}
	w.frameDrawn = false
}

func (w *wgpuDevice) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return
	}
	w.released = true

	w.endFrameLocked()
	w.cache.reset()
	for id, p := range w.programs {
		p.release()
		delete(w.programs, id)
	}
	for id, s := range w.shaders {
		s.deleted = true
		if s.refs == 0 {
			s.module.Release()
		}
		delete(w.shaders, id)
	}
	for id, b := range w.buffers {
		b.buffer.Release()
		delete(w.buffers, id)
	}
	clear(w.arrays)
	w.releaseTargetsLocked()
	w.releaseInstanceLocked()
	logger.Logger().Debug("wgpu device released")
}

// releaseTargetsLocked must be called with mu held.
func (w *wgpuDevice) releaseTargetsLocked() {
	if w.msaaView != nil {
		w.msaaView.Release()
		w.msaaView = nil
	}
	if w.msaaTexture != nil {
		w.msaaTexture.Release()
		w.msaaTexture = nil
	}
	if w.depthView != nil {
		w.depthView.Release()
		w.depthView = nil
	}
	if w.depthTexture != nil {
		w.depthTexture.Release()
		w.depthTexture = nil
	}
}

// releaseInstanceLocked must be called with mu held.
func (w *wgpuDevice) releaseInstanceLocked() {
	if w.queue != nil {
		w.queue.Release()
		w.queue = nil
	}
	if w.device != nil {
		w.device.Release()
		w.device = nil
	}
	if w.adapter != nil {
		w.adapter.Release()
		w.adapter = nil
	}
	if w.surface != nil {
		w.surface.Release()
		w.surface = nil
	}
	if w.instance != nil {
		w.instance.Release()
		w.instance = nil
	}
}

func (p *linkedProgram) release() {
	if p.layout != nil {
		p.layout.Release()
	}
	for _, g := range p.bindGroups {
		if g != nil {
			g.Release()
		}
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	for _, u := range p.uniforms {
		u.buffer.Release()
	}
	p.vertex.unref()
	p.fragment.unref()
}
