package engine

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/assets"
	"github.com/Carmen-Shannon/oxy-mesh/engine/camera"
	"github.com/Carmen-Shannon/oxy-mesh/engine/config"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/binding_state"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/scene"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
)

// Attribute names the vertex stage must declare.
const (
	PositionAttribute = "vertexPosition"
	ColorAttribute    = "vertexColor"
)

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	dev       device.Device
	surfaces  *surface.Registry
	surfaceID string

	model            model.Model
	validateGeometry bool
	vertexSource     *shader.Source
	fragmentSource   *shader.Source
	configurator     scene.Configurator
	rendererOptions  []renderer.RendererBuilderOption

	profiler         *profiler.Profiler
	profilingEnabled bool

	state     State
	setupErr  error
	r         renderer.Renderer
	program   program.Program
	positions buffer.VertexBuffer
	colors    buffer.VertexBuffer
	indices   buffer.IndexBuffer
	binding   binding_state.BindingState
}

// Engine runs the setup sequence that takes a device from nothing to a drawable mesh, then draws it.
// Setup is linear and one-shot: each step either advances the state or aborts the whole sequence.
type Engine interface {
	// State returns the furthest setup state reached.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Setup acquires the context, links the program, uploads the geometry, seals the binding state and
	// configures the scene, in that order. It stops at the first failure. It runs at most once: any
	// later call returns an error without touching the device.
	//
	// Returns:
	//   - error: nil once Renderable, otherwise an error wrapping ErrSetupAborted and the cause
	Setup() error

	// Render clears the target, draws every index of the model and presents the frame.
	//
	// Returns:
	//   - error: ErrNotRenderable before Setup succeeded, or the draw or present failure
	Render() error

	// Renderer returns the acquired rendering context.
	//
	// Returns:
	//   - renderer.Renderer: the context, nil before StateContextReady
	Renderer() renderer.Renderer

	// Program returns the linked program.
	//
	// Returns:
	//   - program.Program: the program, nil before StateProgramLinked
	Program() program.Program

	// BindingState returns the sealed binding state.
	//
	// Returns:
	//   - binding_state.BindingState: the state, nil before StateBindingStateSealed
	BindingState() binding_state.BindingState

	// Model returns the geometry the engine uploads.
	//
	// Returns:
	//   - model.Model: the model
	Model() model.Model

	// Profiler returns the stage profiler.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler enables stage and frame profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables profiling output.
	DisableProfiler()

	// Release frees the context and every device object.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine bound to a device and a surface registry. Nothing touches the
// device until Setup. Without options the engine draws the spike model with the embedded mesh
// shaders for the device's language, viewed through the default configuration's camera.
//
// Parameters:
//   - dev: the device to drive
//   - surfaces: the registry the surface identifier is resolved against
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(dev device.Device, surfaces *surface.Registry, options ...EngineBuilderOption) Engine {
	defaults := config.Default()
	e := &engine{
		mu:               &sync.Mutex{},
		dev:              dev,
		surfaces:         surfaces,
		surfaceID:        defaults.Surface.ID,
		model:            model.Spike(),
		validateGeometry: true,
		configurator:     scene.NewCameraConfigurator(CameraFromConfig(defaults.Camera)),
		profiler:         profiler.NewProfiler(),
	}

	for _, opt := range options {
		opt(e)
	}
	return e
}

// CameraFromConfig builds a camera from its configuration section.
//
// Parameters:
//   - c: the camera settings
//
// Returns:
//   - camera.Camera: the configured camera
func CameraFromConfig(c config.CameraConfig) camera.Camera {
	return camera.NewCamera(
		camera.WithPosition(c.Eye[0], c.Eye[1], c.Eye[2]),
		camera.WithTarget(c.Target[0], c.Target[1], c.Target[2]),
		camera.WithUp(c.Up[0], c.Up[1], c.Up[2]),
		camera.WithFov(c.FovY),
		camera.WithNear(c.Near),
		camera.WithFar(c.Far),
	)
}

func (e *engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *engine) Setup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.setupErr != nil {
		return fmt.Errorf("%w: setup already failed at %s: %w", ErrSetupAborted, e.state, e.setupErr)
	}
	if e.state != StateUninitialized {
		return fmt.Errorf("%w: setup already ran, state is %s", ErrSetupAborted, e.state)
	}

	steps := []struct {
		next State
		run  func() error
	}{
		{StateContextReady, e.acquireContext},
		{StateProgramLinked, e.linkProgram},
		{StateBuffersUploaded, e.uploadGeometry},
		{StateBindingStateSealed, e.sealBindingState},
		{StateSceneConfigured, e.configureScene},
	}

	for _, step := range steps {
		if e.profilingEnabled {
			e.profiler.Begin(step.next.String())
		}
		err := step.run()
		if e.profilingEnabled {
			e.profiler.End()
		}
		if err != nil {
			e.setupErr = err
			logger.Logger().Error("setup aborted", "state", e.state, "step", step.next, "error", err)
			return fmt.Errorf("%w: %s: %w", ErrSetupAborted, step.next, err)
		}
		e.advance(step.next)
	}

	e.advance(StateRenderable)
	return nil
}

func (e *engine) Render() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRenderable {
		return fmt.Errorf("%w: state is %s", ErrNotRenderable, e.state)
	}

	e.r.Clear()
	if err := e.r.DrawIndexedTriangles(e.model.IndexCount()); err != nil {
		return err
	}
	if err := e.r.Present(); err != nil {
		return err
	}
	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Renderer() renderer.Renderer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r
}

func (e *engine) Program() program.Program {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.program
}

func (e *engine) BindingState() binding_state.BindingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.binding
}

func (e *engine) Model() model.Model {
	return e.model
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.r != nil {
		e.r.Release()
	} else if e.dev != nil {
		e.dev.Release()
	}
}

// advance must be called with mu held.
func (e *engine) advance(next State) {
	logger.Logger().Debug("setup state", "from", e.state, "to", next)
	e.state = next
}

func (e *engine) acquireContext() error {
	r, err := renderer.AcquireContext(e.dev, e.surfaces, e.surfaceID, e.rendererOptions...)
	if err != nil {
		return err
	}
	e.r = r
	return nil
}

func (e *engine) linkProgram() error {
	vsSrc, fsSrc, err := e.shaderSources()
	if err != nil {
		return err
	}

	vs, err := e.r.CompileShader(vsSrc)
	if err != nil {
		return err
	}
	defer e.r.ReleaseShader(vs)

	fs, err := e.r.CompileShader(fsSrc)
	if err != nil {
		return err
	}
	defer e.r.ReleaseShader(fs)

	p, err := e.r.LinkProgram(vs, fs)
	if err != nil {
		return err
	}
	e.program = p
	return nil
}

func (e *engine) shaderSources() (shader.Source, shader.Source, error) {
	if e.vertexSource != nil && e.fragmentSource != nil {
		return *e.vertexSource, *e.fragmentSource, nil
	}
	vs, fs, err := assets.MeshShaders(e.dev.Language())
	if err != nil {
		return shader.Source{}, shader.Source{}, err
	}
	if e.vertexSource != nil {
		vs = *e.vertexSource
	}
	if e.fragmentSource != nil {
		fs = *e.fragmentSource
	}
	return vs, fs, nil
}

func (e *engine) uploadGeometry() error {
	if e.validateGeometry {
		if err := e.model.Validate(); err != nil {
			return err
		}
	}

	var err error
	if e.positions, err = e.r.CreateVertexBuffer(e.model.Positions()); err != nil {
		return err
	}
	if e.colors, err = e.r.CreateVertexBuffer(e.model.Colors()); err != nil {
		return err
	}
	if e.indices, err = e.r.CreateIndexBuffer(e.model.Indices()); err != nil {
		return err
	}
	return nil
}

func (e *engine) sealBindingState() error {
	posLoc, err := e.r.AttributeLocation(e.program, PositionAttribute)
	if err != nil {
		return err
	}
	colLoc, err := e.r.AttributeLocation(e.program, ColorAttribute)
	if err != nil {
		return err
	}

	s := e.r.BeginBindingState(e.model.Name())
	if err := s.BindAttribute(posLoc, 3, e.positions); err != nil {
		return err
	}
	if err := s.BindAttribute(colLoc, 3, e.colors); err != nil {
		return err
	}
	if err := s.SetIndexBuffer(e.indices); err != nil {
		return err
	}
	if err := s.End(); err != nil {
		return err
	}
	if err := e.r.BindBindingState(s); err != nil {
		return err
	}
	e.r.UseProgram(e.program)
	e.binding = s
	return nil
}

func (e *engine) configureScene() error {
	if e.configurator != nil {
		s := e.r.Surface()
		e.configurator.Configure(e.r, e.program, s.Width(), s.Height())
	}
	return nil
}
