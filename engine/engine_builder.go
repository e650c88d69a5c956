package engine

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/config"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/scene"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables stage and frame profiling output.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithSurfaceID sets the identifier of the drawable the context is acquired against.
//
// Parameters:
//   - id: the surface identifier
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurfaceID(id string) EngineBuilderOption {
	return func(e *engine) {
		e.surfaceID = id
	}
}

// WithModel sets the geometry to upload. The spike model is used by default.
//
// Parameters:
//   - m: the model
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithModel(m model.Model) EngineBuilderOption {
	return func(e *engine) {
		e.model = m
	}
}

// WithGeometryValidation controls whether the model is validated before upload. Enabled by default.
// With validation off, malformed geometry is uploaded as is.
//
// Parameters:
//   - enabled: whether to validate
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGeometryValidation(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.validateGeometry = enabled
	}
}

// WithVertexShader replaces the embedded vertex shader. The source must declare the vertexPosition
// and vertexColor attributes.
//
// Parameters:
//   - src: the vertex stage source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVertexShader(src shader.Source) EngineBuilderOption {
	return func(e *engine) {
		e.vertexSource = &src
	}
}

// WithFragmentShader replaces the embedded fragment shader.
//
// Parameters:
//   - src: the fragment stage source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFragmentShader(src shader.Source) EngineBuilderOption {
	return func(e *engine) {
		e.fragmentSource = &src
	}
}

// WithConfigurator sets the scene configurator run after the binding state is sealed.
// Passing nil skips scene configuration.
//
// Parameters:
//   - c: the configurator
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigurator(c scene.Configurator) EngineBuilderOption {
	return func(e *engine) {
		e.configurator = c
	}
}

// WithRendererOptions appends options passed to renderer.AcquireContext.
//
// Parameters:
//   - options: the context options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithConfig applies an application configuration: surface identifier, context baseline, attribute
// policy, camera placement and profiling. The backend and worker settings select the device and are
// not consumed here.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.surfaceID = cfg.Surface.ID
		e.profilingEnabled = cfg.Profiling
		e.configurator = scene.NewCameraConfigurator(CameraFromConfig(cfg.Camera))

		e.rendererOptions = append(e.rendererOptions,
			renderer.WithClearColor(cfg.ClearColor()),
			renderer.WithDepthTest(cfg.Render.DepthTest),
			renderer.WithStrictAttributes(cfg.Render.StrictAttributes),
		)
	}
}
