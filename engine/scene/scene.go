// Package scene configures the per-program state a draw depends on beyond geometry, such as the
// transform uniforms, once the program and binding state are in place.
package scene

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/camera"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/program"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultTransformUniform is the uniform the camera configurator writes by default.
const DefaultTransformUniform = "modelViewProjection"

// ConfigContext is the view of the rendering context a Configurator may consult.
type ConfigContext interface {
	// ClipDepthZeroToOne reports whether clip space depth spans [0, 1] rather than [-1, 1].
	ClipDepthZeroToOne() bool
}

// Configurator prepares scene state for a linked program. It is invoked exactly once, after the
// binding state is sealed and before the first draw, and has no failure mode: problems are logged.
type Configurator interface {
	// Configure writes whatever uniforms and state the program needs to draw the scene.
	//
	// Parameters:
	//   - ctx: the rendering context
	//   - p: the program that will draw
	//   - width: the drawable width in pixels
	//   - height: the drawable height in pixels
	Configure(ctx ConfigContext, p program.Program, width, height int)
}

// ConfiguratorFunc adapts a plain function to the Configurator interface.
type ConfiguratorFunc func(ctx ConfigContext, p program.Program, width, height int)

// Configure calls f.
func (f ConfiguratorFunc) Configure(ctx ConfigContext, p program.Program, width, height int) {
	f(ctx, p, width, height)
}

// cameraConfigurator is the implementation of the camera backed Configurator.
type cameraConfigurator struct {
	camera  camera.Camera
	model   mgl32.Mat4
	uniform string
}

var _ Configurator = &cameraConfigurator{}

// NewCameraConfigurator creates a Configurator that fits the camera to the drawable and writes
// projection * view * model into the transform uniform.
//
// Parameters:
//   - cam: the camera to view the scene through
//   - options: functional options to configure the configurator
//
// Returns:
//   - Configurator: the configurator
func NewCameraConfigurator(cam camera.Camera, options ...SceneBuilderOption) Configurator {
	c := &cameraConfigurator{
		camera:  cam,
		model:   mgl32.Ident4(),
		uniform: DefaultTransformUniform,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraConfigurator) Configure(ctx ConfigContext, p program.Program, width, height int) {
	if p == nil {
		logger.Logger().Warn("scene configuration skipped, no program")
		return
	}
	if width > 0 && height > 0 {
		c.camera.SetAspect(float32(width) / float32(height))
	}
	if ctx != nil {
		c.camera.SetClipDepthZeroToOne(ctx.ClipDepthZeroToOne())
	}

	mvp := mgl32.Mat4(c.camera.ViewProjectionMatrix()).Mul4(c.model)
	if err := p.SetUniformMatrix4(c.uniform, mvp); err != nil {
		logger.Logger().Warn("scene transform not applied", "uniform", c.uniform, "error", err)
		return
	}
	x, y, z := c.camera.Position()
	logger.Logger().Debug("scene configured", "uniform", c.uniform, "eye", [3]float32{x, y, z}, "aspect", c.camera.Aspect())
}
