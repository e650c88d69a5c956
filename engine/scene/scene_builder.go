package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBuilderOption is a functional option for configuring the camera configurator.
// Use the With* functions to create options.
type SceneBuilderOption func(c *cameraConfigurator)

// WithModelMatrix sets the object to world transform applied before the camera. Identity by default.
//
// Parameters:
//   - m: the model matrix
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithModelMatrix(m mgl32.Mat4) SceneBuilderOption {
	return func(c *cameraConfigurator) {
		c.model = m
	}
}

// WithTransformUniform sets the mat4 uniform the combined transform is written to.
//
// Parameters:
//   - name: the uniform name, DefaultTransformUniform by default
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTransformUniform(name string) SceneBuilderOption {
	return func(c *cameraConfigurator) {
		c.uniform = name
	}
}
