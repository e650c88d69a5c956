package renderer

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
)

// RendererBuilderOption is a functional option applied to a renderer during acquisition via AcquireContext.
type RendererBuilderOption func(*renderer)

// DefaultBaseline returns the baseline applied when no option overrides it: opaque black and depth testing on.
//
// Returns:
//   - device.Baseline: the default baseline
func DefaultBaseline() device.Baseline {
	return device.Baseline{ClearColor: common.Black, DepthTest: true}
}

// WithClearColor sets the color the color target is cleared to.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c common.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.baseline.ClearColor = c
	}
}

// WithDepthTest enables or disables depth testing. It is enabled by default.
//
// Parameters:
//   - enabled: whether nearer fragments occlude farther ones
//
// Returns:
//   - RendererBuilderOption: a function that applies the depth test option to a renderer
func WithDepthTest(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.baseline.DepthTest = enabled
	}
}

// WithStrictAttributes makes attribute lookups for names the program does not use fail with
// device.ErrAttributeNotFound instead of returning program.NotFound.
//
// Parameters:
//   - strict: true for the strict policy
//
// Returns:
//   - RendererBuilderOption: a function that applies the attribute policy to a renderer
func WithStrictAttributes(strict bool) RendererBuilderOption {
	return func(r *renderer) {
		r.strictAttributes = strict
	}
}

// WithLabel sets the debug label used in logs. The surface identifier is used by default.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - RendererBuilderOption: a function that applies the label to a renderer
func WithLabel(label string) RendererBuilderOption {
	return func(r *renderer) {
		r.label = label
	}
}
