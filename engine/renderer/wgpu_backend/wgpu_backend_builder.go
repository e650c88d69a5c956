package wgpu_backend

import "github.com/cogentcore/webgpu/wgpu"

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the display refresh rate. This is the default.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause tearing.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// WGPUBuilderOption is a functional option applied to a device during construction via NewWGPU.
type WGPUBuilderOption func(*wgpuDevice)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - WGPUBuilderOption: a function that applies the present mode option to a device
func WithPresentMode(mode PresentMode) WGPUBuilderOption {
	return func(w *wgpuDevice) {
		switch mode {
		case PresentModeUncapped:
			w.presentMode = wgpu.PresentModeImmediate
		default:
			w.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithMSAA sets the multisample anti-aliasing sample count. When not specified, the default is
// MSAA4x. Use MSAAOff to disable MSAA entirely.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff or MSAA4x)
//
// Returns:
//   - WGPUBuilderOption: a function that applies the MSAA option to a device
func WithMSAA(count MSAASampleCount) WGPUBuilderOption {
	return func(w *wgpuDevice) {
		if count < MSAAOff {
			count = MSAAOff
		}
		w.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - WGPUBuilderOption: a function that applies the force software renderer option to a device
func WithForceSoftwareRenderer(force bool) WGPUBuilderOption {
	return func(w *wgpuDevice) {
		w.forceFallbackAdapter = force
	}
}
