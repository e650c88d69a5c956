package renderer

import (
	"fmt"
	"strings"
)

// RendererBackendType identifies the device implementation a Renderer drives.
type RendererBackendType int

const (
	// BackendTypeHeadless selects the software device that renders into host memory.
	BackendTypeHeadless RendererBackendType = iota

	// BackendTypeWGPU selects the WebGPU device.
	BackendTypeWGPU

	// BackendTypeOpenGL selects the OpenGL 4.1 core device.
	BackendTypeOpenGL
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeHeadless:
		return "headless"
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeOpenGL:
		return "opengl"
	default:
		return fmt.Sprintf("RendererBackendType(%d)", int(t))
	}
}

// ParseBackendType maps a configuration name to a backend type. Matching ignores case.
//
// Parameters:
//   - name: one of "headless", "wgpu" or "opengl"
//
// Returns:
//   - RendererBackendType: the matching backend
//   - error: an error if the name is unknown
func ParseBackendType(name string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "headless":
		return BackendTypeHeadless, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	case "opengl", "gl":
		return BackendTypeOpenGL, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", name)
	}
}
