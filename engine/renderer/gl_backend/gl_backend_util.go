package gl_backend

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/go-gl/gl/v4.1-core/gl"
)

func shaderType(t shader.ShaderType) uint32 {
	if t == shader.ShaderTypeFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func indexType(f device.IndexFormat) uint32 {
	if f == device.IndexFormatUint16 {
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}

// cString appends the NUL terminator the GL string helpers expect.
func cString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// trimLog strips the NUL padding and trailing whitespace of an info log.
func trimLog(msg string) string {
	if i := strings.IndexByte(msg, 0); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("0x%04X", code)
	}
}
