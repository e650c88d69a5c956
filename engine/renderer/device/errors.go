package device

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
)

var (
	// ErrContextUnavailable is returned when the surface does not exist or the device cannot provide
	// a rendering context for it.
	ErrContextUnavailable = errors.New("rendering context unavailable")

	// ErrAttributeNotFound is returned under the strict attribute policy when a program has no
	// active attribute with the requested name.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrUniformNotFound is returned when a program declares no uniform with the requested name.
	ErrUniformNotFound = errors.New("uniform not found")

	// ErrUnboundAttribute is reported at draw time by devices that can detect an attribute read by
	// the program with no buffer bound to its location.
	ErrUnboundAttribute = errors.New("attribute location has no bound buffer")

	// ErrReadbackUnsupported is returned by devices that cannot copy buffer contents back to the host.
	ErrReadbackUnsupported = errors.New("buffer readback unsupported")

	// ErrOutOfMemory is wrapped by AllocationError when the device ran out of buffer memory.
	ErrOutOfMemory = errors.New("out of device memory")

	// ErrInvalidHandle is returned when a handle does not name a live object on the device.
	ErrInvalidHandle = errors.New("invalid handle")
)

// ShaderCompileError is returned when a shader source fails to compile. Log holds the device's
// diagnostic text exactly as reported.
type ShaderCompileError struct {
	Stage shader.ShaderType
	Key   string
	Log   string
}

func (e *ShaderCompileError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s shader %q failed to compile:\n%s", e.Stage, e.Key, e.Log)
	}
	return fmt.Sprintf("%s shader failed to compile:\n%s", e.Stage, e.Log)
}

// ProgramLinkError is returned when a vertex and fragment shader cannot be linked into a program.
// Log holds the device's diagnostic text exactly as reported.
type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return fmt.Sprintf("program failed to link:\n%s", e.Log)
}

// AllocationError is returned when a device buffer cannot be created.
type AllocationError struct {
	Kind BufferKind
	Size int
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("failed to allocate %d byte %s buffer: %v", e.Size, e.Kind, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}
