// Package program compiles shader stages and links them into programs whose attribute locations can
// be queried by name.
package program

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
)

// NotFound is the location returned for an attribute the program does not actively use.
const NotFound int32 = -1

// Shader is a compiled shader stage.
type Shader interface {
	// ID returns the device handle of the shader.
	//
	// Returns:
	//   - device.ShaderID: the shader handle
	ID() device.ShaderID

	// Type returns the pipeline stage the shader was compiled for.
	//
	// Returns:
	//   - shader.ShaderType: the stage
	Type() shader.ShaderType

	// Key returns the identifier of the source the shader was compiled from.
	//
	// Returns:
	//   - string: the source key
	Key() string

	// Release frees the compiled shader on the device. Programs already linked from it keep working.
	Release()
}

// Program is a linked vertex and fragment shader pair.
type Program interface {
	// ID returns the device handle of the program.
	//
	// Returns:
	//   - device.ProgramID: the program handle
	ID() device.ProgramID

	// AttributeLocation looks up the location of a vertex attribute by name. Attributes declared but
	// not used by the shader may be optimized away by the device and report NotFound.
	//
	// Parameters:
	//   - name: the attribute name as declared in the vertex shader
	//
	// Returns:
	//   - int32: the location, or NotFound
	AttributeLocation(name string) int32

	// SetUniformMatrix4 writes a column-major 4x4 matrix to a named uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - m: the matrix in column-major order
	//
	// Returns:
	//   - error: an error wrapping device.ErrUniformNotFound if the program has no such uniform
	SetUniformMatrix4(name string, m [16]float32) error
}

type compiledShader struct {
	dev   device.Device
	id    device.ShaderID
	typ   shader.ShaderType
	key   string
	freed bool
}

var _ Shader = &compiledShader{}

type program struct {
	dev       device.Device
	id        device.ProgramID
	mu        sync.Mutex
	locations map[string]int32
}

var _ Program = &program{}

// Compile compiles one shader stage on the device.
//
// Parameters:
//   - dev: the device to compile on
//   - src: the shader source
//
// Returns:
//   - Shader: the compiled stage
//   - error: a *device.ShaderCompileError carrying the device's diagnostic verbatim
func Compile(dev device.Device, src shader.Source) (Shader, error) {
	id, err := dev.CompileShader(src)
	if err != nil {
		return nil, err
	}
	logger.Logger().Debug("shader compiled", "key", src.Key, "stage", src.Type, "language", src.Language, "shader", id)
	return &compiledShader{dev: dev, id: id, typ: src.Type, key: src.Key}, nil
}

// Link links a compiled vertex and fragment shader into a program.
//
// Parameters:
//   - dev: the device that compiled both shaders
//   - vertex: the vertex stage
//   - fragment: the fragment stage
//
// Returns:
//   - Program: the linked program
//   - error: a *device.ProgramLinkError carrying the device's diagnostic verbatim
func Link(dev device.Device, vertex, fragment Shader) (Program, error) {
	if vertex == nil || fragment == nil {
		return nil, &device.ProgramLinkError{Log: "both a vertex and a fragment shader are required"}
	}
	if vertex.Type() != shader.ShaderTypeVertex {
		return nil, &device.ProgramLinkError{Log: fmt.Sprintf("shader %q is a %s shader, expected vertex", vertex.Key(), vertex.Type())}
	}
	if fragment.Type() != shader.ShaderTypeFragment {
		return nil, &device.ProgramLinkError{Log: fmt.Sprintf("shader %q is a %s shader, expected fragment", fragment.Key(), fragment.Type())}
	}

	id, err := dev.LinkProgram(vertex.ID(), fragment.ID())
	if err != nil {
		return nil, err
	}
	logger.Logger().Debug("program linked", "vertex", vertex.Key(), "fragment", fragment.Key(), "program", id)
	return &program{dev: dev, id: id, locations: make(map[string]int32)}, nil
}

func (s *compiledShader) ID() device.ShaderID {
	return s.id
}

func (s *compiledShader) Type() shader.ShaderType {
	return s.typ
}

func (s *compiledShader) Key() string {
	return s.key
}

func (s *compiledShader) Release() {
	if s.freed {
		return
	}
	s.freed = true
	s.dev.DeleteShader(s.id)
}

func (p *program) ID() device.ProgramID {
	return p.id
}

func (p *program) AttributeLocation(name string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := p.dev.AttributeLocation(p.id, name)
	if loc < 0 {
		loc = NotFound
	}
	p.locations[name] = loc
	return loc
}

func (p *program) SetUniformMatrix4(name string, m [16]float32) error {
	if err := p.dev.SetUniformMatrix4(p.id, name, m); err != nil {
		return fmt.Errorf("failed to set uniform %q: %w", name, err)
	}
	return nil
}
