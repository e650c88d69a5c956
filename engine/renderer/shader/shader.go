package shader

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ShaderType identifies the programmable stage a shader source targets.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, run once per vertex fetched by an indexed draw.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// Language identifies the shading language a source is written in.
type Language int

const (
	// LanguageWGSL marks WebGPU Shading Language sources, consumed by the wgpu and headless devices.
	LanguageWGSL Language = iota

	// LanguageGLSL marks OpenGL Shading Language sources, consumed by the OpenGL device.
	LanguageGLSL
)

func (l Language) String() string {
	switch l {
	case LanguageWGSL:
		return "wgsl"
	case LanguageGLSL:
		return "glsl"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// Source is the text of a single shader stage. It is immutable once constructed and is consumed
// exactly once by compilation.
type Source struct {
	// Key is a label used in diagnostics and GPU object names.
	Key string
	// Type is the stage the source is compiled for.
	Type ShaderType
	// Language is the shading language of Code.
	Language Language
	// Code is the shader source text.
	Code string
}

// NewSource creates a WGSL Source for the given stage.
//
// Parameters:
//   - key: a label for the shader used in diagnostics
//   - shaderType: the stage the source targets
//   - code: the WGSL source text
//
// Returns:
//   - Source: the shader source
func NewSource(key string, shaderType ShaderType, code string) Source {
	return Source{Key: key, Type: shaderType, Language: LanguageWGSL, Code: code}
}

// LoadSource reads a shader source from a file system, typically an embed.FS so that no files are
// touched at runtime. The language is derived from the file extension: .wgsl selects WGSL, while
// .glsl, .vert and .frag select GLSL.
//
// Parameters:
//   - fsys: the file system holding the shader
//   - name: the path of the shader inside fsys
//   - shaderType: the stage the source targets
//
// Returns:
//   - Source: the loaded source, keyed by the file's base name
//   - error: an error if the file cannot be read or the extension is not recognized
func LoadSource(fsys fs.FS, name string, shaderType ShaderType) (Source, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read shader source %q: %w", name, err)
	}

	var lang Language
	switch strings.ToLower(path.Ext(name)) {
	case ".wgsl":
		lang = LanguageWGSL
	case ".glsl", ".vert", ".frag":
		lang = LanguageGLSL
	default:
		return Source{}, fmt.Errorf("shader source %q: unrecognized extension", name)
	}

	return Source{
		Key:      path.Base(name),
		Type:     shaderType,
		Language: lang,
		Code:     string(data),
	}, nil
}
