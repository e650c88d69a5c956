// Package assets embeds the shader pair used to draw a colored mesh. Sources are compiled into the
// binary so that setup never touches the file system.
package assets

import (
	"embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
)

//go:embed shaders
var shaderFS embed.FS

// MeshShaders returns the vertex and fragment sources for the requested shading language.
// Both stages declare the vertexPosition and vertexColor attributes and the modelViewProjection uniform.
//
// Parameters:
//   - lang: the shading language the target device consumes
//
// Returns:
//   - shader.Source: the vertex stage source
//   - shader.Source: the fragment stage source
//   - error: an error if the language has no embedded sources
func MeshShaders(lang shader.Language) (shader.Source, shader.Source, error) {
	var ext string
	switch lang {
	case shader.LanguageWGSL:
		ext = "wgsl"
	case shader.LanguageGLSL:
		ext = "glsl"
	default:
		return shader.Source{}, shader.Source{}, fmt.Errorf("no mesh shaders for %s", lang)
	}

	vs, err := shader.LoadSource(shaderFS, "shaders/mesh.vert."+ext, shader.ShaderTypeVertex)
	if err != nil {
		return shader.Source{}, shader.Source{}, err
	}
	fs, err := shader.LoadSource(shaderFS, "shaders/mesh.frag."+ext, shader.ShaderTypeFragment)
	if err != nil {
		return shader.Source{}, shader.Source{}, err
	}
	return vs, fs, nil
}
