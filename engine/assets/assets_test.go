package assets

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeshShaders(t *testing.T) {
	for _, lang := range []shader.Language{shader.LanguageWGSL, shader.LanguageGLSL} {
		vs, fs, err := MeshShaders(lang)
		require.NoError(t, err)
		assert.Equal(t, lang, vs.Language)
		assert.Equal(t, lang, fs.Language)
		assert.Equal(t, shader.ShaderTypeVertex, vs.Type)
		assert.Equal(t, shader.ShaderTypeFragment, fs.Type)
		assert.Contains(t, vs.Code, "vertexPosition")
		assert.Contains(t, vs.Code, "vertexColor")
	}

	_, _, err := MeshShaders(shader.Language(9))
	assert.Error(t, err)
}
