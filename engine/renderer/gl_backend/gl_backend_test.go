package gl_backend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnattachedDevice(t *testing.T) {
	d := NewGL(WithErrorChecks(true))
	defer d.Release()

	assert.Equal(t, Name, d.Name())
	assert.False(t, d.ClipDepthZeroToOne())
	assert.Equal(t, shader.LanguageGLSL, d.Language())

	err := d.Attach(surface.NewOffscreen("canvas", 8, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no opengl context")

	_, err = d.CompileShader(shader.Source{Key: "mesh.vert.wgsl", Type: shader.ShaderTypeVertex, Language: shader.LanguageWGSL})
	var compileErr *device.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "mesh.vert.wgsl", compileErr.Key)

	_, err = d.CreateBuffer(device.BufferKindIndex, nil)
	var allocErr *device.AllocationError
	require.ErrorAs(t, err, &allocErr)

	_, err = d.ReadBuffer(3)
	assert.ErrorIs(t, err, device.ErrInvalidHandle)

	_, err = d.LinkProgram(1, 2)
	var linkErr *device.ProgramLinkError
	assert.ErrorAs(t, err, &linkErr)

	assert.Equal(t, int32(-1), d.AttributeLocation(1, "vertexPosition"))
	assert.ErrorIs(t, d.SetUniformMatrix4(1, "modelViewProjection", [16]float32{}), device.ErrInvalidHandle)
	assert.Error(t, d.Present())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, uint32(gl.VERTEX_SHADER), shaderType(shader.ShaderTypeVertex))
	assert.Equal(t, uint32(gl.FRAGMENT_SHADER), shaderType(shader.ShaderTypeFragment))
	assert.Equal(t, uint32(gl.UNSIGNED_SHORT), indexType(device.IndexFormatUint16))
	assert.Equal(t, uint32(gl.UNSIGNED_INT), indexType(device.IndexFormatUint32))

	assert.Equal(t, "main\x00", cString("main"))
	assert.Equal(t, "main\x00", cString("main\x00"))

	assert.Equal(t, "0:3: syntax error", trimLog("0:3: syntax error\n\x00\x00"))
	assert.Equal(t, "", trimLog("\x00"))

	assert.Equal(t, "OUT_OF_MEMORY", errorName(gl.OUT_OF_MEMORY))
	assert.Equal(t, "0x1234", errorName(0x1234))
}
