package program

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/assets"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/headless_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) device.Device {
	t.Helper()
	dev := headless_backend.NewHeadless()
	require.NoError(t, dev.Attach(surface.NewOffscreen("canvas", 4, 4)))
	t.Cleanup(dev.Release)
	return dev
}

func compileMesh(t *testing.T, dev device.Device) (Shader, Shader) {
	t.Helper()
	vsSrc, fsSrc, err := assets.MeshShaders(shader.LanguageWGSL)
	require.NoError(t, err)
	vs, err := Compile(dev, vsSrc)
	require.NoError(t, err)
	fs, err := Compile(dev, fsSrc)
	require.NoError(t, err)
	return vs, fs
}

func TestCompileAndLink(t *testing.T) {
	dev := newDevice(t)
	vs, fs := compileMesh(t, dev)

	assert.Equal(t, shader.ShaderTypeVertex, vs.Type())
	assert.Equal(t, "mesh.vert.wgsl", vs.Key())
	assert.Equal(t, shader.ShaderTypeFragment, fs.Type())

	p, err := Link(dev, vs, fs)
	require.NoError(t, err)
	assert.NotZero(t, p.ID())

	assert.Equal(t, int32(0), p.AttributeLocation("vertexPosition"))
	assert.Equal(t, int32(1), p.AttributeLocation("vertexColor"))
	assert.Equal(t, NotFound, p.AttributeLocation("vertexNormal"))
	// cached lookups return the same answer
	assert.Equal(t, NotFound, p.AttributeLocation("vertexNormal"))

	vs.Release()
	vs.Release()
	assert.Equal(t, int32(1), p.AttributeLocation("vertexColor"))
}

func TestCompileErrorCarriesDiagnostic(t *testing.T) {
	dev := newDevice(t)

	_, err := Compile(dev, shader.NewSource("bad.wgsl", shader.ShaderTypeVertex, "@vertex fn vs_main() -> @builtin(position) vec4<f32> { return undefinedThing; }"))
	var compileErr *device.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, shader.ShaderTypeVertex, compileErr.Stage)
	assert.NotEmpty(t, compileErr.Log)
	assert.Contains(t, err.Error(), compileErr.Log)
}

func TestLinkRejectsSwappedStages(t *testing.T) {
	dev := newDevice(t)
	vs, fs := compileMesh(t, dev)

	var linkErr *device.ProgramLinkError
	_, err := Link(dev, fs, vs)
	require.ErrorAs(t, err, &linkErr)
	assert.Contains(t, linkErr.Log, "expected vertex")

	_, err = Link(dev, vs, nil)
	require.ErrorAs(t, err, &linkErr)
}

func TestSetUniformMatrix4(t *testing.T) {
	dev := newDevice(t)
	vs, fs := compileMesh(t, dev)
	p, err := Link(dev, vs, fs)
	require.NoError(t, err)

	var m [16]float32
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	assert.NoError(t, p.SetUniformMatrix4("modelViewProjection", m))
	assert.ErrorIs(t, p.SetUniformMatrix4("view", m), device.ErrUniformNotFound)
}
