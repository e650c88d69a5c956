package headless_backend

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/assets"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two full screen triangles, red at depth 0.75 and green at depth 0.25
var (
	layeredPositions = []float32{
		-1, -1, 0.5, 3, -1, 0.5, -1, 3, 0.5,
		-1, -1, -0.5, 3, -1, -0.5, -1, 3, -0.5,
	}
	layeredColors = []float32{
		1, 0, 0, 1, 0, 0, 1, 0, 0,
		0, 1, 0, 0, 1, 0, 0, 1, 0,
	}
	red   = [4]uint8{255, 0, 0, 255}
	green = [4]uint8{0, 255, 0, 255}
)

func newAttached(t *testing.T, options ...HeadlessBuilderOption) Headless {
	t.Helper()
	h := NewHeadless(options...)
	require.NoError(t, h.Attach(surface.NewOffscreen("canvas", 16, 12)))
	t.Cleanup(h.Release)
	return h
}

func linkMeshProgram(t *testing.T, h Headless) device.ProgramID {
	t.Helper()
	vsSrc, fsSrc, err := assets.MeshShaders(shader.LanguageWGSL)
	require.NoError(t, err)
	vs, err := h.CompileShader(vsSrc)
	require.NoError(t, err)
	fs, err := h.CompileShader(fsSrc)
	require.NoError(t, err)
	p, err := h.LinkProgram(vs, fs)
	require.NoError(t, err)
	return p
}

func uploadLayered(t *testing.T, h Headless, p device.ProgramID, indices []uint32) device.VertexArrayID {
	t.Helper()
	pos, err := h.CreateBuffer(device.BufferKindVertex, common.SliceToBytes(layeredPositions))
	require.NoError(t, err)
	col, err := h.CreateBuffer(device.BufferKindVertex, common.SliceToBytes(layeredColors))
	require.NoError(t, err)
	idx, err := h.CreateBuffer(device.BufferKindIndex, buffer.EncodeIndices(indices, device.IndexFormatUint16))
	require.NoError(t, err)

	va, err := h.CreateVertexArray(device.VertexArrayLayout{
		Attributes: []device.AttributeLayout{
			{Location: uint32(h.AttributeLocation(p, "vertexPosition")), Components: 3, Buffer: pos},
			{Location: uint32(h.AttributeLocation(p, "vertexColor")), Components: 3, Buffer: col},
		},
		IndexBuffer: idx,
		IndexFormat: device.IndexFormatUint16,
	})
	require.NoError(t, err)
	return va
}

func TestAttach(t *testing.T) {
	h := NewHeadless()
	defer h.Release()

	assert.Error(t, h.Attach(nil))
	assert.Error(t, h.Attach(surface.NewOffscreen("empty", 0, 10)))
	require.NoError(t, h.Attach(surface.NewOffscreen("canvas", 4, 4)))
	assert.Error(t, h.Attach(surface.NewOffscreen("other", 4, 4)))
	assert.Equal(t, Name, h.Name())
	assert.False(t, h.ClipDepthZeroToOne())
}

func TestClearUsesBaseline(t *testing.T) {
	h := newAttached(t)
	h.ApplyBaseline(device.Baseline{ClearColor: common.Color{R: 0, G: 0, B: 1, A: 1}, DepthTest: true})
	h.Clear()

	assert.Equal(t, [4]uint8{0, 0, 255, 255}, h.Pixel(0, 0))
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, h.Pixel(15, 11))
	assert.Equal(t, float32(1), h.Depth(3, 3))
	assert.Equal(t, [4]uint8{}, h.Pixel(-1, 0))
}

func TestCompileShaderErrors(t *testing.T) {
	h := newAttached(t)

	_, err := h.CompileShader(shader.Source{Key: "x.glsl", Type: shader.ShaderTypeVertex, Language: shader.LanguageGLSL, Code: "void main() {}"})
	var compileErr *device.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, shader.ShaderTypeVertex, compileErr.Stage)

	_, err = h.CompileShader(shader.NewSource("broken.wgsl", shader.ShaderTypeFragment, "@fragment fn fs_main( -> {"))
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, shader.ShaderTypeFragment, compileErr.Stage)
	assert.Equal(t, "broken.wgsl", compileErr.Key)
	assert.NotEmpty(t, compileErr.Log)
}

func TestLinkProgramErrors(t *testing.T) {
	h := newAttached(t)
	vsSrc, fsSrc, err := assets.MeshShaders(shader.LanguageWGSL)
	require.NoError(t, err)
	vs, err := h.CompileShader(vsSrc)
	require.NoError(t, err)
	fs, err := h.CompileShader(fsSrc)
	require.NoError(t, err)

	var linkErr *device.ProgramLinkError
	_, err = h.LinkProgram(fs, vs)
	require.ErrorAs(t, err, &linkErr)

	_, err = h.LinkProgram(vs, 999)
	require.ErrorAs(t, err, &linkErr)

	extra := shader.NewSource("extra.wgsl", shader.ShaderTypeFragment, `
@fragment
fn fs_main(@location(0) color: vec3<f32>, @location(2) shade: f32) -> @location(0) vec4<f32> {
    return vec4<f32>(color * shade, 1.0);
}
`)
	fsExtra, err := h.CompileShader(extra)
	require.NoError(t, err)
	_, err = h.LinkProgram(vs, fsExtra)
	require.ErrorAs(t, err, &linkErr)
	assert.Contains(t, linkErr.Log, `"shade"`)

	// linked programs survive shader deletion
	p, err := h.LinkProgram(vs, fs)
	require.NoError(t, err)
	h.DeleteShader(vs)
	assert.Equal(t, int32(0), h.AttributeLocation(p, "vertexPosition"))
}

func TestAttributeAndUniformLookup(t *testing.T) {
	h := newAttached(t)
	p := linkMeshProgram(t, h)

	assert.Equal(t, int32(0), h.AttributeLocation(p, "vertexPosition"))
	assert.Equal(t, int32(1), h.AttributeLocation(p, "vertexColor"))
	assert.Equal(t, int32(-1), h.AttributeLocation(p, "vertexNormal"))
	assert.Equal(t, int32(-1), h.AttributeLocation(999, "vertexPosition"))

	assert.NoError(t, h.SetUniformMatrix4(p, "modelViewProjection", identity))
	assert.ErrorIs(t, h.SetUniformMatrix4(p, "projection", identity), device.ErrUniformNotFound)
	assert.ErrorIs(t, h.SetUniformMatrix4(999, "modelViewProjection", identity), device.ErrInvalidHandle)
}

func TestBuffers(t *testing.T) {
	h := newAttached(t, WithMemoryLimit(64))

	id, err := h.CreateBuffer(device.BufferKindVertex, make([]byte, 48))
	require.NoError(t, err)
	assert.Equal(t, 48, h.MemoryUsed())

	data, err := h.ReadBuffer(id)
	require.NoError(t, err)
	assert.Len(t, data, 48)

	_, err = h.CreateBuffer(device.BufferKindIndex, make([]byte, 32))
	var allocErr *device.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.ErrorIs(t, err, device.ErrOutOfMemory)
	assert.Equal(t, device.BufferKindIndex, allocErr.Kind)
	assert.Equal(t, 32, allocErr.Size)

	empty, err := h.CreateBuffer(device.BufferKindVertex, nil)
	require.NoError(t, err)
	data, err = h.ReadBuffer(empty)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = h.ReadBuffer(999)
	assert.ErrorIs(t, err, device.ErrInvalidHandle)
}

func TestCreateVertexArrayValidatesBuffers(t *testing.T) {
	h := newAttached(t)
	vb, err := h.CreateBuffer(device.BufferKindVertex, make([]byte, 12))
	require.NoError(t, err)

	_, err = h.CreateVertexArray(device.VertexArrayLayout{
		Attributes: []device.AttributeLayout{{Location: 0, Components: 3, Buffer: 999}},
	})
	assert.ErrorIs(t, err, device.ErrInvalidHandle)

	_, err = h.CreateVertexArray(device.VertexArrayLayout{IndexBuffer: vb})
	assert.ErrorIs(t, err, device.ErrInvalidHandle)
}

func TestDrawDepthTest(t *testing.T) {
	cases := map[string]struct {
		depthTest bool
		indices   []uint32
		want      [4]uint8
	}{
		"near drawn last":                {depthTest: true, indices: []uint32{0, 1, 2, 3, 4, 5}, want: green},
		"near drawn first":               {depthTest: true, indices: []uint32{3, 4, 5, 0, 1, 2}, want: green},
		"depth test off keeps last draw": {depthTest: false, indices: []uint32{3, 4, 5, 0, 1, 2}, want: red},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newAttached(t, WithWorkers(3))
			h.ApplyBaseline(device.Baseline{ClearColor: common.Black, DepthTest: tc.depthTest})
			p := linkMeshProgram(t, h)
			va := uploadLayered(t, h, p, tc.indices)

			h.Clear()
			h.UseProgram(p)
			h.BindVertexArray(va)
			require.NoError(t, h.DrawElements(6))

			for _, px := range [][2]int{{0, 0}, {8, 6}, {15, 11}} {
				assert.Equal(t, tc.want, h.Pixel(px[0], px[1]), "pixel %v", px)
			}
		})
	}
}

func TestDrawPartialCount(t *testing.T) {
	h := newAttached(t)
	h.ApplyBaseline(device.Baseline{ClearColor: common.Black, DepthTest: true})
	p := linkMeshProgram(t, h)
	va := uploadLayered(t, h, p, []uint32{0, 1, 2, 3, 4, 5})

	h.Clear()
	h.UseProgram(p)
	h.BindVertexArray(va)
	// five indices assemble one triangle, the trailing pair is ignored
	require.NoError(t, h.DrawElements(5))
	assert.Equal(t, red, h.Pixel(8, 6))
	assert.InDelta(t, 0.75, h.Depth(8, 6), 1e-5)

	assert.Error(t, h.DrawElements(7))
}

func TestDrawTransformUniform(t *testing.T) {
	h := newAttached(t)
	p := linkMeshProgram(t, h)
	va := uploadLayered(t, h, p, []uint32{0, 1, 2})

	// push the triangle right so it no longer covers the left half
	shift := identity
	shift[12] = 1
	require.NoError(t, h.SetUniformMatrix4(p, "modelViewProjection", shift))

	h.Clear()
	h.UseProgram(p)
	h.BindVertexArray(va)
	require.NoError(t, h.DrawElements(3))
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, h.Pixel(2, 6))
	assert.Equal(t, red, h.Pixel(9, 10))
}

func TestDrawUnboundAttribute(t *testing.T) {
	h := newAttached(t)
	p := linkMeshProgram(t, h)

	pos, err := h.CreateBuffer(device.BufferKindVertex, common.SliceToBytes(layeredPositions))
	require.NoError(t, err)
	idx, err := h.CreateBuffer(device.BufferKindIndex, buffer.EncodeIndices([]uint32{0, 1, 2}, device.IndexFormatUint16))
	require.NoError(t, err)
	va, err := h.CreateVertexArray(device.VertexArrayLayout{
		Attributes:  []device.AttributeLayout{{Location: 0, Components: 3, Buffer: pos}},
		IndexBuffer: idx,
	})
	require.NoError(t, err)

	h.UseProgram(p)
	h.BindVertexArray(va)
	assert.ErrorIs(t, h.DrawElements(3), device.ErrUnboundAttribute)
}

func TestPresentSnapshotsFrame(t *testing.T) {
	h := newAttached(t)
	assert.Nil(t, h.Image())

	h.ApplyBaseline(device.Baseline{ClearColor: common.Color{R: 1, G: 1, B: 1, A: 1}})
	h.Clear()
	require.NoError(t, h.Present())
	assert.Equal(t, 1, h.Frames())

	img := h.Image()
	require.NotNil(t, img)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, uint8(255), img.RGBAAt(3, 3).R)
}

func TestReleaseFreesMemory(t *testing.T) {
	h := NewHeadless()
	require.NoError(t, h.Attach(surface.NewOffscreen("canvas", 2, 2)))
	_, err := h.CreateBuffer(device.BufferKindVertex, make([]byte, 16))
	require.NoError(t, err)

	h.Release()
	h.Release()
	assert.Zero(t, h.MemoryUsed())
	assert.Error(t, h.DrawElements(3))
}
