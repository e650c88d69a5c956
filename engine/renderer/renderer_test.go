package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/assets"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/binding_state"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/headless_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	width  = 32
	height = 24
)

var black = [4]uint8{0, 0, 0, 255}

func acquire(t *testing.T, options ...RendererBuilderOption) (Renderer, headless_backend.Headless) {
	t.Helper()
	dev := headless_backend.NewHeadless(headless_backend.WithWorkers(2))
	r, err := AcquireContext(dev, surface.NewRegistry(surface.NewOffscreen("canvas", width, height)), "canvas", options...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r, dev
}

func linkMesh(t *testing.T, r Renderer) program.Program {
	t.Helper()
	vsSrc, fsSrc, err := assets.MeshShaders(shader.LanguageWGSL)
	require.NoError(t, err)
	vs, err := r.CompileShader(vsSrc)
	require.NoError(t, err)
	fs, err := r.CompileShader(fsSrc)
	require.NoError(t, err)
	p, err := r.LinkProgram(vs, fs)
	require.NoError(t, err)
	r.ReleaseShader(vs)
	r.ReleaseShader(fs)
	return p
}

// sealGeometry uploads positions, colors and indices and records them into a sealed binding state.
func sealGeometry(t *testing.T, r Renderer, p program.Program, label string, positions, colors []float32, indices []uint32) binding_state.BindingState {
	t.Helper()
	pos, err := r.CreateVertexBuffer(positions)
	require.NoError(t, err)
	col, err := r.CreateVertexBuffer(colors)
	require.NoError(t, err)
	idx, err := r.CreateIndexBuffer(indices)
	require.NoError(t, err)

	posLoc, err := r.AttributeLocation(p, "vertexPosition")
	require.NoError(t, err)
	colLoc, err := r.AttributeLocation(p, "vertexColor")
	require.NoError(t, err)

	s := r.BeginBindingState(label)
	require.NoError(t, s.BindAttribute(posLoc, 3, pos))
	require.NoError(t, s.BindAttribute(colLoc, 3, col))
	require.NoError(t, s.SetIndexBuffer(idx))
	require.NoError(t, s.End())
	return s
}

func quad(x0, x1 float32) []float32 {
	return []float32{
		x0, -1, 0,
		x1, -1, 0,
		x1, 1, 0,
		x0, 1, 0,
	}
}

func solid(r, g, b float32, n int) []float32 {
	out := make([]float32, 0, n*3)
	for range n {
		out = append(out, r, g, b)
	}
	return out
}

var quadIndices = []uint32{0, 1, 2, 0, 2, 3}

func TestAcquireContextErrors(t *testing.T) {
	registry := surface.NewRegistry(surface.NewOffscreen("canvas", 4, 4), surface.NewOffscreen("flat", 0, 4))

	_, err := AcquireContext(headless_backend.NewHeadless(), registry, "missing")
	assert.ErrorIs(t, err, device.ErrContextUnavailable)
	assert.ErrorIs(t, err, surface.ErrUnknownSurface)

	_, err = AcquireContext(headless_backend.NewHeadless(), registry, "flat")
	assert.ErrorIs(t, err, device.ErrContextUnavailable)

	_, err = AcquireContext(nil, registry, "canvas")
	assert.ErrorIs(t, err, device.ErrContextUnavailable)

	_, err = AcquireContext(headless_backend.NewHeadless(), nil, "canvas")
	assert.ErrorIs(t, err, device.ErrContextUnavailable)
}

func TestAcquireContextAppliesBaseline(t *testing.T) {
	r, dev := acquire(t)
	assert.Equal(t, DefaultBaseline(), r.Baseline())
	assert.Equal(t, "canvas", r.Label())
	assert.Equal(t, "canvas", r.Surface().ID())
	assert.False(t, r.ClipDepthZeroToOne())

	r.Clear()
	assert.Equal(t, black, dev.Pixel(0, 0))

	blue, blueDev := acquire(t, WithClearColor(common.Color{B: 1, A: 1}), WithDepthTest(false), WithLabel("blue"))
	assert.Equal(t, "blue", blue.Label())
	assert.False(t, blue.Baseline().DepthTest)
	blue.Clear()
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, blueDev.Pixel(5, 5))
}

func TestAttributeLocationPolicy(t *testing.T) {
	r, _ := acquire(t)
	p := linkMesh(t, r)

	first, err := r.AttributeLocation(p, "vertexPosition")
	require.NoError(t, err)
	second, err := r.AttributeLocation(p, "vertexPosition")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, first, int32(0))
	assert.Equal(t, first, second)

	loc, err := r.AttributeLocation(p, "vertexNormal")
	assert.NoError(t, err)
	assert.Equal(t, program.NotFound, loc)

	strict, _ := acquire(t, WithStrictAttributes(true))
	sp := linkMesh(t, strict)
	loc, err = strict.AttributeLocation(sp, "vertexNormal")
	assert.ErrorIs(t, err, device.ErrAttributeNotFound)
	assert.Equal(t, program.NotFound, loc)
}

func TestLinkFailureReturnsNoProgram(t *testing.T) {
	r, _ := acquire(t)
	vsSrc, _, err := assets.MeshShaders(shader.LanguageWGSL)
	require.NoError(t, err)
	vs, err := r.CompileShader(vsSrc)
	require.NoError(t, err)
	fs, err := r.CompileShader(shader.NewSource("normal.frag.wgsl", shader.ShaderTypeFragment, `
@fragment
fn fs_main(@location(0) color: vec3<f32>, @location(1) normal: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color * normal.z, 1.0);
}
`))
	require.NoError(t, err)

	p, err := r.LinkProgram(vs, fs)
	assert.Nil(t, p)
	var linkErr *device.ProgramLinkError
	require.ErrorAs(t, err, &linkErr)
	assert.NotEmpty(t, linkErr.Log)
}

func TestCompileFailure(t *testing.T) {
	r, _ := acquire(t)
	s, err := r.CompileShader(shader.NewSource("bad.vert.wgsl", shader.ShaderTypeVertex, "@vertex fn vs_main( {"))
	assert.Nil(t, s)
	var compileErr *device.ShaderCompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, shader.ShaderTypeVertex, compileErr.Stage)
}

func TestVertexBufferReadback(t *testing.T) {
	r, _ := acquire(t)
	spike := model.Spike()

	vb, err := r.CreateVertexBuffer(spike.Positions())
	require.NoError(t, err)
	got, err := r.ReadVertexBuffer(vb)
	require.NoError(t, err)
	assert.Equal(t, spike.Positions(), got)

	ib, err := r.CreateIndexBuffer(spike.Indices())
	require.NoError(t, err)
	assert.Equal(t, device.IndexFormatUint16, ib.Format())
	indices, err := r.ReadIndexBuffer(ib)
	require.NoError(t, err)
	assert.Equal(t, spike.Indices(), indices)
}

func TestDrawCube(t *testing.T) {
	r, dev := acquire(t)
	p := linkMesh(t, r)
	cube := model.Cube(0.5)
	s := sealGeometry(t, r, p, "cube", cube.Positions(), cube.Colors(), cube.Indices())

	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(s))
	r.Clear()
	require.NoError(t, r.DrawIndexedTriangles(cube.IndexCount()))

	stats := r.Stats()
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 36, stats.Indices)
	assert.Equal(t, 12, stats.Triangles)
	assert.Zero(t, stats.Skipped)

	assert.NotEqual(t, black, dev.Pixel(width/2, height/2))
	assert.Equal(t, black, dev.Pixel(0, 0))
	assert.Less(t, dev.Depth(width/2, height/2), float32(1))
}

func TestDrawSpike(t *testing.T) {
	r, _ := acquire(t)
	p := linkMesh(t, r)
	spike := model.Spike()
	s := sealGeometry(t, r, p, "spike", spike.Positions(), spike.Colors(), spike.Indices())

	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(s))
	r.Clear()
	require.NoError(t, r.DrawIndexedTriangles(spike.IndexCount()))
	assert.Equal(t, 36, r.Stats().Triangles)
	assert.Equal(t, 108, r.Stats().Indices)
}

func TestMostRecentBindingStateWins(t *testing.T) {
	r, dev := acquire(t)
	p := linkMesh(t, r)
	left := sealGeometry(t, r, p, "left", quad(-1, -0.1), solid(1, 0, 0, 4), quadIndices)
	right := sealGeometry(t, r, p, "right", quad(0.1, 1), solid(0, 1, 0, 4), quadIndices)

	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(left))
	require.NoError(t, r.BindBindingState(right))
	assert.Equal(t, right, r.ActiveBindingState())

	r.Clear()
	require.NoError(t, r.DrawIndexedTriangles(6))
	assert.Equal(t, black, dev.Pixel(4, height/2))
	assert.Equal(t, [4]uint8{0, 255, 0, 255}, dev.Pixel(width-4, height/2))
}

func TestDrawStridedAndOffsetAttributes(t *testing.T) {
	positions := quad(-1, 1)
	colors := solid(0, 0, 1, 4)

	interleaved := make([]float32, 0, 24)
	for v := range 4 {
		interleaved = append(interleaved, positions[v*3:v*3+3]...)
		interleaved = append(interleaved, colors[v*3:v*3+3]...)
	}
	packed := append(append([]float32{}, positions...), colors...)

	tests := []struct {
		name       string
		data       []float32
		posOptions []binding_state.AttributeOption
		colOptions []binding_state.AttributeOption
	}{
		{
			name:       "interleaved",
			data:       interleaved,
			posOptions: []binding_state.AttributeOption{binding_state.WithStride(24)},
			colOptions: []binding_state.AttributeOption{binding_state.WithStride(24), binding_state.WithOffset(12)},
		},
		{
			name:       "packed blocks",
			data:       packed,
			colOptions: []binding_state.AttributeOption{binding_state.WithOffset(len(positions) * 4)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, dev := acquire(t)
			p := linkMesh(t, r)

			vb, err := r.CreateVertexBuffer(tt.data)
			require.NoError(t, err)
			ib, err := r.CreateIndexBuffer(quadIndices)
			require.NoError(t, err)
			posLoc, err := r.AttributeLocation(p, "vertexPosition")
			require.NoError(t, err)
			colLoc, err := r.AttributeLocation(p, "vertexColor")
			require.NoError(t, err)

			s := r.BeginBindingState(tt.name)
			require.NoError(t, s.BindAttribute(posLoc, 3, vb, tt.posOptions...))
			require.NoError(t, s.BindAttribute(colLoc, 3, vb, tt.colOptions...))
			require.NoError(t, s.SetIndexBuffer(ib))
			require.NoError(t, s.End())

			r.UseProgram(p)
			require.NoError(t, r.BindBindingState(s))
			r.Clear()
			require.NoError(t, r.DrawIndexedTriangles(len(quadIndices)))

			assert.Equal(t, 2, r.Stats().Triangles)
			assert.Equal(t, [4]uint8{0, 0, 255, 255}, dev.Pixel(width/2, height/2))
			assert.Equal(t, [4]uint8{0, 0, 255, 255}, dev.Pixel(2, 2))
		})
	}
}

func TestRecordingDoesNotDisturbActiveState(t *testing.T) {
	r, dev := acquire(t)
	p := linkMesh(t, r)
	left := sealGeometry(t, r, p, "left", quad(-1, -0.1), solid(1, 0, 0, 4), quadIndices)

	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(left))

	open := r.BeginBindingState("open")
	assert.ErrorIs(t, r.BindBindingState(open), binding_state.ErrNotSealed)
	_ = sealGeometry(t, r, p, "right", quad(0.1, 1), solid(0, 1, 0, 4), quadIndices)

	r.Clear()
	require.NoError(t, r.DrawIndexedTriangles(6))
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, dev.Pixel(4, height/2))
	assert.Equal(t, black, dev.Pixel(width-4, height/2))
}

func TestEmptyGeometry(t *testing.T) {
	r, dev := acquire(t, WithClearColor(common.Color{R: 1, A: 1}))
	p := linkMesh(t, r)
	s := sealGeometry(t, r, p, "empty", []float32{}, []float32{}, []uint32{})

	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(s))
	r.Clear()
	require.NoError(t, r.DrawIndexedTriangles(0))

	stats := r.Stats()
	assert.Zero(t, stats.DrawCalls)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, 1, stats.Clears)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, dev.Pixel(1, 1))
}

func TestSkippedDraws(t *testing.T) {
	r, dev := acquire(t)

	// no program, no binding state
	require.NoError(t, r.DrawIndexedTriangles(3))

	p := linkMesh(t, r)
	r.UseProgram(p)
	require.NoError(t, r.DrawIndexedTriangles(3))

	pos, err := r.CreateVertexBuffer(quad(-1, 1))
	require.NoError(t, err)
	noIndex := r.BeginBindingState("no index")
	require.NoError(t, noIndex.BindAttribute(0, 3, pos))
	require.NoError(t, noIndex.End())
	require.NoError(t, r.BindBindingState(noIndex))
	require.NoError(t, r.DrawIndexedTriangles(3))

	s := sealGeometry(t, r, p, "quad", quad(-1, 1), solid(1, 1, 1, 4), quadIndices)
	require.NoError(t, r.BindBindingState(s))
	require.NoError(t, r.DrawIndexedTriangles(9))

	stats := r.Stats()
	assert.Equal(t, 4, stats.Skipped)
	assert.Zero(t, stats.DrawCalls)
	assert.Equal(t, 0, dev.Frames())
}

func TestPartialTriangleCount(t *testing.T) {
	r, _ := acquire(t)
	p := linkMesh(t, r)
	s := sealGeometry(t, r, p, "quad", quad(-1, 1), solid(1, 1, 1, 4), quadIndices)
	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(s))

	require.NoError(t, r.DrawIndexedTriangles(5))
	require.NoError(t, r.DrawIndexedTriangles(2))
	stats := r.Stats()
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 3, stats.Indices)
	assert.Equal(t, 1, stats.Triangles)
}

func TestUnboundAttributeSurfacesDeviceError(t *testing.T) {
	r, _ := acquire(t)
	p := linkMesh(t, r)
	pos, err := r.CreateVertexBuffer(quad(-1, 1))
	require.NoError(t, err)
	idx, err := r.CreateIndexBuffer(quadIndices)
	require.NoError(t, err)

	s := r.BeginBindingState("positions only")
	require.NoError(t, s.BindAttribute(0, 3, pos))
	require.NoError(t, s.SetIndexBuffer(idx))
	require.NoError(t, s.End())

	r.UseProgram(p)
	require.NoError(t, r.BindBindingState(s))
	assert.ErrorIs(t, r.DrawIndexedTriangles(6), device.ErrUnboundAttribute)
}

func TestPresent(t *testing.T) {
	r, dev := acquire(t)
	r.Clear()
	require.NoError(t, r.Present())
	assert.Equal(t, 1, dev.Frames())
}

func TestAllocationFailure(t *testing.T) {
	dev := headless_backend.NewHeadless(headless_backend.WithMemoryLimit(8))
	r, err := AcquireContext(dev, surface.NewRegistry(surface.NewOffscreen("canvas", 2, 2)), "canvas")
	require.NoError(t, err)
	defer r.Release()

	_, err = r.CreateVertexBuffer(make([]float32, 3))
	var allocErr *device.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, 12, allocErr.Size)
}

func TestParseBackendType(t *testing.T) {
	for name, want := range map[string]RendererBackendType{
		"headless": BackendTypeHeadless,
		"WGPU":     BackendTypeWGPU,
		"opengl":   BackendTypeOpenGL,
	} {
		got, err := ParseBackendType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBackendType("vulkan")
	assert.Error(t, err)
	assert.Equal(t, "wgpu", BackendTypeWGPU.String())
}

func TestIndexBufferFormatForLargeMeshes(t *testing.T) {
	assert.Equal(t, device.IndexFormatUint32, buffer.ChooseIndexFormat([]uint32{0, 65536}))
}
