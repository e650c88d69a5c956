package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/camera"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/program"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProgram struct {
	uniforms map[string][16]float32
}

var _ program.Program = &recordingProgram{}

func (p *recordingProgram) ID() device.ProgramID               { return 1 }
func (p *recordingProgram) AttributeLocation(name string) int32 { return program.NotFound }
func (p *recordingProgram) SetUniformMatrix4(name string, m [16]float32) error {
	if name != DefaultTransformUniform {
		return device.ErrUniformNotFound
	}
	p.uniforms[name] = m
	return nil
}

type clipContext bool

func (c clipContext) ClipDepthZeroToOne() bool { return bool(c) }

func TestCameraConfiguratorWritesTransform(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(9, 4, 6), camera.WithTarget(0, 0, 3.2), camera.WithUp(0, 0, 1))
	model := mgl32.Translate3D(1, 2, 3)
	p := &recordingProgram{uniforms: map[string][16]float32{}}

	NewCameraConfigurator(cam, WithModelMatrix(model)).Configure(clipContext(false), p, 800, 600)

	assert.InDelta(t, 800.0/600.0, cam.Aspect(), 1e-6)
	got, ok := p.uniforms[DefaultTransformUniform]
	require.True(t, ok)
	want := mgl32.Mat4(cam.ViewProjectionMatrix()).Mul4(model)
	for i := range 16 {
		assert.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
}

func TestCameraConfiguratorFollowsClipConvention(t *testing.T) {
	p := &recordingProgram{uniforms: map[string][16]float32{}}
	glCam := camera.NewCamera()
	NewCameraConfigurator(glCam).Configure(clipContext(false), p, 4, 4)
	glMVP := p.uniforms[DefaultTransformUniform]

	wgpuCam := camera.NewCamera()
	NewCameraConfigurator(wgpuCam).Configure(clipContext(true), p, 4, 4)
	wgpuMVP := p.uniforms[DefaultTransformUniform]

	assert.NotEqual(t, glMVP, wgpuMVP)
	assert.Equal(t, glMVP[0], wgpuMVP[0])
}

func TestCameraConfiguratorToleratesMissingUniform(t *testing.T) {
	p := &recordingProgram{uniforms: map[string][16]float32{}}
	assert.NotPanics(t, func() {
		NewCameraConfigurator(camera.NewCamera(), WithTransformUniform("mvp")).Configure(clipContext(false), p, 0, 0)
		NewCameraConfigurator(camera.NewCamera()).Configure(nil, nil, 10, 10)
	})
	assert.Empty(t, p.uniforms)
}

func TestConfiguratorFunc(t *testing.T) {
	var gotWidth, gotHeight int
	var c Configurator = ConfiguratorFunc(func(_ ConfigContext, _ program.Program, w, h int) {
		gotWidth, gotHeight = w, h
	})
	c.Configure(clipContext(false), nil, 3, 2)
	assert.Equal(t, 3, gotWidth)
	assert.Equal(t, 2, gotHeight)
}
