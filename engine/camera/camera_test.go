package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(m [16]float32, p mgl32.Vec3) mgl32.Vec3 {
	clip := mgl32.Mat4(m).Mul4x1(p.Vec4(1))
	return clip.Vec3().Mul(1 / clip.W())
}

func TestTargetProjectsToCenter(t *testing.T) {
	c := NewCamera(
		WithPosition(9, 4, 6),
		WithTarget(0, 0, 3.2),
		WithUp(0, 0, 1),
		WithAspect(4.0/3.0),
	)

	ndc := project(c.ViewProjectionMatrix(), mgl32.Vec3{0, 0, 3.2})
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.Greater(t, ndc.Z(), float32(-1))
	assert.Less(t, ndc.Z(), float32(1))
}

func TestClipDepthConvention(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, 5), WithNear(1), WithFar(10))

	nearPoint := mgl32.Vec3{0, 0, 4}
	farPoint := mgl32.Vec3{0, 0, -5}

	assert.InDelta(t, -1, project(c.ViewProjectionMatrix(), nearPoint).Z(), 1e-5)
	assert.InDelta(t, 1, project(c.ViewProjectionMatrix(), farPoint).Z(), 1e-5)

	c.SetClipDepthZeroToOne(true)
	assert.InDelta(t, 0, project(c.ViewProjectionMatrix(), nearPoint).Z(), 1e-5)
	assert.InDelta(t, 1, project(c.ViewProjectionMatrix(), farPoint).Z(), 1e-5)
}

func TestSettersRecompute(t *testing.T) {
	c := NewCamera()
	before := c.ViewMatrix()

	c.SetPosition(1, 2, 3)
	assert.NotEqual(t, before, c.ViewMatrix())

	x, y, z := c.Position()
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{x, y, z})

	proj := c.ProjectionMatrix()
	c.SetAspect(2)
	assert.NotEqual(t, proj, c.ProjectionMatrix())
	assert.Equal(t, float32(2), c.Aspect())
}
