package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{
		WithSurfaceID("main"),
		WithTitle("viewer"),
		WithWidth(320),
		WithHeight(240),
		WithClientAPI(ClientAPIOpenGL),
		WithResizable(false),
	} {
		opt(w)
	}

	assert.Equal(t, "main", w.ID())
	assert.Equal(t, "viewer", w.title)
	assert.Equal(t, 320, w.Width())
	assert.Equal(t, 240, w.Height())
	assert.Equal(t, ClientAPIOpenGL, w.ClientAPI())
	assert.False(t, w.resizable)
}

func TestUnspawnedWindow(t *testing.T) {
	w := &engineWindow{clientAPI: ClientAPIOpenGL}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())

	// No context yet, so these are no-ops.
	w.MakeContextCurrent()
	w.SwapBuffers()

	w.clientAPI = ClientAPINone
	assert.Nil(t, w.SurfaceDescriptor())
}

func TestClientAPIString(t *testing.T) {
	assert.Equal(t, "none", ClientAPINone.String())
	assert.Equal(t, "opengl", ClientAPIOpenGL.String())
}
