package config

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendWGPU, cfg.Backend)
	assert.Equal(t, "canvas", cfg.Surface.ID)
	assert.True(t, cfg.Render.DepthTest)
	assert.False(t, cfg.Render.StrictAttributes)
	assert.Equal(t, common.Black, cfg.ClearColor())
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load([]byte(`
backend = "headless"

[surface]
width = 64
height = 32

[render]
clear_color = [0.2, 0.3, 0.4]
strict_attributes = true
`))
	require.NoError(t, err)

	assert.Equal(t, BackendHeadless, cfg.Backend)
	assert.Equal(t, 64, cfg.Surface.Width)
	assert.Equal(t, 32, cfg.Surface.Height)
	assert.Equal(t, "canvas", cfg.Surface.ID)
	assert.True(t, cfg.Render.StrictAttributes)
	assert.True(t, cfg.Render.DepthTest)
	assert.Equal(t, common.Color{R: 0.2, G: 0.3, B: 0.4, A: 1}, cfg.ClearColor())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load([]byte(`msaa = 4`))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"backend":     `backend = "vulkan"`,
		"size":        "[surface]\nwidth = 0",
		"clear color": "[render]\nclear_color = [1.0]",
		"depth range": "[camera]\nnear = 5.0\nfar = 1.0",
		"fov":         "[camera]\nfov_y = 200.0",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendOpenGL
	data, err := cfg.Marshal()
	require.NoError(t, err)

	back, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
