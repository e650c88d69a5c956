package backend

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/config"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/headless_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenHeadless(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendHeadless
	cfg.Surface.Width, cfg.Surface.Height = 40, 30

	target, err := Open(cfg)
	require.NoError(t, err)
	defer target.Close()

	assert.Equal(t, renderer.BackendTypeHeadless, target.Type)
	assert.Nil(t, target.Window)
	assert.Equal(t, headless_backend.Name, target.Device.Name())

	s, err := target.Surfaces.Resolve(cfg.Surface.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, s.Width())
	assert.Equal(t, 30, s.Height())

	r, err := renderer.AcquireContext(target.Device, target.Surfaces, cfg.Surface.ID)
	require.NoError(t, err)
	assert.Equal(t, s, r.Surface())
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "vulkan"
	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestOpenWindowFailureIsContextUnavailable(t *testing.T) {
	driverErr := errors.New("GLX: failed to create context: requested OpenGL version 4.1, got 3.0")
	restore := newWindow
	newWindow = func(...window.WindowBuilderOption) (window.Window, error) {
		return nil, driverErr
	}
	defer func() { newWindow = restore }()

	for _, backendName := range []string{config.BackendOpenGL, config.BackendWGPU} {
		cfg := config.Default()
		cfg.Backend = backendName

		target, err := Open(cfg)
		assert.Nil(t, target, backendName)
		require.Error(t, err, backendName)
		assert.ErrorIs(t, err, device.ErrContextUnavailable, backendName)
		assert.ErrorIs(t, err, driverErr, backendName)
		assert.Contains(t, err.Error(), "window", backendName)
	}
}

type closedWindow struct {
	window.Window
	closes int
}

func (w *closedWindow) Close() error {
	w.closes++
	return errors.New("window is not open")
}

func TestCloseWindowLogsCloseError(t *testing.T) {
	var buf bytes.Buffer
	restore := logger.Logger()
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer logger.SetLogger(restore)

	win := &closedWindow{}
	target := &Target{Window: win}
	target.CloseWindow()
	target.Close()

	assert.Equal(t, 2, win.closes)
	assert.Contains(t, buf.String(), "window already closed")
	assert.Contains(t, buf.String(), "window is not open")

	(&Target{}).CloseWindow()
}
