// Package backend opens the device and surfaces a configuration asks for. It is the only package
// that links every device implementation, so that the rest of the engine stays free of cgo.
package backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/config"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/gl_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/headless_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-mesh/engine/surface"
	"github.com/Carmen-Shannon/oxy-mesh/engine/window"
)

// Target is an opened device together with the surfaces it can be attached to.
type Target struct {
	// Type is the backend that was opened.
	Type renderer.RendererBackendType

	// Device is the unattached device. Context acquisition attaches it.
	Device device.Device

	// Surfaces holds the configured surface under its configured identifier.
	Surfaces *surface.Registry

	// Window is the on-screen window, nil for the headless backend.
	Window window.Window
}

// Open creates the device selected by cfg.Backend and the surface registered under cfg.Surface.ID.
// The wgpu and opengl backends open a window sized and titled from the configuration; the headless
// backend registers an offscreen surface of the same size.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - *Target: the device and its surfaces
//   - error: an error if the backend is unknown, or one wrapping device.ErrContextUnavailable if
//     its window cannot be created
func Open(cfg config.Config) (*Target, error) {
	typ, err := renderer.ParseBackendType(cfg.Backend)
	if err != nil {
		return nil, err
	}

	t := &Target{Type: typ}
	switch typ {
	case renderer.BackendTypeHeadless:
		var options []headless_backend.HeadlessBuilderOption
		if cfg.Render.Workers > 0 {
			options = append(options, headless_backend.WithWorkers(cfg.Render.Workers))
		}
		t.Device = headless_backend.NewHeadless(options...)
		t.Surfaces = surface.NewRegistry(surface.NewOffscreen(cfg.Surface.ID, cfg.Surface.Width, cfg.Surface.Height))

	case renderer.BackendTypeWGPU:
		win, err := openWindow(cfg, window.ClientAPINone)
		if err != nil {
			return nil, err
		}
		dev := wgpu_backend.NewWGPU()
		win.SetResizeCallback(dev.Resize)
		t.Device, t.Window = dev, win
		t.Surfaces = surface.NewRegistry(win)

	case renderer.BackendTypeOpenGL:
		win, err := openWindow(cfg, window.ClientAPIOpenGL)
		if err != nil {
			return nil, err
		}
		dev := gl_backend.NewGL()
		win.SetResizeCallback(dev.Resize)
		t.Device, t.Window = dev, win
		t.Surfaces = surface.NewRegistry(win)
	}

	logger.Logger().Info("backend opened", "backend", typ, "surface", cfg.Surface.ID)
	return t, nil
}

// newWindow opens the platform window. Tests replace it to simulate a missing driver.
var newWindow = window.NewWindow

// openWindow reports window and client API failures as device.ErrContextUnavailable, since the
// drawable context is what could not be acquired.
func openWindow(cfg config.Config, api window.ClientAPI) (window.Window, error) {
	win, err := newWindow(
		window.WithSurfaceID(cfg.Surface.ID),
		window.WithTitle(common.Coalesce(cfg.Surface.Title, cfg.Surface.ID)),
		window.WithWidth(cfg.Surface.Width),
		window.WithHeight(cfg.Surface.Height),
		window.WithClientAPI(api),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s window: %w", device.ErrContextUnavailable, api, err)
	}
	return win, nil
}

// Close releases the device and closes the window, if any.
func (t *Target) Close() {
	if t.Device != nil {
		t.Device.Release()
	}
	t.CloseWindow()
}

// CloseWindow asks the window to close, ending its message loop. A window that is already closed
// is logged at debug level rather than reported.
func (t *Target) CloseWindow() {
	if t.Window == nil {
		return
	}
	if err := t.Window.Close(); err != nil {
		logger.Logger().Debug("window already closed", "error", err)
	}
}
