// Package config decodes the application level settings used to assemble an engine: which device
// backend to open, the drawable surface, the render baseline and the camera placement.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/pelletier/go-toml/v2"
)

//go:embed default.toml
var defaultDocument []byte

// Backend names accepted in the backend field.
const (
	BackendHeadless = "headless"
	BackendWGPU     = "wgpu"
	BackendOpenGL   = "opengl"
)

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid config")

// Config is the decoded application configuration.
type Config struct {
	Backend   string        `toml:"backend"`
	Profiling bool          `toml:"profiling"`
	Surface   SurfaceConfig `toml:"surface"`
	Render    RenderConfig  `toml:"render"`
	Camera    CameraConfig  `toml:"camera"`
}

// SurfaceConfig describes the drawable the context is acquired against.
type SurfaceConfig struct {
	ID     string `toml:"id"`
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RenderConfig holds the context baseline and device tuning.
type RenderConfig struct {
	// ClearColor holds 3 or 4 channels; alpha defaults to 1.
	ClearColor       []float32 `toml:"clear_color"`
	DepthTest        bool      `toml:"depth_test"`
	StrictAttributes bool      `toml:"strict_attributes"`
	// Workers is the rasterizer worker count for the headless backend.
	Workers int `toml:"workers"`
}

// CameraConfig places the camera used by the default scene configurator.
type CameraConfig struct {
	Eye    [3]float32 `toml:"eye"`
	Target [3]float32 `toml:"target"`
	Up     [3]float32 `toml:"up"`
	// FovY is the vertical field of view in degrees.
	FovY float32 `toml:"fov_y"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the decoded default document
func Default() Config {
	cfg, err := decode(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// Load decodes a TOML document on top of the defaults and validates the result.
// Keys missing from the document keep their default values; unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the merged configuration
//   - error: a decode error, or an error wrapping ErrInvalid when validation fails
func Load(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("config %d:%d: %w", row, col, err)
		}
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the configuration back into a TOML document.
//
// Returns:
//   - []byte: the encoded document
//   - error: an error if encoding fails
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks the configuration for values no backend can honor.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalid describing the first problem found
func (c Config) Validate() error {
	switch c.Backend {
	case BackendHeadless, BackendWGPU, BackendOpenGL:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}
	if c.Surface.ID == "" {
		return fmt.Errorf("%w: surface id is empty", ErrInvalid)
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("%w: surface size %dx%d", ErrInvalid, c.Surface.Width, c.Surface.Height)
	}
	if _, err := common.ColorFromSlice(c.Render.ClearColor); err != nil {
		return fmt.Errorf("%w: clear_color: %v", ErrInvalid, err)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return fmt.Errorf("%w: fov_y %g out of range", ErrInvalid, c.Camera.FovY)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: depth range [%g, %g]", ErrInvalid, c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// ClearColor returns the configured clear color.
//
// Returns:
//   - common.Color: the clear color, opaque black if the field is malformed
func (c Config) ClearColor() common.Color {
	col, err := common.ColorFromSlice(c.Render.ClearColor)
	if err != nil {
		return common.Black
	}
	return col
}

func decode(data []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}
