// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Color is a linear RGBA color with each channel in the [0, 1] range.
type Color struct {
	R, G, B, A float32
}

// Black is the opaque black color used as the default clear color.
var Black = Color{R: 0, G: 0, B: 0, A: 1}

// RGBA8 quantizes the color to four 8-bit channels, clamping each channel into [0, 1] first.
//
// Returns:
//   - [4]uint8: the quantized channels in R, G, B, A order
func (c Color) RGBA8() [4]uint8 {
	return [4]uint8{quantize(c.R), quantize(c.G), quantize(c.B), quantize(c.A)}
}

// Slice returns the color as a 4-element float slice in R, G, B, A order.
//
// Returns:
//   - []float32: the channels of the color
func (c Color) Slice() []float32 {
	return []float32{c.R, c.G, c.B, c.A}
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%g, %g, %g, %g)", c.R, c.G, c.B, c.A)
}

// ColorFromSlice builds a Color from a 3 or 4 element slice. A missing alpha channel defaults to 1.
//
// Parameters:
//   - v: the channel values in R, G, B[, A] order
//
// Returns:
//   - Color: the resulting color
//   - error: an error if the slice does not hold 3 or 4 values
func ColorFromSlice(v []float32) (Color, error) {
	switch len(v) {
	case 3:
		return Color{R: v[0], G: v[1], B: v[2], A: 1}, nil
	case 4:
		return Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
	default:
		return Color{}, fmt.Errorf("color needs 3 or 4 channels, got %d", len(v))
	}
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
