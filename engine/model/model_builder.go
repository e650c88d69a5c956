package model

// ModelBuilderOption is a functional option applied to a model during construction via NewModel.
type ModelBuilderOption func(*model)

// WithName sets the model's identifier.
//
// Parameters:
//   - name: the name of the model
//
// Returns:
//   - ModelBuilderOption: a function that sets the model name
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithPositions sets the flat xyz position array.
//
// Parameters:
//   - positions: three floats per vertex
//
// Returns:
//   - ModelBuilderOption: a function that sets the positions
func WithPositions(positions []float32) ModelBuilderOption {
	return func(m *model) {
		m.positions = positions
	}
}

// WithColors sets the flat rgb color array.
//
// Parameters:
//   - colors: three floats per vertex
//
// Returns:
//   - ModelBuilderOption: a function that sets the colors
func WithColors(colors []float32) ModelBuilderOption {
	return func(m *model) {
		m.colors = colors
	}
}

// WithIndices sets the triangle list indices.
//
// Parameters:
//   - indices: three indices per triangle
//
// Returns:
//   - ModelBuilderOption: a function that sets the indices
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
	}
}

// WithPalette colors every vertex by cycling through the given palette in vertex order.
// It must be applied after WithPositions.
//
// Parameters:
//   - palette: the colors to repeat, as rgb triples
//
// Returns:
//   - ModelBuilderOption: a function that fills the colors
func WithPalette(palette [][3]float32) ModelBuilderOption {
	return func(m *model) {
		if len(palette) == 0 {
			return
		}
		n := len(m.positions) / 3
		colors := make([]float32, 0, n*3)
		for i := range n {
			c := palette[i%len(palette)]
			colors = append(colors, c[0], c[1], c[2])
		}
		m.colors = colors
	}
}
