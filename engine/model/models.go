package model

// SpikePalette is the five color cycle applied to the spike model's vertices.
var SpikePalette = [][3]float32{
	{1, 1, 0},
	{1, 1, 1},
	{0, 0, 1},
	{0, 1, 1},
	{1, 0, 0},
}

var spikePositions = []float32{
	-0.14, -1.702, 5.936,
	-0.14, -1.489, 6.031,
	0, -2.115, 6.089,
	0.14, -1.702, 5.936,
	0, -1.794, 6.45,
	-0.14, 0.926, 0.609,
	-0.14, 0.713, 0.514,
	0, 0.482, 3.66,
	0.14, -1.489, 6.031,
	0, -2.025, 6.347,
	-0.14, 0.661, 3.74,
	0, 1.033, 0.103,
	-0.14, 1.858, 4.274,
	0.14, 1.858, 4.274,
	0.14, 0.713, 0.514,
	0, 0.55, 0.105,
	0, 2.115, 4.387,
	0, 0.802, 0,
	0.14, 0.661, 3.74,
	0.14, 0.926, 0.609,
}

var spikeIndices = []uint32{
	12, 10, 1,
	2, 3, 9,
	3, 18, 8,
	12, 5, 10,
	6, 10, 5,
	0, 1, 10,
	14, 15, 17,
	7, 18, 3,
	15, 6, 17,
	9, 4, 0,
	9, 0, 2,
	15, 7, 6,
	9, 3, 4,
	8, 13, 16,
	7, 3, 2,
	8, 4, 3,
	10, 6, 7,
	5, 12, 16,
	11, 19, 14,
	14, 7, 15,
	0, 10, 7,
	13, 8, 18,
	19, 13, 18,
	16, 1, 4,
	4, 8, 16,
	1, 16, 12,
	18, 7, 14,
	11, 17, 6,
	11, 5, 16,
	16, 13, 19,
	0, 7, 2,
	11, 6, 5,
	1, 0, 4,
	16, 19, 11,
	17, 11, 14,
	18, 14, 19,
}

// Spike returns the closed 20 vertex, 36 triangle model drawn by the example viewer.
// Vertices are colored by repeating SpikePalette.
//
// Returns:
//   - Model: a fresh copy of the spike model
func Spike() Model {
	return NewModel(
		WithName("spike"),
		WithPositions(append([]float32(nil), spikePositions...)),
		WithPalette(SpikePalette),
		WithIndices(append([]uint32(nil), spikeIndices...)),
	)
}

// Cube returns an axis aligned cube of the given half extent centered on the origin: 8 vertices,
// 12 triangles and 36 indices, each corner colored by its position in the RGB cube.
//
// Parameters:
//   - half: half the edge length
//
// Returns:
//   - Model: the cube model
func Cube(half float32) Model {
	positions := make([]float32, 0, 8*3)
	colors := make([]float32, 0, 8*3)
	// corner i has x set by bit 0, y by bit 1 and z by bit 2
	for i := range 8 {
		var p, c [3]float32
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				p[axis], c[axis] = half, 1
			} else {
				p[axis], c[axis] = -half, 0
			}
		}
		positions = append(positions, p[:]...)
		colors = append(colors, c[:]...)
	}

	indices := []uint32{
		0, 2, 3, 0, 3, 1, // -z
		4, 5, 7, 4, 7, 6, // +z
		0, 4, 6, 0, 6, 2, // -x
		1, 3, 7, 1, 7, 5, // +x
		0, 1, 5, 0, 5, 4, // -y
		2, 6, 7, 2, 7, 3, // +y
	}

	return NewModel(
		WithName("cube"),
		WithPositions(positions),
		WithColors(colors),
		WithIndices(indices),
	)
}
