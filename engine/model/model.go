package model

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

// ErrInvalidGeometry is wrapped by every error returned from Model.Validate.
var ErrInvalidGeometry = errors.New("invalid geometry")

// model is the implementation of the Model interface.
type model struct {
	name      string
	positions []float32
	colors    []float32
	indices   []uint32
}

// Model is a static indexed triangle mesh with one RGB color per vertex. Positions and colors are
// flat float arrays with three components per vertex; indices come in triples, one triangle each,
// wound counter-clockwise when seen from outside the surface.
type Model interface {
	// Name returns the model's identifier.
	//
	// Returns:
	//   - string: the name of the model
	Name() string

	// Positions returns the flat xyz position array.
	//
	// Returns:
	//   - []float32: three floats per vertex
	Positions() []float32

	// Colors returns the flat rgb color array.
	//
	// Returns:
	//   - []float32: three floats per vertex
	Colors() []float32

	// Indices returns the triangle list indices.
	//
	// Returns:
	//   - []uint32: three indices per triangle
	Indices() []uint32

	// VertexCount returns the number of vertices described by the position array.
	//
	// Returns:
	//   - int: len(Positions()) / 3
	VertexCount() int

	// IndexCount returns the number of indices, which is the count passed to an indexed draw.
	//
	// Returns:
	//   - int: len(Indices())
	IndexCount() int

	// TriangleCount returns the number of triangles assembled from the index list.
	//
	// Returns:
	//   - int: len(Indices()) / 3
	TriangleCount() int

	// Validate checks the geometry contract: positions and colors are three floats per vertex and
	// the same length, the index count is a multiple of three and every index names a vertex.
	//
	// Returns:
	//   - error: nil, or an error wrapping ErrInvalidGeometry describing the first violation
	Validate() error

	// SignedVolume returns the signed volume enclosed by the triangles. For a closed mesh wound
	// counter-clockwise when seen from outside the result is positive.
	//
	// Returns:
	//   - float32: the signed volume
	SignedVolume() float32

	// IsClosed reports whether every directed edge is matched by exactly one opposite edge, which
	// holds for a watertight and consistently wound surface.
	//
	// Returns:
	//   - bool: true for a closed, consistently oriented surface
	IsClosed() bool

	// BoundingRadius returns the largest distance from the origin to any vertex.
	//
	// Returns:
	//   - float32: the bounding sphere radius around the origin
	BoundingRadius() float32
}

var _ Model = &model{}

// NewModel creates a new Model with all specified options applied.
//
// Parameters:
//   - options: functional options to configure the model
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Positions() []float32 {
	return m.positions
}

func (m *model) Colors() []float32 {
	return m.colors
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) VertexCount() int {
	return len(m.positions) / 3
}

func (m *model) IndexCount() int {
	return len(m.indices)
}

func (m *model) TriangleCount() int {
	return len(m.indices) / 3
}

func (m *model) Validate() error {
	if len(m.positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats is not a multiple of 3", ErrInvalidGeometry, len(m.positions))
	}
	if len(m.colors) != len(m.positions) {
		return fmt.Errorf("%w: %d color floats for %d position floats", ErrInvalidGeometry, len(m.colors), len(m.positions))
	}
	if len(m.indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidGeometry, len(m.indices))
	}
	vertexCount := uint32(m.VertexCount())
	for i, idx := range m.indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: index %d at position %d is out of range for %d vertices", ErrInvalidGeometry, idx, i, vertexCount)
		}
	}
	return nil
}

func (m *model) SignedVolume() float32 {
	var volume float64
	for t := 0; t+2 < len(m.indices); t += 3 {
		a := m.vertex(m.indices[t])
		b := m.vertex(m.indices[t+1])
		c := m.vertex(m.indices[t+2])
		// a . (b x c)
		volume += float64(a[0]*(b[1]*c[2]-b[2]*c[1]) +
			a[1]*(b[2]*c[0]-b[0]*c[2]) +
			a[2]*(b[0]*c[1]-b[1]*c[0]))
	}
	return float32(volume / 6)
}

func (m *model) IsClosed() bool {
	if len(m.indices) == 0 || len(m.indices)%3 != 0 {
		return false
	}
	type edge struct{ from, to uint32 }
	edges := make(map[edge]int, len(m.indices))
	for t := 0; t < len(m.indices); t += 3 {
		for i := range 3 {
			e := edge{m.indices[t+i], m.indices[t+(i+1)%3]}
			edges[e]++
			if edges[e] > 1 {
				return false
			}
		}
	}
	for e := range edges {
		if edges[edge{e.to, e.from}] != 1 {
			return false
		}
	}
	return true
}

func (m *model) BoundingRadius() float32 {
	var maxSq float32
	for i := 0; i+2 < len(m.positions); i += 3 {
		x, y, z := m.positions[i], m.positions[i+1], m.positions[i+2]
		if d := x*x + y*y + z*z; d > maxSq {
			maxSq = d
		}
	}
	return math32.Sqrt(maxSq)
}

// vertex returns the position of vertex i, or the origin when i is out of range.
func (m *model) vertex(i uint32) [3]float32 {
	base := int(i) * 3
	if base+2 >= len(m.positions) {
		return [3]float32{}
	}
	return [3]float32{m.positions[base], m.positions[base+1], m.positions[base+2]}
}
