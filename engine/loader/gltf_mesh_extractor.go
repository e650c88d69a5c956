package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfGeometry accumulates the flattened triangle lists of every mesh instance in a document.
type gltfGeometry struct {
	positions    []float32
	colors       []float32
	indices      []uint32
	defaultColor [3]float32
}

// extractGeometry flattens the document's default scene into a single triangle list in world space.
// Documents without scenes contribute every mesh once with an identity transform.
//
// Parameters:
//   - p: the parser holding a loaded document
//   - defaultColor: the rgb color given to vertices without a COLOR_0 attribute
//
// Returns:
//   - *gltfGeometry: the merged geometry
//   - error: error if an accessor cannot be read
func extractGeometry(p *gltfParser, defaultColor [3]float32) (*gltfGeometry, error) {
	doc := p.document
	g := &gltfGeometry{defaultColor: defaultColor}

	if len(doc.Scenes) == 0 {
		for i := range doc.Meshes {
			if err := g.appendMesh(p, i, mgl32.Ident4()); err != nil {
				return nil, err
			}
		}
		return g, nil
	}

	sceneIndex := 0
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
		return nil, fmt.Errorf("scene index %d out of range", sceneIndex)
	}

	visiting := make(map[int]bool)
	for _, root := range doc.Scenes[sceneIndex].Nodes {
		if err := g.appendNode(p, root, mgl32.Ident4(), visiting); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *gltfGeometry) appendNode(p *gltfParser, index int, parent mgl32.Mat4, visiting map[int]bool) error {
	doc := p.document
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	if visiting[index] {
		return fmt.Errorf("node %d is its own ancestor", index)
	}
	visiting[index] = true
	defer delete(visiting, index)

	node := &doc.Nodes[index]
	world := parent.Mul4(nodeMatrix(node))
	if node.Mesh != nil {
		if err := g.appendMesh(p, *node.Mesh, world); err != nil {
			return fmt.Errorf("node %q: %w", node.Name, err)
		}
	}
	for _, child := range node.Children {
		if err := g.appendNode(p, child, world, visiting); err != nil {
			return err
		}
	}
	return nil
}

func (g *gltfGeometry) appendMesh(p *gltfParser, index int, world mgl32.Mat4) error {
	doc := p.document
	if index < 0 || index >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", index)
	}
	mesh := &doc.Meshes[index]

	// A mirroring transform flips the winding, so each triangle is reversed to stay counter-clockwise.
	mirrored := world.Det() < 0

	for pi, prim := range mesh.Primitives {
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			logger.Logger().Warn("skipping non-triangle primitive", "mesh", mesh.Name, "primitive", pi, "mode", *prim.Mode)
			continue
		}

		posIndex, ok := prim.Attributes[gltfAttributePosition]
		if !ok {
			return fmt.Errorf("mesh %q primitive %d has no %s attribute", mesh.Name, pi, gltfAttributePosition)
		}
		positions, err := p.readVec3Accessor(posIndex)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d positions: %w", mesh.Name, pi, err)
		}

		var colors [][3]float32
		if colorIndex, ok := prim.Attributes[gltfAttributeColor]; ok {
			colors, err = p.readColorAccessor(colorIndex)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d colors: %w", mesh.Name, pi, err)
			}
			if len(colors) != len(positions) {
				return fmt.Errorf("mesh %q primitive %d has %d colors for %d positions", mesh.Name, pi, len(colors), len(positions))
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = p.readIndicesAccessor(*prim.Indices)
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d indices: %w", mesh.Name, pi, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := uint32(len(g.positions) / 3)
		for i, pos := range positions {
			v := world.Mul4x1(mgl32.Vec4{pos[0], pos[1], pos[2], 1})
			g.positions = append(g.positions, v[0], v[1], v[2])
			c := g.defaultColor
			if colors != nil {
				c = colors[i]
			}
			g.colors = append(g.colors, c[0], c[1], c[2])
		}

		for t := 0; t+2 < len(indices); t += 3 {
			a, b, c := indices[t], indices[t+1], indices[t+2]
			if mirrored {
				b, c = c, b
			}
			g.indices = append(g.indices, base+a, base+b, base+c)
		}
		if rem := len(indices) % 3; rem != 0 {
			logger.Logger().Warn("dropping trailing indices", "mesh", mesh.Name, "primitive", pi, "count", rem)
		}
	}
	return nil
}

// nodeMatrix returns the node's local transform, either its matrix or translation * rotation * scale.
func nodeMatrix(n *gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}

	m := mgl32.Ident4()
	if n.Translation != nil {
		t := n.Translation
		m = m.Mul4(mgl32.Translate3D(t[0], t[1], t[2]))
	}
	if n.Rotation != nil {
		r := n.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if n.Scale != nil {
		s := n.Scale
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}
