package wgpu_backend

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// pipelineKey identifies a render pipeline. WebGPU bakes the vertex layout into the pipeline, so a
// program needs one pipeline per vertex array it is drawn with.
type pipelineKey struct {
	program device.ProgramID
	array   device.VertexArrayID
}

// pipelineCache holds the render pipelines created lazily on first draw.
type pipelineCache struct {
	pipelines map[pipelineKey]*wgpu.RenderPipeline
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{pipelines: make(map[pipelineKey]*wgpu.RenderPipeline)}
}

func (c *pipelineCache) get(key pipelineKey, create func() (*wgpu.RenderPipeline, error)) (*wgpu.RenderPipeline, error) {
	if p, ok := c.pipelines[key]; ok {
		return p, nil
	}
	p, err := create()
	if err != nil {
		return nil, err
	}
	c.pipelines[key] = p
	return p, nil
}

func (c *pipelineCache) reset() {
	for key, p := range c.pipelines {
		p.Release()
		delete(c.pipelines, key)
	}
}

// createPipelineLocked builds the render pipeline for a program and vertex array pair. Each
// attribute is fed from its own vertex buffer slot, in layout order. Must be called with mu held.
func (w *wgpuDevice) createPipelineLocked(prog *linkedProgram, layout device.VertexArrayLayout) (*wgpu.RenderPipeline, error) {
	depthCompare := wgpu.CompareFunctionLess
	if !w.baseline.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	rp, err := w.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  layout.Label + " Render Pipeline",
		Layout: prog.layout,
		Vertex: wgpu.VertexState{
			Module:     prog.vertex.module,
			EntryPoint: prog.vertex.reflection.EntryPoint,
			Buffers:    vertexBufferLayouts(layout),
		},
		Fragment: &wgpu.FragmentState{
			Module:     prog.fragment.module,
			EntryPoint: prog.fragment.reflection.EntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    w.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(w.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: w.baseline.DepthTest,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline for %q: %w", layout.Label, err)
	}
	return rp, nil
}

func vertexBufferLayouts(layout device.VertexArrayLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attrOffset, _ := attributeOffsets(a)
		out[i] = wgpu.VertexBufferLayout{
			ArrayStride: uint64(a.EffectiveStride()),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         vertexFormat(a.Components),
					Offset:         attrOffset,
					ShaderLocation: a.Location,
				},
			},
		}
	}
	return out
}

// attributeOffsets splits a binding offset into the part kept inside one vertex stride and the
// part applied when the buffer is bound, since an attribute must end within its array stride.
func attributeOffsets(a device.AttributeLayout) (attr, buffer uint64) {
	stride := uint64(a.EffectiveStride())
	offset := uint64(max(a.Offset, 0))
	if stride == 0 {
		return 0, offset
	}
	attr = offset % stride
	if attr+uint64(a.Components)*4 > stride {
		attr = 0
	}
	return attr, offset - attr
}

func vertexFormat(components int) wgpu.VertexFormat {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

func indexFormat(f device.IndexFormat) wgpu.IndexFormat {
	if f == device.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func clearValue(c common.Color) wgpu.Color {
	return wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
}

type uniformBinding struct {
	uniform    shader.Uniform
	visibility wgpu.ShaderStage
}

// groupUniforms merges the uniforms of both stages into bind groups indexed by group number. A
// uniform declared by both stages at the same slot is bound once with both visibilities. Groups
// the shaders skip are returned empty so that indices line up with the pipeline layout.
func groupUniforms(vertex, fragment *shader.Reflection) [][]uniformBinding {
	type slot struct{ group, binding uint32 }
	merged := make(map[slot]*uniformBinding)
	var maxGroup int64 = -1

	add := func(r *shader.Reflection, stage wgpu.ShaderStage) {
		for _, u := range r.Uniforms {
			k := slot{u.Group, u.Binding}
			if b, ok := merged[k]; ok {
				b.visibility |= stage
				if u.Size > b.uniform.Size {
					b.uniform.Size = u.Size
				}
				continue
			}
			merged[k] = &uniformBinding{uniform: u, visibility: stage}
			if int64(u.Group) > maxGroup {
				maxGroup = int64(u.Group)
			}
		}
	}
	add(vertex, wgpu.ShaderStageVertex)
	add(fragment, wgpu.ShaderStageFragment)

	groups := make([][]uniformBinding, maxGroup+1)
	for k, b := range merged {
		groups[k.group] = append(groups[k.group], *b)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool { return g[i].uniform.Binding < g[j].uniform.Binding })
	}
	return groups
}

// uniformBufferSize rounds a uniform's byte size up to the 16 byte alignment WebGPU requires.
// Unresolved sizes fall back to a 4x4 float matrix.
func uniformBufferSize(size uint64) uint64 {
	if size == 0 {
		size = 64
	}
	return (size + 15) &^ 15
}

// alignedCopy pads data with zeros to a multiple of 4 bytes, with a minimum of 4.
func alignedCopy(data []byte) []byte {
	n := (len(data) + 3) &^ 3
	if n == 0 {
		n = 4
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// unboundInputs lists the vertex inputs that no attribute of the layout feeds.
func unboundInputs(vertex *shader.Reflection, layout device.VertexArrayLayout) []string {
	bound := make(map[uint32]bool, len(layout.Attributes))
	for _, a := range layout.Attributes {
		bound[a.Location] = true
	}
	var missing []string
	for _, in := range vertex.Inputs {
		if !bound[in.Location] {
			missing = append(missing, fmt.Sprintf("%q at location %d", in.Name, in.Location))
		}
	}
	return missing
}
