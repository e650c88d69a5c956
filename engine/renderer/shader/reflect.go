package shader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Varying is a located input or output of a shader entry point.
type Varying struct {
	// Name is the argument or struct member name as declared in the source.
	Name string
	// Location is the @location(N) slot.
	Location uint32
	// Components is the number of scalar components (1 to 4).
	Components int
}

// Uniform is a uniform buffer declaration.
type Uniform struct {
	Name    string
	Group   uint32
	Binding uint32
	// Size is the byte size of the bound type, 0 when it could not be resolved.
	Size uint64
}

// Reflection describes the interface of one compiled shader stage.
type Reflection struct {
	Type       ShaderType
	EntryPoint string
	// Inputs are sorted by location.
	Inputs []Varying
	// Outputs are sorted by location; builtins are omitted.
	Outputs  []Varying
	Uniforms []Uniform
}

// Input returns the input declared under the given name.
//
// Parameters:
//   - name: the input name
//
// Returns:
//   - Varying: the matching input
//   - bool: false if no input has that name
func (r *Reflection) Input(name string) (Varying, bool) {
	for _, v := range r.Inputs {
		if v.Name == name {
			return v, true
		}
	}
	return Varying{}, false
}

// Uniform returns the uniform declared under the given name.
//
// Parameters:
//   - name: the uniform variable name
//
// Returns:
//   - Uniform: the matching uniform
//   - bool: false if no uniform has that name
func (r *Reflection) Uniform(name string) (Uniform, bool) {
	for _, u := range r.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}

// Reflect compiles a WGSL source to naga IR, validates it and extracts the interface of the entry
// point matching the source's stage. The returned error text is the compiler diagnostic and is
// meant to be surfaced to the user unmodified.
//
// Parameters:
//   - src: the WGSL shader source
//
// Returns:
//   - *Reflection: the stage interface
//   - error: the compiler diagnostic if parsing, lowering or validation fails
func Reflect(src Source) (*Reflection, error) {
	if src.Language != LanguageWGSL {
		return nil, fmt.Errorf("%s: reflection requires wgsl, got %s", src.Key, src.Language)
	}

	ast, err := naga.Parse(src.Code)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, src.Code)
	if err != nil {
		return nil, err
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, err
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Error()
		}
		return nil, errors.New(strings.Join(msgs, "\n"))
	}

	stage := ir.StageVertex
	if src.Type == ShaderTypeFragment {
		stage = ir.StageFragment
	}

	var ep *ir.EntryPoint
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Stage == stage {
			ep = &module.EntryPoints[i]
			break
		}
	}
	if ep == nil {
		return nil, fmt.Errorf("no @%s entry point declared", src.Type)
	}

	r := &Reflection{
		Type:       src.Type,
		EntryPoint: ep.Name,
	}
	for _, arg := range ep.Function.Arguments {
		r.Inputs = append(r.Inputs, collectVaryings(module, arg.Name, arg.Type, arg.Binding)...)
	}
	if res := ep.Function.Result; res != nil {
		r.Outputs = collectVaryings(module, ep.Name, res.Type, res.Binding)
	}
	sortVaryings(r.Inputs)
	sortVaryings(r.Outputs)

	sizes := make(map[string]uint64)
	for _, d := range parseDeclarations(src.Code) {
		sizes[d.name] = d.size
	}
	for _, gv := range module.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil {
			continue
		}
		r.Uniforms = append(r.Uniforms, Uniform{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
			Size:    sizes[gv.Name],
		})
	}

	return r, nil
}

// MatchInterface checks that every input of the fragment stage is produced by an output of the
// vertex stage at the same location with the same component count.
//
// Parameters:
//   - vertex: the reflected vertex stage
//   - fragment: the reflected fragment stage
//
// Returns:
//   - []string: one line per mismatch, empty when the stages are compatible
func MatchInterface(vertex, fragment *Reflection) []string {
	produced := make(map[uint32]Varying, len(vertex.Outputs))
	for _, v := range vertex.Outputs {
		produced[v.Location] = v
	}

	var problems []string
	for _, in := range fragment.Inputs {
		out, ok := produced[in.Location]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("fragment input %q at location %d is not written by the vertex stage", in.Name, in.Location))
		case out.Components != in.Components:
			problems = append(problems, fmt.Sprintf("fragment input %q at location %d has %d components, vertex output %q has %d", in.Name, in.Location, in.Components, out.Name, out.Components))
		}
	}
	return problems
}

// collectVaryings flattens a located argument or result, descending into struct members.
func collectVaryings(module *ir.Module, name string, th ir.TypeHandle, binding *ir.Binding) []Varying {
	if binding != nil {
		loc, ok := locationOf(*binding)
		if !ok {
			return nil
		}
		return []Varying{{Name: name, Location: loc, Components: componentCount(module, th)}}
	}

	if int(th) >= len(module.Types) {
		return nil
	}
	st, ok := module.Types[th].Inner.(ir.StructType)
	if !ok {
		return nil
	}
	var out []Varying
	for _, m := range st.Members {
		if m.Binding == nil {
			continue
		}
		if loc, ok := locationOf(*m.Binding); ok {
			out = append(out, Varying{Name: m.Name, Location: loc, Components: componentCount(module, m.Type)})
		}
	}
	return out
}

func locationOf(b ir.Binding) (uint32, bool) {
	switch lb := b.(type) {
	case ir.LocationBinding:
		return lb.Location, true
	case *ir.LocationBinding:
		return lb.Location, true
	default:
		return 0, false
	}
}

func componentCount(module *ir.Module, th ir.TypeHandle) int {
	if int(th) >= len(module.Types) {
		return 0
	}
	switch t := module.Types[th].Inner.(type) {
	case ir.ScalarType:
		return 1
	case ir.VectorType:
		return int(t.Size)
	default:
		return 0
	}
}

func sortVaryings(v []Varying) {
	sort.Slice(v, func(i, j int) bool { return v[i].Location < v[j].Location })
}
