package shader

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	vectorTypeRegex = regexp.MustCompile(`^vec([234])(?:<(\w+)>|([fiuh]))$`)
	matrixTypeRegex = regexp.MustCompile(`^mat([234])x([234])(?:<(\w+)>|([fh]))$`)
)

// layoutResolver computes WGSL size and alignment following the host-shareable layout rules.
// Struct layouts are memoized; recursive structs do not resolve.
type layoutResolver struct {
	structs  map[string]parsedStruct
	resolved map[string]wgslTypeLayout
	visiting map[string]bool
}

func newLayoutResolver(structs []parsedStruct) *layoutResolver {
	r := &layoutResolver{
		structs:  make(map[string]parsedStruct, len(structs)),
		resolved: make(map[string]wgslTypeLayout),
		visiting: make(map[string]bool),
	}
	for _, s := range structs {
		r.structs[s.name] = s
	}
	return r
}

// resolve returns the layout of typeName. Runtime-sized arrays, handles and unknown names
// report false.
func (r *layoutResolver) resolve(typeName string) (wgslTypeLayout, bool) {
	t := strings.Join(strings.Fields(typeName), "")

	if l, ok := scalarLayout(t); ok {
		return l, true
	}
	if m := vectorTypeRegex.FindStringSubmatch(t); m != nil {
		s, ok := scalarLayout(elementType(m[2], m[3]))
		if !ok {
			return wgslTypeLayout{}, false
		}
		n, _ := strconv.ParseUint(m[1], 10, 64)
		return vectorLayout(n, s), true
	}
	if m := matrixTypeRegex.FindStringSubmatch(t); m != nil {
		s, ok := scalarLayout(elementType(m[3], m[4]))
		if !ok {
			return wgslTypeLayout{}, false
		}
		cols, _ := strconv.ParseUint(m[1], 10, 64)
		rows, _ := strconv.ParseUint(m[2], 10, 64)
		col := vectorLayout(rows, s)
		return wgslTypeLayout{size: cols * roundUpAlign(col.align, col.size), align: col.align}, true
	}
	if inner, ok := strings.CutPrefix(t, "atomic<"); ok {
		return scalarLayout(strings.TrimSuffix(inner, ">"))
	}
	if inner, ok := strings.CutPrefix(t, "array<"); ok {
		return r.arrayLayout(strings.TrimSuffix(inner, ">"))
	}
	return r.structLayout(t)
}

func (r *layoutResolver) arrayLayout(args string) (wgslTypeLayout, bool) {
	parts := splitAtTopLevelCommas(args)
	if len(parts) != 2 {
		return wgslTypeLayout{}, false
	}
	elem, ok := r.resolve(parts[0])
	if !ok {
		return wgslTypeLayout{}, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || n == 0 {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{size: n * roundUpAlign(elem.align, elem.size), align: elem.align}, true
}

func (r *layoutResolver) structLayout(name string) (wgslTypeLayout, bool) {
	if l, ok := r.resolved[name]; ok {
		return l, true
	}
	s, ok := r.structs[name]
	if !ok || len(s.fields) == 0 || r.visiting[name] {
		return wgslTypeLayout{}, false
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	var offset, align uint64
	for _, f := range s.fields {
		l, ok := r.resolve(f.typeName)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(l.align, offset) + l.size
		align = max(align, l.align)
	}

	l := wgslTypeLayout{size: roundUpAlign(align, offset), align: align}
	r.resolved[name] = l
	return l, true
}

func scalarLayout(name string) (wgslTypeLayout, bool) {
	switch name {
	case "f32", "i32", "u32", "bool":
		return wgslTypeLayout{size: 4, align: 4}, true
	case "f16":
		return wgslTypeLayout{size: 2, align: 2}, true
	}
	return wgslTypeLayout{}, false
}

// elementType maps the generic parameter or the shorthand suffix (vec3f, mat4x4h) to a scalar name.
func elementType(generic, suffix string) string {
	if generic != "" {
		return generic
	}
	switch suffix {
	case "f":
		return "f32"
	case "i":
		return "i32"
	case "u":
		return "u32"
	case "h":
		return "f16"
	}
	return ""
}

// vectorLayout: vec2 aligns to twice its scalar, vec3 and vec4 to four times.
func vectorLayout(n uint64, s wgslTypeLayout) wgslTypeLayout {
	if n == 2 {
		return wgslTypeLayout{size: 2 * s.size, align: 2 * s.size}
	}
	return wgslTypeLayout{size: n * s.size, align: 4 * s.size}
}

// roundUpAlign rounds value up to a multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}
