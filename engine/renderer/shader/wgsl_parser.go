package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	commentRegex   = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)
	structRegex    = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	attributeRegex = regexp.MustCompile(`@\w+(?:\([^)]*\))?`)

	// bindingRegex captures group, binding, address space, name and type of declarations such as
	// @group(0) @binding(0) var<uniform> modelViewProjection: mat4x4<f32>;
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseDeclarations lists the resource declarations of a WGSL module ordered by group and
// binding. Buffer-backed declarations carry the byte size of their type so the device can
// allocate the backing buffer before any uniform is written.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - []parsedDeclaration: the declarations in binding order
func parseDeclarations(source string) []parsedDeclaration {
	cleaned := commentRegex.ReplaceAllString(source, "")
	layouts := newLayoutResolver(parseStructs(cleaned))

	var decls []parsedDeclaration
	for _, m := range bindingRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		d := parsedDeclaration{
			group:        uint32(group),
			binding:      uint32(binding),
			addressSpace: strings.TrimSpace(m[3]),
			name:         m[4],
			typeName:     strings.TrimSpace(m[5]),
		}
		if d.addressSpace != "" {
			if l, ok := layouts.resolve(d.typeName); ok {
				d.size = l.size
			}
		}
		decls = append(decls, d)
	}

	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].group != decls[j].group {
			return decls[i].group < decls[j].group
		}
		return decls[i].binding < decls[j].binding
	})
	return decls
}

func parseStructs(source string) []parsedStruct {
	var structs []parsedStruct
	for _, m := range structRegex.FindAllStringSubmatch(source, -1) {
		s := parsedStruct{name: m[1]}
		for _, member := range splitAtTopLevelCommas(m[2]) {
			member = strings.TrimSpace(attributeRegex.ReplaceAllString(member, ""))
			name, typeName, ok := strings.Cut(member, ":")
			if !ok {
				continue
			}
			s.fields = append(s.fields, parsedField{
				name:     strings.TrimSpace(name),
				typeName: strings.TrimSpace(typeName),
			})
		}
		structs = append(structs, s)
	}
	return structs
}

// splitAtTopLevelCommas splits s at commas outside <...> and (...), so array<f32, 4> stays whole.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, s[start:])
	}
	return parts
}
