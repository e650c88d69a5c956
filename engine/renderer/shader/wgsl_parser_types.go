package shader

// wgslTypeLayout is the host-shareable size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

type parsedField struct {
	name     string
	typeName string
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

// parsedDeclaration is one @group(N) @binding(M) module-scope variable.
type parsedDeclaration struct {
	group        uint32
	binding      uint32
	addressSpace string
	name         string
	typeName     string
	size         uint64 // zero for handles and unresolvable types
}
