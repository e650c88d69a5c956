package binding_state

// AttributeOption adjusts how a vertex buffer region is read for one attribute.
type AttributeOption func(*attributeOptions)

type attributeOptions struct {
	stride     int
	offset     int
	normalized bool
}

// WithStride sets the byte distance between consecutive vertices. 0, the default, means tightly packed.
//
// Parameters:
//   - stride: the stride in bytes
//
// Returns:
//   - AttributeOption: a function that sets the stride
func WithStride(stride int) AttributeOption {
	return func(o *attributeOptions) {
		o.stride = stride
	}
}

// WithOffset sets the byte offset of the first component in the buffer. The default is 0.
//
// Parameters:
//   - offset: the offset in bytes
//
// Returns:
//   - AttributeOption: a function that sets the offset
func WithOffset(offset int) AttributeOption {
	return func(o *attributeOptions) {
		o.offset = offset
	}
}

// WithNormalized marks the attribute's components as normalized. The default is false.
//
// Parameters:
//   - normalized: whether the components are normalized
//
// Returns:
//   - AttributeOption: a function that sets the normalized flag
func WithNormalized(normalized bool) AttributeOption {
	return func(o *attributeOptions) {
		o.normalized = normalized
	}
}
