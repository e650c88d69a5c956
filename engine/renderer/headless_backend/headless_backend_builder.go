package headless_backend

// HeadlessBuilderOption is a functional option applied to a headless device during construction via NewHeadless.
type HeadlessBuilderOption func(*headless)

// WithWorkers sets how many row bands a draw call is split into, each rasterized on the worker pool.
//
// Parameters:
//   - n: the number of workers, values below 1 are treated as 1
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the worker count
func WithWorkers(n int) HeadlessBuilderOption {
	return func(h *headless) {
		if n < 1 {
			n = 1
		}
		h.workers = n
	}
}

// WithMemoryLimit caps the total bytes of buffer storage the device will allocate. Allocations past the
// limit fail with an AllocationError wrapping device.ErrOutOfMemory. 0 means unlimited.
//
// Parameters:
//   - bytes: the limit in bytes
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the memory limit
func WithMemoryLimit(bytes int) HeadlessBuilderOption {
	return func(h *headless) {
		h.memoryLimit = bytes
	}
}

// WithPositionAttribute names the vertex input that carries object space positions.
// The default is "vertexPosition".
//
// Parameters:
//   - name: the attribute name
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the position attribute
func WithPositionAttribute(name string) HeadlessBuilderOption {
	return func(h *headless) {
		h.positionAttribute = name
	}
}

// WithColorAttribute names the vertex input that carries the per vertex color.
// The default is "vertexColor".
//
// Parameters:
//   - name: the attribute name
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the color attribute
func WithColorAttribute(name string) HeadlessBuilderOption {
	return func(h *headless) {
		h.colorAttribute = name
	}
}

// WithTransformUniform names the mat4 uniform applied to positions. When the program never had it set,
// positions pass through untransformed. The default is "modelViewProjection".
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the transform uniform
func WithTransformUniform(name string) HeadlessBuilderOption {
	return func(h *headless) {
		h.transformUniform = name
	}
}
