package gl_backend

// GLBuilderOption is a functional option applied to a device during construction via NewGL.
type GLBuilderOption func(*glDevice)

// WithErrorChecks drains the OpenGL error queue after state changes and draws, turning pending
// errors into returned errors. Disabled by default since every check stalls the driver.
//
// Parameters:
//   - enabled: whether to check for errors
//
// Returns:
//   - GLBuilderOption: a function that applies the option to a device
func WithErrorChecks(enabled bool) GLBuilderOption {
	return func(d *glDevice) {
		d.checkErrors = enabled
	}
}
