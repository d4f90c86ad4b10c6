package shaderset

// Device is the backend boundary for module lifecycle. Implementations map
// ShaderModuleIDs to their own handles; see backend/native for one over a
// wgpu HAL device.
//
// Callers serialize Device calls with other work on the same backend device.
type Device interface {
	// CreateShaderModule compiles code into a backend module.
	// The label is a debug name and may be empty.
	CreateShaderModule(code []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a module created by CreateShaderModule.
	DestroyShaderModule(id ShaderModuleID)
}
