package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNilProvider is returned by FromProvider for a nil provider.
	ErrNilProvider = errors.New("native: nil device provider")

	// ErrNoHALDevice is returned when a provider does not expose a HAL device.
	ErrNoHALDevice = errors.New("native: provider has no HAL device")

	// ErrUnknownModule is returned when an entry point references a module
	// this device did not create or has already destroyed.
	ErrUnknownModule = errors.New("native: unknown shader module")

	// ErrUnsupportedStage is returned for stages WebGPU pipelines cannot
	// express (geometry and tessellation).
	ErrUnsupportedStage = errors.New("native: stage not supported by WebGPU pipelines")
)
