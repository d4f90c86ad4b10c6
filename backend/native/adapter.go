//go:build !nogpu

// Package native implements shaderset.Device over a gogpu/wgpu HAL device.
package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderset"
	"github.com/gogpu/shaderset/gpucore"
)

var _ shaderset.Device = (*Device)(nil)

// Device maps shaderset module IDs to HAL shader modules.
//
// Thread Safety: Device is safe for concurrent use from multiple goroutines.
// The ID map is protected by a mutex; the HAL device itself is only called
// outside of it.
type Device struct {
	mu      sync.RWMutex
	device  hal.Device
	modules map[gpucore.ShaderModuleID]hal.ShaderModule

	// ID generation
	nextID atomic.Uint64
}

// NewDevice wraps a HAL device. The caller keeps ownership of device.
func NewDevice(device hal.Device) *Device {
	d := &Device{
		device:  device,
		modules: make(map[gpucore.ShaderModuleID]hal.ShaderModule),
	}
	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)
	return d
}

// FromProvider wraps the HAL device of a gpucontext provider such as a
// gogpu window. The provider must also implement HalDevice() any returning
// a hal.Device.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return fromHALProvider(provider)
}

func fromHALProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoHALDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	return NewDevice(device), nil
}

// HAL returns the wrapped HAL device.
func (d *Device) HAL() hal.Device {
	return d.device
}

func (d *Device) newID() gpucore.ShaderModuleID {
	return gpucore.ShaderModuleID(d.nextID.Add(1) - 1)
}

// CreateShaderModule creates a HAL shader module from SPIR-V words.
func (d *Device) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: empty SPIR-V bytecode")
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: failed to create shader module %q: %w", label, err)
	}

	id := d.newID()

	d.mu.Lock()
	d.modules[id] = module
	d.mu.Unlock()

	shaderset.Logger().Debug("native: shader module created", "id", uint64(id), "label", label, "words", len(spirv))
	return id, nil
}

// DestroyShaderModule releases a shader module. Unknown IDs are logged and
// ignored.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.modules[id]
	if ok {
		delete(d.modules, id)
	}
	d.mu.Unlock()

	if !ok {
		shaderset.Logger().Warn("native: destroy of unknown shader module", "id", uint64(id))
		return
	}
	d.device.DestroyShaderModule(module)
}

// Module returns the HAL module for id.
func (d *Device) Module(id gpucore.ShaderModuleID) (hal.ShaderModule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.modules[id]
	return m, ok
}

// Len returns the number of live modules.
func (d *Device) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.modules)
}

// Close destroys every module still alive and returns how many there were.
// The HAL device itself is not destroyed.
func (d *Device) Close() int {
	d.mu.Lock()
	modules := d.modules
	d.modules = make(map[gpucore.ShaderModuleID]hal.ShaderModule)
	d.mu.Unlock()

	for id, m := range modules {
		shaderset.Logger().Warn("native: shader module leaked", "id", uint64(id))
		d.device.DestroyShaderModule(m)
	}
	return len(modules)
}
