//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderset"
	"github.com/gogpu/shaderset/gpucore"
)

func (d *Device) module(ep shaderset.EntryPoint) (hal.ShaderModule, error) {
	m, ok := d.Module(ep.Module)
	if !ok {
		return nil, fmt.Errorf("%w: %s module %d", ErrUnknownModule, ep.Stage, ep.Module)
	}
	return m, nil
}

// VertexState resolves a vertex entry point into HAL pipeline state.
func (d *Device) VertexState(ep shaderset.EntryPoint, buffers []gputypes.VertexBufferLayout) (hal.VertexState, error) {
	if ep.Stage != gpucore.StageVertex {
		return hal.VertexState{}, fmt.Errorf("native: %s entry point used as vertex state", ep.Stage)
	}
	m, err := d.module(ep)
	if err != nil {
		return hal.VertexState{}, err
	}
	return hal.VertexState{
		Module:     m,
		EntryPoint: ep.Name,
		Buffers:    buffers,
	}, nil
}

// FragmentState resolves a fragment entry point into HAL pipeline state.
// A nil entry point yields a nil state (depth-only pipelines).
func (d *Device) FragmentState(ep *shaderset.EntryPoint, targets []gputypes.ColorTargetState) (*hal.FragmentState, error) {
	if ep == nil {
		return nil, nil
	}
	if ep.Stage != gpucore.StageFragment {
		return nil, fmt.Errorf("native: %s entry point used as fragment state", ep.Stage)
	}
	m, err := d.module(*ep)
	if err != nil {
		return nil, err
	}
	return &hal.FragmentState{
		Module:     m,
		EntryPoint: ep.Name,
		Targets:    targets,
	}, nil
}

// ComputeState resolves a compute entry point into HAL pipeline state.
func (d *Device) ComputeState(ep shaderset.EntryPoint) (hal.ComputeState, error) {
	if ep.Stage != gpucore.StageCompute {
		return hal.ComputeState{}, fmt.Errorf("native: %s entry point used as compute state", ep.Stage)
	}
	m, err := d.module(ep)
	if err != nil {
		return hal.ComputeState{}, err
	}
	return hal.ComputeState{
		Module:     m,
		EntryPoint: ep.Name,
	}, nil
}

// RenderStates converts the bundle returned by Set.Raw into the vertex and
// fragment state of a render pipeline descriptor. Bundles with geometry or
// tessellation stages fail with ErrUnsupportedStage.
func (d *Device) RenderStates(stages shaderset.Stages, buffers []gputypes.VertexBufferLayout,
	targets []gputypes.ColorTargetState) (hal.VertexState, *hal.FragmentState, error) {
	for _, ep := range []*shaderset.EntryPoint{stages.Geometry, stages.Hull, stages.Domain} {
		if ep != nil {
			return hal.VertexState{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedStage, ep.Stage)
		}
	}
	vs, err := d.VertexState(stages.Vertex, buffers)
	if err != nil {
		return hal.VertexState{}, nil, err
	}
	fs, err := d.FragmentState(stages.Fragment, targets)
	if err != nil {
		return hal.VertexState{}, nil, err
	}
	return vs, fs, nil
}
