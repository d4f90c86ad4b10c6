// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reflection

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderset/gpucore"
)

// SetCount returns one more than the highest descriptor set index in use,
// or 0 if the layout has no bindings.
func (l *Layout) SetCount() int {
	n := 0
	for _, b := range l.Bindings {
		n = max(n, int(b.Set)+1)
	}
	return n
}

// BindGroupLayouts returns the bind-group layout entries of each descriptor
// set, indexed by set. Sets without bindings yield an empty slice.
func (l *Layout) BindGroupLayouts() [][]gputypes.BindGroupLayoutEntry {
	groups := make([][]gputypes.BindGroupLayoutEntry, l.SetCount())
	for _, b := range l.Bindings {
		groups[b.Set] = append(groups[b.Set], b.LayoutEntry())
	}
	return groups
}

// LayoutEntry converts b to a WebGPU bind-group layout entry. Visibility
// bits of stages WebGPU lacks are dropped.
func (b Binding) LayoutEntry() gputypes.BindGroupLayoutEntry {
	entry := gputypes.BindGroupLayoutEntry{
		Binding:    b.Binding,
		Visibility: b.Visibility.GPUTypes(),
	}
	view := b.ViewDimension
	if view == 0 {
		view = gputypes.TextureViewDimension2D
	}

	switch b.Kind {
	case gpucore.BindingKindUniformBuffer:
		entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: b.Size}
	case gpucore.BindingKindStorageBuffer:
		entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage, MinBindingSize: b.Size}
	case gpucore.BindingKindReadOnlyStorageBuffer:
		entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage, MinBindingSize: b.Size}
	case gpucore.BindingKindSampler:
		entry.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	case gpucore.BindingKindSampledTexture, gpucore.BindingKindCombinedImageSampler:
		entry.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: view,
		}
	case gpucore.BindingKindStorageTexture:
		entry.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        gputypes.StorageTextureAccessReadWrite,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			ViewDimension: view,
		}
	}
	return entry
}

// VertexBufferLayouts packs the vertex attributes into buffer layouts:
// per-vertex attributes into the first buffer and per-instance attributes
// into a second one, each in declaration order with tightly packed offsets.
// Buffers without attributes are omitted.
func (l *Layout) VertexBufferLayouts() ([]gputypes.VertexBufferLayout, error) {
	perVertex := gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex}
	perInstance := gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeInstance}

	for _, a := range l.Attributes {
		format, ok := a.Format.VertexFormat()
		if !ok {
			return nil, fmt.Errorf("reflection: attribute %q at location %d has no vertex format for %s",
				a.Name, a.Location, a.Format)
		}
		buf := &perVertex
		if a.Instance {
			buf = &perInstance
		}
		buf.Attributes = append(buf.Attributes, gputypes.VertexAttribute{
			Format:         format,
			Offset:         buf.ArrayStride,
			ShaderLocation: a.Location,
		})
		buf.ArrayStride += a.Format.Size()
	}

	var out []gputypes.VertexBufferLayout
	if len(perVertex.Attributes) > 0 {
		out = append(out, perVertex)
	}
	if len(perInstance.Attributes) > 0 {
		out = append(out, perInstance)
	}
	return out, nil
}

// PushConstantSize returns the number of push-constant bytes the layout
// needs, i.e. the end of the last range.
func (l *Layout) PushConstantSize() uint32 {
	var end uint32
	for _, r := range l.PushConstants {
		end = max(end, r.End())
	}
	return end
}
