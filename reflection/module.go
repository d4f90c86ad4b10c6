// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reflection

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderset/gpucore"
)

// ScalarKind is the component type of a stage interface variable.
type ScalarKind uint8

// Scalar kinds.
const (
	ScalarUnknown ScalarKind = iota
	ScalarFloat
	ScalarSint
	ScalarUint
	ScalarBool
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarFloat:
		return "f"
	case ScalarSint:
		return "i"
	case ScalarUint:
		return "u"
	case ScalarBool:
		return "bool"
	default:
		return "?"
	}
}

// Format describes the type of an interface variable: a scalar or a vector
// of Components scalars, each Width bits wide.
type Format struct {
	Kind       ScalarKind `json:"kind" yaml:"kind"`
	Width      uint32     `json:"width" yaml:"width"`
	Components uint32     `json:"components" yaml:"components"`
}

// String formats f as e.g. "f32x4".
func (f Format) String() string {
	if f.Components <= 1 {
		return fmt.Sprintf("%s%d", f.Kind, f.Width)
	}
	return fmt.Sprintf("%s%dx%d", f.Kind, f.Width, f.Components)
}

// Size returns the size of one value in bytes.
func (f Format) Size() uint64 {
	return uint64(f.Width/8) * uint64(max(f.Components, 1))
}

// VertexFormat maps f to a WebGPU vertex format. Only 32-bit formats with
// one to four components have a mapping.
func (f Format) VertexFormat() (gputypes.VertexFormat, bool) {
	if f.Width != 32 {
		return 0, false
	}
	var table [4]gputypes.VertexFormat
	switch f.Kind {
	case ScalarFloat:
		table = [4]gputypes.VertexFormat{
			gputypes.VertexFormatFloat32,
			gputypes.VertexFormatFloat32x2,
			gputypes.VertexFormatFloat32x3,
			gputypes.VertexFormatFloat32x4,
		}
	case ScalarUint:
		table = [4]gputypes.VertexFormat{
			gputypes.VertexFormatUint32,
			gputypes.VertexFormatUint32x2,
			gputypes.VertexFormatUint32x3,
			gputypes.VertexFormatUint32x4,
		}
	case ScalarSint:
		table = [4]gputypes.VertexFormat{
			gputypes.VertexFormatSint32,
			gputypes.VertexFormatSint32x2,
			gputypes.VertexFormatSint32x3,
			gputypes.VertexFormatSint32x4,
		}
	default:
		return 0, false
	}
	n := max(f.Components, 1)
	if n > 4 {
		return 0, false
	}
	return table[n-1], true
}

// Variable is a stage input or output with an explicit location.
type Variable struct {
	Name     string `json:"name" yaml:"name"`
	Location uint32 `json:"location" yaml:"location"`
	Format   Format `json:"format" yaml:"format"`
}

// Binding is a descriptor binding declared by a stage.
type Binding struct {
	Name    string              `json:"name,omitempty" yaml:"name,omitempty"`
	Set     uint32              `json:"set" yaml:"set"`
	Binding uint32              `json:"binding" yaml:"binding"`
	Kind    gpucore.BindingKind `json:"kind" yaml:"kind"`

	// Count is the array length; 1 for a single resource, 0 for a
	// runtime-sized array.
	Count uint32 `json:"count" yaml:"count"`

	// Size is the byte size of a buffer block, 0 for non-buffer kinds.
	// Runtime-sized trailing arrays are not included.
	Size uint64 `json:"size,omitempty" yaml:"size,omitempty"`

	// ViewDimension is the image dimension for texture kinds.
	ViewDimension gputypes.TextureViewDimension `json:"-" yaml:"-"`

	// Visibility is filled in by Merge.
	Visibility gpucore.StageFlags `json:"visibility" yaml:"visibility"`
}

// Member is one member of a push-constant block.
type Member struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Offset uint32 `json:"offset" yaml:"offset"`
	Size   uint32 `json:"size" yaml:"size"`

	// Type is a canonical spelling of the member type, e.g. "f32x4" or
	// "mat4x4<f32>". Two members with the same offset and Type describe
	// the same content.
	Type string `json:"type" yaml:"type"`
}

// PushConstantRange is a byte range of push-constant memory.
type PushConstantRange struct {
	Offset     uint32             `json:"offset" yaml:"offset"`
	Size       uint32             `json:"size" yaml:"size"`
	Members    []Member           `json:"members" yaml:"members"`
	Visibility gpucore.StageFlags `json:"visibility" yaml:"visibility"`
}

// End returns the first byte past the range.
func (r PushConstantRange) End() uint32 {
	return r.Offset + r.Size
}

// SpecConstant is a specialization constant declared with a SpecId.
type SpecConstant struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	ID   uint32 `json:"id" yaml:"id"`
	Size uint32 `json:"size" yaml:"size"`
}

// EntryPoint is an OpEntryPoint of the module.
type EntryPoint struct {
	Name  string        `json:"name" yaml:"name"`
	Stage gpucore.Stage `json:"stage" yaml:"stage"`
}

// Module is the reflection of one SPIR-V module.
type Module struct {
	EntryPoints []EntryPoint `json:"entry_points" yaml:"entry_points"`

	// Inputs and Outputs exclude built-in variables and are listed in
	// declaration order.
	Inputs  []Variable `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []Variable `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	Bindings      []Binding           `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	PushConstants []PushConstantRange `json:"push_constants,omitempty" yaml:"push_constants,omitempty"`
	SpecConstants []SpecConstant      `json:"spec_constants,omitempty" yaml:"spec_constants,omitempty"`

	// Variable IDs behind Inputs, Outputs, Bindings and PushConstants, index
	// aligned, and the globals each entry point uses. Set by Parse only.
	inputIDs, outputIDs, bindingIDs, pushIDs []uint32
	active                                   map[EntryPoint]idSet
}

// EntryPoint returns the entry point with the given name.
func (m *Module) EntryPoint(name string) (EntryPoint, bool) {
	for _, ep := range m.EntryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// ForEntryPoint narrows m to the entry point with the given name and stage:
// the result keeps only the inputs, outputs, bindings and push constants the
// entry point's call tree uses. It fails with ErrEntryPointNotFound when the
// module has no such entry point.
//
// Modules not produced by Parse carry no usage information; for them only
// the entry point list is narrowed.
func (m *Module) ForEntryPoint(name string, stage gpucore.Stage) (*Module, error) {
	ep := EntryPoint{Name: name, Stage: stage}
	if !slices.Contains(m.EntryPoints, ep) {
		if other, ok := m.EntryPoint(name); ok {
			return nil, fmt.Errorf("%w: %q is a %s entry point, not %s",
				ErrEntryPointNotFound, name, other.Stage, stage)
		}
		return nil, fmt.Errorf("%w: %q", ErrEntryPointNotFound, name)
	}

	active, tracked := m.active[ep]
	keep := func(ids []uint32, i int) bool {
		return !tracked || active.has(ids[i])
	}
	out := &Module{
		EntryPoints:   []EntryPoint{ep},
		SpecConstants: slices.Clone(m.SpecConstants),
	}
	for i, v := range m.Inputs {
		if keep(m.inputIDs, i) {
			out.Inputs = append(out.Inputs, v)
		}
	}
	for i, v := range m.Outputs {
		if keep(m.outputIDs, i) {
			out.Outputs = append(out.Outputs, v)
		}
	}
	for i, b := range m.Bindings {
		if keep(m.bindingIDs, i) {
			out.Bindings = append(out.Bindings, b)
		}
	}
	for i, r := range m.PushConstants {
		if keep(m.pushIDs, i) {
			r.Members = slices.Clone(r.Members)
			out.PushConstants = append(out.PushConstants, r)
		}
	}
	return out, nil
}
