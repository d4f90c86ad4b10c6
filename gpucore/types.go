// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// ShaderModuleID is an opaque handle to a compiled shader module.
//
// Each Device implementation maintains a mapping between IDs and actual
// backend resources. IDs are uint64 to accommodate various backend handle
// sizes.
type ShaderModuleID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID ShaderModuleID = 0

// Stage identifies one phase of the graphics or compute pipeline.
type Stage uint8

// Pipeline stages. The zero value is not a valid stage.
const (
	StageVertex Stage = iota + 1
	StageFragment
	StageGeometry
	// StageTessControl is the tessellation-control (hull) stage.
	StageTessControl
	// StageTessEval is the tessellation-evaluation (domain) stage.
	StageTessEval
	StageCompute
)

// NumStages is the number of distinct pipeline stages.
const NumStages = 6

// AllStages lists every stage in canonical order.
var AllStages = [NumStages]Stage{
	StageVertex,
	StageFragment,
	StageGeometry,
	StageTessControl,
	StageTessEval,
	StageCompute,
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	return s >= StageVertex && s <= StageCompute
}

// Index returns the zero-based slot of s in AllStages.
// It returns -1 for an invalid stage.
func (s Stage) Index() int {
	if !s.Valid() {
		return -1
	}
	return int(s) - 1
}

// Flag returns the visibility bit of s.
func (s Stage) Flag() StageFlags {
	if !s.Valid() {
		return 0
	}
	return 1 << (s - 1)
}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageGeometry:
		return "geometry"
	case StageTessControl:
		return "tess_control"
	case StageTessEval:
		return "tess_eval"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// ParseStage converts a stage name to a Stage. Besides the names produced by
// String it accepts the common aliases "vert", "frag", "geom", "hull",
// "domain" and "comp".
func ParseStage(name string) (Stage, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vertex", "vert":
		return StageVertex, true
	case "fragment", "frag", "pixel":
		return StageFragment, true
	case "geometry", "geom":
		return StageGeometry, true
	case "tess_control", "tesscontrol", "hull", "tesc":
		return StageTessControl, true
	case "tess_eval", "tesseval", "domain", "tese":
		return StageTessEval, true
	case "compute", "comp":
		return StageCompute, true
	default:
		return 0, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	st, ok := ParseStage(string(text))
	if !ok {
		return &UnknownStageError{Name: string(text)}
	}
	*s = st
	return nil
}

// UnknownStageError is returned when a stage name cannot be parsed.
type UnknownStageError struct {
	Name string
}

func (e *UnknownStageError) Error() string {
	return "gpucore: unknown shader stage " + `"` + e.Name + `"`
}

// StageFlags is a bitmask of stages, used for resource visibility.
type StageFlags uint32

// Has reports whether every stage of other is set in f.
func (f StageFlags) Has(other StageFlags) bool {
	return f&other == other
}

// Stages returns the stages set in f in canonical order.
func (f StageFlags) Stages() []Stage {
	var out []Stage
	for _, s := range AllStages {
		if f&s.Flag() != 0 {
			out = append(out, s)
		}
	}
	return out
}

// String formats the mask as "vertex|fragment".
func (f StageFlags) String() string {
	if f == 0 {
		return "none"
	}
	names := make([]string, 0, NumStages)
	for _, s := range f.Stages() {
		names = append(names, s.String())
	}
	return strings.Join(names, "|")
}

// GPUTypes converts the mask to WebGPU shader-stage visibility.
// Geometry and tessellation stages have no WebGPU equivalent and are dropped.
func (f StageFlags) GPUTypes() gputypes.ShaderStage {
	var out gputypes.ShaderStage
	if f&StageVertex.Flag() != 0 {
		out |= gputypes.ShaderStageVertex
	}
	if f&StageFragment.Flag() != 0 {
		out |= gputypes.ShaderStageFragment
	}
	if f&StageCompute.Flag() != 0 {
		out |= gputypes.ShaderStageCompute
	}
	return out
}

// BindingKind is the resource kind of a descriptor binding.
type BindingKind uint32

// Binding kinds.
const (
	// BindingKindUniformBuffer is a uniform buffer binding.
	BindingKindUniformBuffer BindingKind = iota + 1

	// BindingKindStorageBuffer is a storage buffer binding (read-write).
	BindingKindStorageBuffer

	// BindingKindReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingKindReadOnlyStorageBuffer

	// BindingKindSampler is a texture sampler binding.
	BindingKindSampler

	// BindingKindSampledTexture is a sampled texture binding.
	BindingKindSampledTexture

	// BindingKindCombinedImageSampler is a texture and sampler bound together.
	BindingKindCombinedImageSampler

	// BindingKindStorageTexture is a storage texture binding.
	BindingKindStorageTexture
)

// String returns the binding kind name.
func (k BindingKind) String() string {
	switch k {
	case BindingKindUniformBuffer:
		return "uniform_buffer"
	case BindingKindStorageBuffer:
		return "storage_buffer"
	case BindingKindReadOnlyStorageBuffer:
		return "read_only_storage_buffer"
	case BindingKindSampler:
		return "sampler"
	case BindingKindSampledTexture:
		return "sampled_texture"
	case BindingKindCombinedImageSampler:
		return "combined_image_sampler"
	case BindingKindStorageTexture:
		return "storage_texture"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MarshalText implements encoding.TextMarshaler.
func (f StageFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
