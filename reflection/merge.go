// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reflection

import (
	"fmt"
	"sort"

	"github.com/gogpu/shaderset/gpucore"
)

// VertexAttribute is a vertex-stage input with its step rate.
type VertexAttribute struct {
	Variable `yaml:",inline"`

	// Instance is true when the attribute advances once per instance
	// rather than once per vertex.
	Instance bool `json:"instance" yaml:"instance"`
}

// Layout is the merged pipeline-layout description of a shader set.
type Layout struct {
	Attributes    []VertexAttribute   `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Bindings      []Binding           `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	PushConstants []PushConstantRange `json:"push_constants,omitempty" yaml:"push_constants,omitempty"`

	// SpecConstants lists the specialization constants of each stage.
	SpecConstants map[gpucore.Stage][]SpecConstant `json:"spec_constants,omitempty" yaml:"spec_constants,omitempty"`
}

// MergeOption configures Merge.
type MergeOption func(*mergeOptions)

type mergeOptions struct {
	instanceNames []string
	rangeSet      bool
	first, end    int
}

// WithInstanceAttributes marks the named vertex attributes as per-instance.
func WithInstanceAttributes(names ...string) MergeOption {
	return func(o *mergeOptions) {
		o.instanceNames = append(o.instanceNames, names...)
	}
}

// WithInstanceRange marks the vertex attributes with declaration index in
// [first, end) as per-instance.
func WithInstanceRange(first, end int) MergeOption {
	return func(o *mergeOptions) {
		o.rangeSet = true
		o.first, o.end = first, end
	}
}

// Merge combines the reflections of the stages of one shader set.
// At least one of the vertex and compute stages must be present.
func Merge(stages map[gpucore.Stage]*Module, opts ...MergeOption) (*Layout, error) {
	var o mergeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if stages[gpucore.StageVertex] == nil && stages[gpucore.StageCompute] == nil {
		return nil, ErrNoVertexOrCompute
	}

	layout := &Layout{}
	if vs := stages[gpucore.StageVertex]; vs != nil {
		attrs, err := vertexAttributes(vs, &o)
		if err != nil {
			return nil, err
		}
		layout.Attributes = attrs
	} else if len(o.instanceNames) > 0 || o.rangeSet {
		return nil, fmt.Errorf("%w: instance attributes requested without a vertex stage", ErrUnknownAttribute)
	}

	type slot struct{ set, binding uint32 }
	index := make(map[slot]int)

	for _, stage := range gpucore.AllStages {
		m := stages[stage]
		if m == nil {
			continue
		}
		flag := stage.Flag()

		for _, b := range m.Bindings {
			key := slot{b.Set, b.Binding}
			i, seen := index[key]
			if !seen {
				b.Visibility = flag
				index[key] = len(layout.Bindings)
				layout.Bindings = append(layout.Bindings, b)
				continue
			}
			merged := &layout.Bindings[i]
			if merged.Kind != b.Kind {
				return nil, conflictf("set %d binding %d: %s declares %s, %s declares %s",
					b.Set, b.Binding, merged.Visibility, merged.Kind, stage, b.Kind)
			}
			merged.Visibility |= flag
			merged.Count = max(merged.Count, b.Count)
			merged.Size = max(merged.Size, b.Size)
			if merged.Name == "" {
				merged.Name = b.Name
			}
		}

		for _, r := range m.PushConstants {
			r.Visibility = flag
			r.Members = append([]Member(nil), r.Members...)
			var err error
			layout.PushConstants, err = mergePushConstant(layout.PushConstants, r)
			if err != nil {
				return nil, err
			}
		}

		if len(m.SpecConstants) > 0 {
			if layout.SpecConstants == nil {
				layout.SpecConstants = make(map[gpucore.Stage][]SpecConstant)
			}
			layout.SpecConstants[stage] = append([]SpecConstant(nil), m.SpecConstants...)
		}
	}

	sort.Slice(layout.Bindings, func(i, j int) bool {
		if layout.Bindings[i].Set != layout.Bindings[j].Set {
			return layout.Bindings[i].Set < layout.Bindings[j].Set
		}
		return layout.Bindings[i].Binding < layout.Bindings[j].Binding
	})
	sort.Slice(layout.PushConstants, func(i, j int) bool {
		return layout.PushConstants[i].Offset < layout.PushConstants[j].Offset
	})
	return layout, nil
}

func vertexAttributes(vs *Module, o *mergeOptions) ([]VertexAttribute, error) {
	attrs := make([]VertexAttribute, len(vs.Inputs))
	byName := make(map[string]int, len(vs.Inputs))
	for i, in := range vs.Inputs {
		attrs[i] = VertexAttribute{Variable: in}
		if in.Name != "" {
			byName[in.Name] = i
		}
	}
	for _, name := range o.instanceNames {
		i, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
		}
		attrs[i].Instance = true
	}
	if o.rangeSet {
		if o.first < 0 || o.end < o.first || o.end > len(attrs) {
			return nil, fmt.Errorf("%w: instance range [%d, %d) outside %d attributes",
				ErrUnknownAttribute, o.first, o.end, len(attrs))
		}
		for i := o.first; i < o.end; i++ {
			attrs[i].Instance = true
		}
	}
	return attrs, nil
}

// mergePushConstant folds r into ranges. Every existing range overlapping r
// must agree with it on the members inside the overlap; agreeing ranges are
// coalesced into one range visible to all their stages.
func mergePushConstant(ranges []PushConstantRange, r PushConstantRange) ([]PushConstantRange, error) {
	out := ranges[:0:0]
	for _, existing := range ranges {
		if !overlaps(existing, r) {
			out = append(out, existing)
			continue
		}
		if err := compatible(existing, r); err != nil {
			return nil, err
		}
		r = coalesce(existing, r)
	}
	return append(out, r), nil
}

func overlaps(a, b PushConstantRange) bool {
	return a.Offset < b.End() && b.Offset < a.End()
}

func compatible(a, b PushConstantRange) error {
	lo := max(a.Offset, b.Offset)
	hi := min(a.End(), b.End())
	if err := membersCovered(a, b, lo, hi); err != nil {
		return err
	}
	return membersCovered(b, a, lo, hi)
}

// membersCovered checks that every member of a intersecting [lo, hi) has an
// identical member in b.
func membersCovered(a, b PushConstantRange, lo, hi uint32) error {
	for _, m := range a.Members {
		if m.Offset >= hi || m.Offset+m.Size <= lo {
			continue
		}
		found := false
		for _, other := range b.Members {
			if other.Offset == m.Offset && other.Size == m.Size && other.Type == m.Type {
				found = true
				break
			}
		}
		if !found {
			return conflictf("push constants at byte %d: %s declares %s (%d bytes), %s disagrees",
				m.Offset, a.Visibility, m.Type, m.Size, b.Visibility)
		}
	}
	return nil
}

func coalesce(a, b PushConstantRange) PushConstantRange {
	lo := min(a.Offset, b.Offset)
	hi := max(a.End(), b.End())
	members := append([]Member(nil), a.Members...)
	for _, m := range b.Members {
		dup := false
		for _, existing := range members {
			if existing.Offset == m.Offset {
				dup = true
				break
			}
		}
		if !dup {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Offset < members[j].Offset })
	return PushConstantRange{
		Offset:     lo,
		Size:       hi - lo,
		Members:    members,
		Visibility: a.Visibility | b.Visibility,
	}
}
