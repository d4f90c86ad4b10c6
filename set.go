package shaderset

import (
	"errors"
	"fmt"

	"github.com/gogpu/shaderset/gpucore"
)

// Stages is the per-stage entry point bundle consumed by graphics pipeline
// creation. Vertex is always present.
type Stages struct {
	Vertex   EntryPoint
	Fragment *EntryPoint
	Domain   *EntryPoint
	Hull     *EntryPoint
	Geometry *EntryPoint
}

// Set is a compiled, stage-indexed collection of storages built by a
// Builder. It holds at most one storage per stage and always contains a
// vertex or compute stage.
//
// A Set is not safe for concurrent use.
type Set struct {
	storages [gpucore.NumStages]*Storage
	disposed bool
}

// LoadOption configures Set.Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	label string
}

// WithLabel prefixes module debug labels with label.
func WithLabel(label string) LoadOption {
	return func(o *loadOptions) {
		o.label = label
	}
}

// Load compiles every stage in canonical order. It stops at the first
// failure; stages compiled before it stay Loaded and must still be released
// with Dispose, or Load may be called again to compile the remaining
// stages. Loading a set whose stages are all Loaded fails with
// ErrDoubleCompile.
func (s *Set) Load(dev Device, opts ...LoadOption) error {
	if s.disposed {
		return ErrSetDisposed
	}
	if s.State() == Loaded {
		return fmt.Errorf("%w: set already loaded", ErrDoubleCompile)
	}
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	for _, st := range s.storages {
		if st == nil || st.state == Loaded {
			continue
		}
		label := st.stage.String() + ":" + st.entry
		if o.label != "" {
			label = o.label + "/" + label
		}
		if err := st.Compile(dev, label); err != nil {
			return err
		}
	}
	return nil
}

// Raw returns the graphics entry points. It fails with
// ErrMissingVertexShader if the set has no vertex stage and with
// ErrStageNotLoaded if any graphics stage is not Loaded.
func (s *Set) Raw() (Stages, error) {
	vs := s.storages[StageVertex.Index()]
	if vs == nil {
		return Stages{}, ErrMissingVertexShader
	}
	vertex, err := vs.EntryPoint()
	if err != nil {
		return Stages{}, err
	}
	out := Stages{Vertex: vertex}
	for _, opt := range []struct {
		stage Stage
		dst   **EntryPoint
	}{
		{StageFragment, &out.Fragment},
		{StageTessEval, &out.Domain},
		{StageTessControl, &out.Hull},
		{StageGeometry, &out.Geometry},
	} {
		st := s.storages[opt.stage.Index()]
		if st == nil {
			continue
		}
		ep, err := st.EntryPoint()
		if err != nil {
			return Stages{}, err
		}
		*opt.dst = &ep
	}
	return out, nil
}

// Compute returns the compute entry point for compute pipeline creation.
func (s *Set) Compute() (EntryPoint, error) {
	cs := s.storages[StageCompute.Index()]
	if cs == nil {
		return EntryPoint{}, stageError(StageCompute, errors.New("shaderset: set has no compute stage"))
	}
	return cs.EntryPoint()
}

// Dispose releases every loaded module. It is safe to call more than once.
// A disposed set cannot be loaded again.
func (s *Set) Dispose(dev Device) {
	for _, st := range s.storages {
		if st != nil {
			st.Dispose(dev)
		}
	}
	s.disposed = true
}

// IsDisposed reports whether Dispose has been called.
func (s *Set) IsDisposed() bool { return s.disposed }

// Storage returns the storage for stage, or nil.
func (s *Set) Storage(stage Stage) *Storage {
	if !stage.Valid() {
		return nil
	}
	return s.storages[stage.Index()]
}

// Has reports whether the set contains stage.
func (s *Set) Has(stage Stage) bool {
	return s.Storage(stage) != nil
}

// Stages returns the stages present in canonical order.
func (s *Set) Stages() []Stage {
	var out []Stage
	for _, st := range s.storages {
		if st != nil {
			out = append(out, st.stage)
		}
	}
	return out
}

// State summarizes the storages: Loaded if all are loaded, Disposed once
// the set is disposed, Unloaded otherwise.
func (s *Set) State() StorageState {
	if s.disposed {
		return Disposed
	}
	for _, st := range s.storages {
		if st != nil && st.state != Loaded {
			return Unloaded
		}
	}
	return Loaded
}

func (s *Set) String() string {
	return fmt.Sprintf("shaderset.Set%v(%s)", s.Stages(), s.State())
}
