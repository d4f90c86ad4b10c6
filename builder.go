package shaderset

import (
	"fmt"

	"github.com/gogpu/shaderset/gpucore"
	"github.com/gogpu/shaderset/reflection"
)

// Builder accumulates at most one shader per stage.
//
// Builder is a value type: every With method returns an updated copy and
// leaves the receiver unchanged. The zero value is an empty builder.
//
//	b, err := shaderset.Builder{}.WithVertex(vs)
//	if err != nil { ... }
//	b, err = b.WithFragment(fs)
type Builder struct {
	slots [gpucore.NumStages]slot
}

type slot struct {
	code  Bytecode
	entry string
}

func (s slot) empty() bool { return s.code.IsZero() }

// WithVertex sets the vertex stage.
func (b Builder) WithVertex(sh Shader) (Builder, error) { return b.with(StageVertex, sh) }

// WithFragment sets the fragment stage.
func (b Builder) WithFragment(sh Shader) (Builder, error) { return b.with(StageFragment, sh) }

// WithGeometry sets the geometry stage.
func (b Builder) WithGeometry(sh Shader) (Builder, error) { return b.with(StageGeometry, sh) }

// WithHull sets the tessellation-control stage.
func (b Builder) WithHull(sh Shader) (Builder, error) { return b.with(StageTessControl, sh) }

// WithDomain sets the tessellation-evaluation stage.
func (b Builder) WithDomain(sh Shader) (Builder, error) { return b.with(StageTessEval, sh) }

// WithCompute sets the compute stage.
func (b Builder) WithCompute(sh Shader) (Builder, error) { return b.with(StageCompute, sh) }

// With places sh in the slot of its own stage.
func (b Builder) With(sh Shader) (Builder, error) { return b.with(sh.Stage(), sh) }

// with replaces the slot for stage. The shader's own stage must match.
func (b Builder) with(stage Stage, sh Shader) (Builder, error) {
	if !stage.Valid() {
		return b, fmt.Errorf("%w: %d", ErrInvalidStage, stage)
	}
	if sh.Stage() != stage {
		return b, stageError(stage, fmt.Errorf("%w: got %s shader", ErrStageMismatch, sh.Stage()))
	}
	entry := sh.EntryPoint()
	if err := checkEntryPoint(entry); err != nil {
		return b, stageError(stage, err)
	}
	code, err := sh.Bytecode()
	if err != nil {
		return b, stageError(stage, err)
	}
	if code.IsZero() {
		return b, stageError(stage, fmt.Errorf("%w: no words", ErrInvalidBytecode))
	}
	b.slots[stage.Index()] = slot{code: code, entry: entry}
	return b, nil
}

// Has reports whether stage is populated.
func (b Builder) Has(stage Stage) bool {
	return stage.Valid() && !b.slots[stage.Index()].empty()
}

// Without returns a copy with stage cleared.
func (b Builder) Without(stage Stage) Builder {
	if stage.Valid() {
		b.slots[stage.Index()] = slot{}
	}
	return b
}

// Build creates an unloaded Set with one storage per populated stage,
// paired with the matching block of spec (which may be nil). Build does
// not touch any device; call Set.Load to compile.
//
// Specialization blocks are copied, so spec may be reused afterwards. A
// block with an entry outside its data fails with ErrInvalidSpecialization.
func (b Builder) Build(spec *SpecConstants) (*Set, error) {
	if !b.Has(StageVertex) && !b.Has(StageCompute) {
		return nil, ErrMissingRequiredStage
	}
	set := &Set{}
	for i, sl := range b.slots {
		if sl.empty() {
			continue
		}
		stage := gpucore.AllStages[i]
		block := spec.For(stage)
		if err := block.Validate(); err != nil {
			return nil, stageError(stage, err)
		}
		set.storages[i] = newStorage(stage, sl.code, sl.entry, block.Clone())
	}
	return set, nil
}

// Reflect parses every populated stage, narrows each module to the slot's
// entry point and merges the results into one pipeline layout. Parse
// failures are returned as *StageError wrapping reflection.ErrMalformed, a
// missing entry point as *StageError wrapping ErrEntryPointNotFound;
// disagreeing stages yield ErrReflectionConflict.
func (b Builder) Reflect(opts ...reflection.MergeOption) (*reflection.Layout, error) {
	return b.reflect(nil, opts)
}

func (b Builder) reflect(rc *ReflectionCache, opts []reflection.MergeOption) (*reflection.Layout, error) {
	if !b.Has(StageVertex) && !b.Has(StageCompute) {
		return nil, ErrNoVertexOrCompute
	}
	modules := make(map[gpucore.Stage]*reflection.Module)
	for i, sl := range b.slots {
		if sl.empty() {
			continue
		}
		stage := gpucore.AllStages[i]
		var (
			m   *reflection.Module
			err error
		)
		if rc != nil {
			m, err = rc.Module(sl.code)
		} else {
			m, err = reflection.Parse(sl.code.words)
		}
		if err == nil {
			m, err = m.ForEntryPoint(sl.entry, stage)
		}
		if err != nil {
			return nil, stageError(stage, err)
		}
		modules[stage] = m
	}
	return reflection.Merge(modules, opts...)
}
