package shaderset

import (
	"fmt"
)

// StorageState is the lifecycle state of a Storage.
type StorageState uint8

// Storage states. Disposed is terminal.
const (
	Unloaded StorageState = iota
	Loaded
	Disposed
)

func (s StorageState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("StorageState(%d)", uint8(s))
	}
}

// EntryPoint is everything pipeline creation needs for one stage.
type EntryPoint struct {
	Stage          Stage
	Name           string
	Module         ShaderModuleID
	Specialization Specialization
}

// Storage is the runtime record of one stage of a Set: bytecode, entry
// point, optional specialization and, once compiled, the backend module.
type Storage struct {
	stage  Stage
	code   Bytecode
	entry  string
	spec   *Specialization
	module ShaderModuleID
	state  StorageState
}

func newStorage(stage Stage, code Bytecode, entry string, spec *Specialization) *Storage {
	return &Storage{stage: stage, code: code, entry: entry, spec: spec}
}

// Stage returns the storage's pipeline stage.
func (s *Storage) Stage() Stage { return s.stage }

// Bytecode returns the stored bytecode.
func (s *Storage) Bytecode() Bytecode { return s.code }

// Entry returns the entry point name.
func (s *Storage) Entry() string { return s.entry }

// Specialization returns the specialization block, or nil.
func (s *Storage) Specialization() *Specialization { return s.spec }

// State returns the lifecycle state.
func (s *Storage) State() StorageState { return s.state }

// Module returns the backend module, or InvalidModule unless Loaded.
func (s *Storage) Module() ShaderModuleID { return s.module }

// Compile creates the backend module. It fails with ErrDoubleCompile unless
// the storage is Unloaded, and with ErrBackendCompile if dev rejects the
// bytecode, in which case the storage stays Unloaded.
func (s *Storage) Compile(dev Device, label string) error {
	if s.state != Unloaded {
		return stageError(s.stage, fmt.Errorf("%w (state %s)", ErrDoubleCompile, s.state))
	}
	id, err := dev.CreateShaderModule(s.code.Words(), label)
	if err != nil {
		return stageError(s.stage, fmt.Errorf("%w: %w", ErrBackendCompile, err))
	}
	if id == InvalidModule {
		return stageError(s.stage, fmt.Errorf("%w: device returned an invalid module", ErrBackendCompile))
	}
	s.module = id
	s.state = Loaded
	Logger().Debug("shaderset: module created",
		"stage", s.stage, "entry", s.entry, "module", uint64(id), "words", s.code.Len())
	return nil
}

// EntryPoint returns the stage's entry point. It fails with
// ErrStageNotLoaded unless the storage is Loaded.
func (s *Storage) EntryPoint() (EntryPoint, error) {
	if s.state != Loaded {
		return EntryPoint{}, stageError(s.stage, fmt.Errorf("%w (state %s)", ErrStageNotLoaded, s.state))
	}
	ep := EntryPoint{Stage: s.stage, Name: s.entry, Module: s.module}
	if s.spec != nil {
		ep.Specialization = *s.spec.Clone()
	}
	return ep, nil
}

// Dispose releases the backend module if the storage is Loaded. It is a
// no-op otherwise.
func (s *Storage) Dispose(dev Device) {
	if s.state != Loaded {
		return
	}
	dev.DestroyShaderModule(s.module)
	Logger().Debug("shaderset: module destroyed", "stage", s.stage, "module", uint64(s.module))
	s.module = InvalidModule
	s.state = Disposed
}
