package shaderset

import (
	"errors"
	"fmt"

	"github.com/gogpu/shaderset/reflection"
)

// Sentinel errors. Use errors.Is to test for them; most are returned wrapped
// in a *StageError or with additional context.
var (
	// ErrInvalidBytecode is returned when bytecode is empty or its byte
	// length is not a multiple of 4.
	ErrInvalidBytecode = errors.New("shaderset: invalid bytecode")

	// ErrMissingRequiredStage is returned by Build when neither a vertex
	// nor a compute shader was supplied.
	ErrMissingRequiredStage = errors.New("shaderset: missing required stage (vertex or compute)")

	// ErrBackendCompile is returned when the device rejects bytecode.
	ErrBackendCompile = errors.New("shaderset: backend compile failure")

	// ErrStageNotLoaded is returned when a stage's entry point is requested
	// before Load or after Dispose.
	ErrStageNotLoaded = errors.New("shaderset: stage not loaded")

	// ErrDoubleCompile is returned when a storage that is already loaded or
	// disposed is compiled again.
	ErrDoubleCompile = errors.New("shaderset: stage compiled twice")

	// ErrMissingVertexShader is returned by Raw when the set has no vertex
	// stage.
	ErrMissingVertexShader = errors.New("shaderset: missing vertex shader")

	// ErrEmptyEntryPoint is returned for a shader without an entry point name.
	ErrEmptyEntryPoint = errors.New("shaderset: empty entry point name")

	// ErrInvalidEntryPoint is returned for an entry point name containing a
	// path separator or a NUL byte.
	ErrInvalidEntryPoint = errors.New("shaderset: invalid entry point name")

	// ErrInvalidSpecialization is returned for a specialization block whose
	// entries reach past its data.
	ErrInvalidSpecialization = errors.New("shaderset: invalid specialization")

	// ErrStageMismatch is returned when a shader is placed in a slot for a
	// different stage.
	ErrStageMismatch = errors.New("shaderset: shader stage does not match slot")

	// ErrInvalidStage is returned for a stage value outside the defined set.
	ErrInvalidStage = errors.New("shaderset: invalid stage")

	// ErrSetDisposed is returned by Load on a disposed set.
	ErrSetDisposed = errors.New("shaderset: set disposed")

	// ErrCacheClosed is returned by a closed ModuleCache.
	ErrCacheClosed = errors.New("shaderset: module cache closed")

	// ErrReflectionConflict is returned when two stages disagree about a
	// binding or push-constant range. The concrete error is a
	// *reflection.ConflictError.
	ErrReflectionConflict = reflection.ErrConflict

	// ErrNoVertexOrCompute is returned by Reflect when neither a vertex nor
	// a compute shader was supplied.
	ErrNoVertexOrCompute = reflection.ErrNoVertexOrCompute

	// ErrEntryPointNotFound is returned by Reflect when a stage's bytecode
	// has no entry point with the slot's name and stage.
	ErrEntryPointNotFound = reflection.ErrEntryPointNotFound
)

// StageError annotates a failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
