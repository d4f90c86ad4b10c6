// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package reflection

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when bytecode cannot be parsed as SPIR-V.
	ErrMalformed = errors.New("reflection: malformed SPIR-V")

	// ErrConflict is the sentinel matched by every *ConflictError.
	ErrConflict = errors.New("reflection: conflicting stage reflections")

	// ErrNoVertexOrCompute is returned by Merge when neither a vertex nor a
	// compute stage was supplied.
	ErrNoVertexOrCompute = errors.New("reflection: no vertex or compute stage provided")

	// ErrEntryPointNotFound is returned when a module has no entry point with
	// the requested name and stage.
	ErrEntryPointNotFound = errors.New("reflection: entry point not found")

	// ErrUnknownAttribute is returned when an instance attribute is requested
	// that the vertex stage does not declare.
	ErrUnknownAttribute = errors.New("reflection: unknown vertex attribute")
)

// ConflictError describes two stages that disagree about a binding or a
// push-constant range.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return "reflection: conflict: " + e.Detail
}

// Unwrap allows errors.Is(err, ErrConflict).
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func conflictf(format string, args ...any) error {
	return &ConflictError{Detail: fmt.Sprintf(format, args...)}
}

func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}
