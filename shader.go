package shaderset

import (
	"cmp"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/naga"
)

// Shader is a source of bytecode for one pipeline stage.
//
// Bytecode may fail for sources that compile lazily; precompiled sources
// never fail.
type Shader interface {
	Bytecode() (Bytecode, error)
	EntryPoint() string
	Stage() Stage
}

// StageShader is a precompiled shader for a single stage. It owns no GPU
// resources and is safe to share.
type StageShader struct {
	code  Bytecode
	stage Stage
	entry string
}

// NewStageShader pairs code with its stage and entry point name.
func NewStageShader(code Bytecode, stage Stage, entry string) (StageShader, error) {
	if code.IsZero() {
		return StageShader{}, fmt.Errorf("%w: no words", ErrInvalidBytecode)
	}
	if !stage.Valid() {
		return StageShader{}, fmt.Errorf("%w: %d", ErrInvalidStage, stage)
	}
	if err := checkEntryPoint(entry); err != nil {
		return StageShader{}, err
	}
	return StageShader{code: code, stage: stage, entry: entry}, nil
}

// checkEntryPoint rejects names that cannot be SPIR-V entry points and could
// not be used as file name components.
func checkEntryPoint(entry string) error {
	if entry == "" {
		return ErrEmptyEntryPoint
	}
	if strings.ContainsAny(entry, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidEntryPoint, entry)
	}
	return nil
}

// Bytecode returns the shader's bytecode.
func (s StageShader) Bytecode() (Bytecode, error) {
	if s.code.IsZero() {
		return Bytecode{}, fmt.Errorf("%w: zero StageShader", ErrInvalidBytecode)
	}
	return s.code, nil
}

// EntryPoint returns the entry point name.
func (s StageShader) EntryPoint() string { return s.entry }

// Stage returns the pipeline stage.
func (s StageShader) Stage() Stage { return s.stage }

// Equal reports whether s and other have the same bytecode, stage and entry
// point.
func (s StageShader) Equal(other StageShader) bool {
	return s.stage == other.stage && s.entry == other.entry && s.code.Equal(other.code)
}

// Compare orders shaders by bytecode, then stage, then entry point.
func (s StageShader) Compare(other StageShader) int {
	if c := s.code.Compare(other.code); c != 0 {
		return c
	}
	if c := cmp.Compare(s.stage, other.stage); c != 0 {
		return c
	}
	return strings.Compare(s.entry, other.entry)
}

// ShaderKey identifies a shader by content. Usable as a map key.
type ShaderKey struct {
	Hash  [32]byte
	Stage Stage
	Entry string
}

// Key returns the content key of s.
func (s StageShader) Key() ShaderKey {
	return ShaderKey{Hash: s.code.Hash(), Stage: s.stage, Entry: s.entry}
}

// String returns a short description for logs.
func (s StageShader) String() string {
	return fmt.Sprintf("%s:%s %s", s.stage, s.entry, s.code)
}

// WGSLShader compiles WGSL source to SPIR-V on first use.
// The result, including a compile error, is memoized.
type WGSLShader struct {
	source string
	stage  Stage
	entry  string

	once sync.Once
	code Bytecode
	err  error
}

// NewWGSLShader returns a shader compiled lazily from WGSL source.
// entry must name an entry point of source for stage.
func NewWGSLShader(source string, stage Stage, entry string) *WGSLShader {
	return &WGSLShader{source: source, stage: stage, entry: entry}
}

// Bytecode compiles the source with naga.
func (s *WGSLShader) Bytecode() (Bytecode, error) {
	s.once.Do(func() {
		if err := checkEntryPoint(s.entry); err != nil {
			s.err = err
			return
		}
		spirv, err := naga.Compile(s.source)
		if err != nil {
			s.err = fmt.Errorf("shaderset: failed to compile %s shader: %w", s.stage, err)
			return
		}
		s.code, s.err = FromBytes(spirv)
	})
	return s.code, s.err
}

// EntryPoint returns the entry point name.
func (s *WGSLShader) EntryPoint() string { return s.entry }

// Stage returns the pipeline stage.
func (s *WGSLShader) Stage() Stage { return s.stage }

// Compiled returns the compiled shader as a StageShader.
func (s *WGSLShader) Compiled() (StageShader, error) {
	code, err := s.Bytecode()
	if err != nil {
		return StageShader{}, err
	}
	return NewStageShader(code, s.stage, s.entry)
}
