package shaderset

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// SpecEntry maps one specialization constant ID to a byte range of
// Specialization.Data.
type SpecEntry struct {
	ID     uint32 `json:"id" yaml:"id" cbor:"1,keyasint"`
	Offset uint32 `json:"offset" yaml:"offset" cbor:"2,keyasint"`
	Size   uint32 `json:"size" yaml:"size" cbor:"3,keyasint"`
}

func (e SpecEntry) within(n int) bool {
	return uint64(e.Offset)+uint64(e.Size) <= uint64(n)
}

// Specialization holds the specialization constant values for one stage.
// The zero value specializes nothing.
type Specialization struct {
	Entries []SpecEntry `json:"entries,omitempty" yaml:"entries,omitempty" cbor:"1,keyasint,omitempty"`
	Data    []byte      `json:"data,omitempty" yaml:"data,omitempty" cbor:"2,keyasint,omitempty"`
}

// SetUint32 sets constant id to v. An existing entry for id is replaced.
func (s *Specialization) SetUint32(id, v uint32) {
	s.set(id, binary.LittleEndian.AppendUint32(nil, v))
}

// SetInt32 sets constant id to v.
func (s *Specialization) SetInt32(id uint32, v int32) {
	s.SetUint32(id, uint32(v))
}

// SetFloat32 sets constant id to v.
func (s *Specialization) SetFloat32(id uint32, v float32) {
	s.SetUint32(id, math.Float32bits(v))
}

// SetBool sets constant id to v. Booleans occupy 4 bytes.
func (s *Specialization) SetBool(id uint32, v bool) {
	var u uint32
	if v {
		u = 1
	}
	s.SetUint32(id, u)
}

func (s *Specialization) set(id uint32, value []byte) {
	for i, e := range s.Entries {
		if e.ID != id {
			continue
		}
		if int(e.Size) == len(value) && e.within(len(s.Data)) {
			copy(s.Data[e.Offset:], value)
			return
		}
		s.Entries = slices.Delete(s.Entries, i, i+1)
		break
	}
	s.Entries = append(s.Entries, SpecEntry{
		ID:     id,
		Offset: uint32(len(s.Data)),
		Size:   uint32(len(value)),
	})
	s.Data = append(s.Data, value...)
}

// Value returns the bytes of constant id.
func (s *Specialization) Value(id uint32) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	for _, e := range s.Entries {
		if e.ID == id {
			if !e.within(len(s.Data)) {
				return nil, false
			}
			return s.Data[e.Offset : e.Offset+e.Size], true
		}
	}
	return nil, false
}

// Validate checks that every entry lies inside Data. A nil Specialization
// is valid.
func (s *Specialization) Validate() error {
	if s == nil {
		return nil
	}
	for _, e := range s.Entries {
		if !e.within(len(s.Data)) {
			return fmt.Errorf("%w: constant %d spans %d bytes at offset %d of %d",
				ErrInvalidSpecialization, e.ID, e.Size, e.Offset, len(s.Data))
		}
	}
	return nil
}

// Len returns the number of constants.
func (s *Specialization) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Clone returns a deep copy of s. Clone of nil is nil.
func (s *Specialization) Clone() *Specialization {
	if s == nil {
		return nil
	}
	return &Specialization{
		Entries: slices.Clone(s.Entries),
		Data:    slices.Clone(s.Data),
	}
}

// SpecConstants holds the optional per-stage specialization blocks passed
// to Builder.Build.
type SpecConstants struct {
	Vertex   *Specialization
	Fragment *Specialization
	Geometry *Specialization
	Hull     *Specialization
	Domain   *Specialization
	Compute  *Specialization
}

// For returns the block for stage, or nil.
func (c *SpecConstants) For(stage Stage) *Specialization {
	if c == nil {
		return nil
	}
	switch stage {
	case StageVertex:
		return c.Vertex
	case StageFragment:
		return c.Fragment
	case StageGeometry:
		return c.Geometry
	case StageTessControl:
		return c.Hull
	case StageTessEval:
		return c.Domain
	case StageCompute:
		return c.Compute
	default:
		return nil
	}
}

// Set stores spec as the block for stage. Invalid stages are ignored.
func (c *SpecConstants) Set(stage Stage, spec *Specialization) {
	switch stage {
	case StageVertex:
		c.Vertex = spec
	case StageFragment:
		c.Fragment = spec
	case StageGeometry:
		c.Geometry = spec
	case StageTessControl:
		c.Hull = spec
	case StageTessEval:
		c.Domain = spec
	case StageCompute:
		c.Compute = spec
	}
}
