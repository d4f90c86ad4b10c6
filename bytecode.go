package shaderset

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Bytecode is an immutable, non-empty sequence of 32-bit shader words.
//
// Words are serialized in little-endian order regardless of the host byte
// order. A Bytecode never aliases memory owned by its caller.
//
// The zero value is an empty Bytecode and is rejected wherever bytecode is
// required.
type Bytecode struct {
	words []uint32
}

// FromWords copies words into a new Bytecode.
// It returns ErrInvalidBytecode if words is empty.
func FromWords(words []uint32) (Bytecode, error) {
	if len(words) == 0 {
		return Bytecode{}, fmt.Errorf("%w: no words", ErrInvalidBytecode)
	}
	return Bytecode{words: slices.Clone(words)}, nil
}

// FromBytes decodes little-endian words from b.
// It returns ErrInvalidBytecode if b is empty or its length is not a
// multiple of 4.
func FromBytes(b []byte) (Bytecode, error) {
	if len(b) == 0 {
		return Bytecode{}, fmt.Errorf("%w: no bytes", ErrInvalidBytecode)
	}
	if len(b)%4 != 0 {
		return Bytecode{}, fmt.Errorf("%w: length %d is not a multiple of 4", ErrInvalidBytecode, len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return Bytecode{words: words}, nil
}

// MustFromBytes is like FromBytes but panics on error.
// It is intended for bytecode embedded at build time.
func MustFromBytes(b []byte) Bytecode {
	c, err := FromBytes(b)
	if err != nil {
		panic(err)
	}
	return c
}

// Words returns a copy of the words.
func (c Bytecode) Words() []uint32 {
	return slices.Clone(c.words)
}

// Bytes returns the little-endian byte encoding. Its length is always
// 4 × Len().
func (c Bytecode) Bytes() []byte {
	out := make([]byte, 0, len(c.words)*4)
	for _, w := range c.words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out
}

// Len returns the number of words.
func (c Bytecode) Len() int {
	return len(c.words)
}

// IsZero reports whether c is the empty zero value.
func (c Bytecode) IsZero() bool {
	return len(c.words) == 0
}

// IsSPIRV reports whether c starts with the SPIR-V magic number.
// It is informational only; construction does not require it.
func (c Bytecode) IsSPIRV() bool {
	return len(c.words) >= 5 && c.words[0] == spirvMagic
}

// Hash returns the BLAKE3-256 digest of the byte encoding.
func (c Bytecode) Hash() [32]byte {
	return blake3.Sum256(c.Bytes())
}

// Equal reports whether c and other hold the same words.
func (c Bytecode) Equal(other Bytecode) bool {
	return slices.Equal(c.words, other.words)
}

// Compare orders bytecode lexicographically by word.
func (c Bytecode) Compare(other Bytecode) int {
	return slices.Compare(c.words, other.words)
}

// MarshalBinary implements encoding.BinaryMarshaler using the little-endian
// byte encoding.
func (c Bytecode) MarshalBinary() ([]byte, error) {
	if c.IsZero() {
		return nil, fmt.Errorf("%w: no words", ErrInvalidBytecode)
	}
	return c.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (c *Bytecode) UnmarshalBinary(data []byte) error {
	decoded, err := FromBytes(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// String returns a short description for logs.
func (c Bytecode) String() string {
	h := c.Hash()
	return fmt.Sprintf("bytecode(%d words, %x)", len(c.words), h[:6])
}
