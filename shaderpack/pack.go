package shaderpack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/gogpu/shaderset"
)

// Version is the pack format version written by Encode.
const Version = 1

// maxPayload bounds the declared payload size accepted by Decode.
const maxPayload = 256 << 20

var magic = []byte("SHPK")

var (
	// ErrCorrupt is returned when a pack fails structural or integrity
	// checks.
	ErrCorrupt = errors.New("shaderpack: corrupt pack")

	// ErrUnsupportedVersion is returned for packs written by a newer
	// format version.
	ErrUnsupportedVersion = errors.New("shaderpack: unsupported version")

	// ErrDuplicateStage is returned by Builder when two entries target the
	// same stage.
	ErrDuplicateStage = errors.New("shaderpack: duplicate stage")
)

// Entry is one shader in a pack.
type Entry struct {
	Shader         shaderset.StageShader
	Specialization *shaderset.Specialization
}

type header struct {
	Version     uint        `cbor:"1,keyasint"`
	Compression Compression `cbor:"2,keyasint"`
	Size        uint64      `cbor:"3,keyasint"`
	Digest      []byte      `cbor:"4,keyasint"`
	Payload     []byte      `cbor:"5,keyasint"`
}

type wireEntry struct {
	Stage          shaderset.Stage           `cbor:"1,keyasint"`
	Entry          string                    `cbor:"2,keyasint"`
	Code           []byte                    `cbor:"3,keyasint"`
	Specialization *shaderset.Specialization `cbor:"4,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Stages serialize as their names via MarshalText.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("shaderpack: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("shaderpack: CBOR decoder initialization failed: " + err.Error())
	}
}

// Option configures Encode.
type Option func(*options)

type options struct {
	compression Compression
}

// WithCompression selects the payload compression. The default is
// CompressionZstd. Payloads that do not shrink are stored uncompressed.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Encode serializes entries into a pack.
func Encode(entries []Entry, opts ...Option) ([]byte, error) {
	o := options{compression: CompressionZstd}
	for _, opt := range opts {
		opt(&o)
	}

	wire := make([]wireEntry, len(entries))
	for i, e := range entries {
		code, err := e.Shader.Bytecode()
		if err != nil {
			return nil, fmt.Errorf("shaderpack: entry %d: %w", i, err)
		}
		if err := e.Specialization.Validate(); err != nil {
			return nil, fmt.Errorf("shaderpack: entry %d: %w", i, err)
		}
		wire[i] = wireEntry{
			Stage:          e.Shader.Stage(),
			Entry:          e.Shader.EntryPoint(),
			Code:           code.Bytes(),
			Specialization: e.Specialization,
		}
	}
	payload, err := encMode.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("shaderpack: encode entries: %w", err)
	}
	digest := blake3.Sum256(payload)

	h := header{
		Version:     Version,
		Compression: o.compression,
		Size:        uint64(len(payload)),
		Digest:      digest[:],
	}
	h.Payload, err = compress(payload, o.compression)
	if errors.Is(err, errIncompressible) {
		h.Compression, h.Payload = CompressionNone, payload
	} else if err != nil {
		return nil, err
	}

	out, err := encMode.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("shaderpack: encode header: %w", err)
	}
	shaderset.Logger().Debug("shaderpack: encoded",
		"entries", len(entries), "payload", len(payload), "packed", len(out), "compression", h.Compression)
	return append(append(make([]byte, 0, len(magic)+len(out)), magic...), out...), nil
}

// Decode parses a pack produced by Encode and verifies its digest.
func Decode(data []byte) ([]Entry, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, fmt.Errorf("%w: missing magic", ErrCorrupt)
	}
	var h header
	if err := decMode.Unmarshal(data[len(magic):], &h); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Size > maxPayload {
		return nil, fmt.Errorf("%w: payload size %d exceeds limit", ErrCorrupt, h.Size)
	}
	payload, err := decompress(h.Payload, h.Compression, int(h.Size))
	if err != nil {
		return nil, err
	}
	if digest := blake3.Sum256(payload); !bytes.Equal(digest[:], h.Digest) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}

	var wire []wireEntry
	if err := decMode.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: entries: %w", ErrCorrupt, err)
	}
	entries := make([]Entry, len(wire))
	for i, w := range wire {
		code, err := shaderset.FromBytes(w.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		sh, err := shaderset.NewStageShader(code, w.Stage, w.Entry)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		// The digest detects damage, not tampering.
		if err := w.Specialization.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		entries[i] = Entry{Shader: sh, Specialization: w.Specialization}
	}
	return entries, nil
}

// Builder places every entry in its stage slot and collects the
// specialization blocks. Two entries for one stage fail with
// ErrDuplicateStage.
func Builder(entries []Entry) (shaderset.Builder, *shaderset.SpecConstants, error) {
	var (
		b    shaderset.Builder
		spec shaderset.SpecConstants
	)
	for _, e := range entries {
		stage := e.Shader.Stage()
		if b.Has(stage) {
			return shaderset.Builder{}, nil, fmt.Errorf("%w: %s", ErrDuplicateStage, stage)
		}
		var err error
		if b, err = b.With(e.Shader); err != nil {
			return shaderset.Builder{}, nil, err
		}
		spec.Set(stage, e.Specialization)
	}
	return b, &spec, nil
}
