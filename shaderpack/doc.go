// Package shaderpack serializes stage shaders for storage or transport.
//
// A pack is a 4-byte magic "SHPK" followed by a CBOR header (Core
// Deterministic Encoding) carrying the format version, the compression of
// the payload, the uncompressed payload size and its BLAKE3-256 digest. The
// payload is a CBOR array of entries, each holding one shader's stage,
// entry point, little-endian bytecode and optional specialization
// constants.
//
// Encoding the same entries with the same options always produces the same
// bytes.
package shaderpack
