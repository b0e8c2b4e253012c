package store

import (
	"encoding/binary"
	"math"
)

// EncodeVector converts an embedding to a binary BLOB (4 bytes per float32,
// little-endian). An empty vector encodes to nil.
func EncodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector converts a binary BLOB back to an embedding. Empty or
// malformed blobs (length not a multiple of 4) decode to nil: corrupt or
// legacy rows degrade to "no vector" instead of breaking retrieval.
func DecodeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
