// Package facematch implements the nearest-rider matcher: embedding
// serialization, Euclidean distance, and per-rider minimum-distance ranking
// against every enrolled template.
package facematch

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding serializes a vector as base64 of its little-endian
// float64 buffer. This matches the layout written by the legacy enrollment
// pipeline, so templates enrolled there decode unchanged.
func EncodeEmbedding(v []float64) string {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeEmbedding reverses EncodeEmbedding. It fails on invalid base64 or
// a buffer that is not a whole number of float64s.
func DecodeEmbedding(s string) ([]float64, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid embedding encoding: %w", err)
	}
	if len(buf) == 0 || len(buf)%8 != 0 {
		return nil, fmt.Errorf("embedding buffer length %d is not a whole number of float64s", len(buf))
	}
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v, nil
}
