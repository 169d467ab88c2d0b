package embeddings

import (
	"encoding/binary"
	"fmt"
	"math"

	interrors "github.com/riskymind/nkem-ai-note/internal/errors"
)

// VectorToBytes encodes a vector as little-endian float64 bytes for
// storage in a BLOB column.
func VectorToBytes(vector []float64) []byte {
	buf := make([]byte, 8*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// BytesToVector decodes a BLOB written by VectorToBytes.
func BytesToVector(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", interrors.ErrInvalidEmbeddingLength, len(data))
	}

	vector := make([]float64, len(data)/8)
	for i := range vector {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return vector, nil
}

// VectorToFloat32 narrows a vector for the vec0 index, which stores
// float32. The note_embeddings BLOB keeps the full-precision copy.
func VectorToFloat32(vector []float64) []float32 {
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return out
}
