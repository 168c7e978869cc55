package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
)

// serializeVector converts a float64 slice to its binary BLOB form.
// Little-endian IEEE 754, 8 bytes per element.
func serializeVector(vector []float64) []byte {
	buf := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// deserializeVector converts a binary BLOB back to a float64 slice.
// dimension is used to validate the buffer size.
func deserializeVector(buf []byte, dimension int) ([]float64, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dimension)
	}
	if len(buf) != dimension*8 {
		return nil, fmt.Errorf("vector blob size mismatch: expected %d bytes, got %d", dimension*8, len(buf))
	}
	vector := make([]float64, dimension)
	for i := 0; i < dimension; i++ {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vector, nil
}
