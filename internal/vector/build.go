package vector

import (
	"context"
	"fmt"
)

// VectorTable exposes a trained matrix row by row.
type VectorTable interface {
	Rows() int
	VectorLength() int
	Vector(index int) ([]float64, error)
}

// Words maps row indices to words.
type Words interface {
	NumWords() int
	WordAt(index int) string
}

// BuildFromTable returns an index holding the vector of every vocabulary word that has
// a row in table. The unknown-word row is not indexed.
func BuildFromTable(ctx context.Context, table VectorTable, words Words) (*MemoryIndex, error) {
	idx, err := NewMemoryIndex(table.VectorLength())
	if err != nil {
		return nil, err
	}
	n := words.NumWords()
	if rows := table.Rows(); n > rows {
		n = rows
	}
	batchWords := make([]string, 0, n)
	batchVecs := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		word := words.WordAt(i)
		if word == "" {
			continue
		}
		vec, err := table.Vector(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read vector %d: %w", i, err)
		}
		batchWords = append(batchWords, word)
		batchVecs = append(batchVecs, ToFloat32(vec))
	}
	if err := idx.Add(ctx, batchWords, batchVecs); err != nil {
		return nil, fmt.Errorf("failed to index vectors: %w", err)
	}
	return idx, nil
}

// ToFloat32 converts a float64 vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
