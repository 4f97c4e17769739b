// Package vector provides nearest-neighbour search over trained word vectors.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector's length differs from the index's.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index stores one vector per word and finds the most similar words to a query.
type Index interface {
	Add(ctx context.Context, words []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, exclude ...string) ([]Result, error)
	Lookup(word string) ([]float32, bool)
	Remove(ctx context.Context, words []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Close() error
}

// Result is a single search hit.
type Result struct {
	Word  string
	Score float64 // cosine similarity in [-1, 1]
}
