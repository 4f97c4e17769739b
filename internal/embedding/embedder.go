// Package embedding exposes trained word vectors behind an Embedder with an LRU cache.
package embedding

import "context"

// Embedder produces unit-length vectors for words.
type Embedder interface {
	Embed(ctx context.Context, word string) ([]float32, error)
	EmbedBatch(ctx context.Context, words []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
