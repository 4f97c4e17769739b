package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperjump/glove/pkg/utils"
)

// DefaultCacheSize is the number of word vectors a TableEmbedder keeps.
const DefaultCacheSize = 10000

// ErrNoTable is returned when the embedder has no table to read from.
var ErrNoTable = errors.New("embedding: no table loaded")

// WordTable looks up a word's vector. Unknown words resolve to the unknown-word row with
// known set to false.
type WordTable interface {
	WordVector(word string) (vec []float64, known bool, err error)
	VectorLength() int
}

// TableEmbedder serves L2-normalized word vectors from a trained table.
type TableEmbedder struct {
	mu    sync.RWMutex
	table WordTable
	cache *EmbeddingCache
}

// NewTableEmbedder returns an embedder over table caching up to cacheSize words.
func NewTableEmbedder(table WordTable, cacheSize int) *TableEmbedder {
	return &TableEmbedder{table: table, cache: NewEmbeddingCache(cacheSize)}
}

// Lookup returns the normalized vector for word and whether the word is in the vocabulary.
// Words are lowercased and trimmed first.
func (e *TableEmbedder) Lookup(_ context.Context, word string) ([]float32, bool, error) {
	key := strings.ToLower(strings.TrimSpace(word))
	if v, ok := e.cache.Get(key); ok {
		return copyOf(v.Values), v.Known, nil
	}

	e.mu.RLock()
	table := e.table
	e.mu.RUnlock()
	if table == nil {
		return nil, false, ErrNoTable
	}
	vec, known, err := table.WordVector(key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up %q: %w", key, err)
	}
	norm := utils.Normalized(vec)
	values := make([]float32, len(norm))
	for i, x := range norm {
		values[i] = float32(x)
	}
	e.cache.Set(key, Vector{Values: values, Known: known})
	return copyOf(values), known, nil
}

// Embed returns the normalized vector for word, falling back to the unknown-word vector.
func (e *TableEmbedder) Embed(ctx context.Context, word string) ([]float32, error) {
	vec, _, err := e.Lookup(ctx, word)
	return vec, err
}

// EmbedBatch embeds each word in order.
func (e *TableEmbedder) EmbedBatch(ctx context.Context, words []string) ([][]float32, error) {
	out := make([][]float32, len(words))
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(ctx, w)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the table's vector length, or 0 without a table.
func (e *TableEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.table == nil {
		return 0
	}
	return e.table.VectorLength()
}

// Swap replaces the table and drops every cached vector.
func (e *TableEmbedder) Swap(table WordTable) {
	e.mu.Lock()
	e.table = table
	e.mu.Unlock()
	e.Invalidate()
}

// Invalidate drops every cached vector. Call it after the table is trained in place.
func (e *TableEmbedder) Invalidate() {
	e.cache.Purge()
}

// Close releases the cache.
func (e *TableEmbedder) Close() error {
	e.Invalidate()
	return nil
}

func copyOf(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
