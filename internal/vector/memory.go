package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// indexMagic starts every saved index file.
var indexMagic = [4]byte{'G', 'L', 'V', 'I'}

const indexVersion uint32 = 1

// ErrBadIndexFile is returned by Load for files that are not saved indices.
var ErrBadIndexFile = errors.New("not a vector index file")

// MemoryIndex keeps unit-length float32 copies of each word's vector and answers
// queries by brute-force inner product, which equals cosine similarity.
type MemoryIndex struct {
	mu         sync.RWMutex
	dimensions int
	words      []string
	vectors    [][]float32
	positions  map[string]int
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &MemoryIndex{dimensions: dimensions, positions: make(map[string]int)}, nil
}

// Add stores the vectors under the given words, replacing vectors already stored for a word.
// Vectors are normalized to unit length on insert.
func (m *MemoryIndex) Add(_ context.Context, words []string, vectors [][]float32) error {
	if len(words) != len(vectors) {
		return fmt.Errorf("words and vectors length mismatch: %d != %d", len(words), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != m.dimensions {
			return fmt.Errorf("%w for %q: got %d, expected %d", ErrDimensionMismatch, words[i], len(vec), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, word := range words {
		vec := normalized(vectors[i])
		if pos, ok := m.positions[word]; ok {
			m.vectors[pos] = vec
			continue
		}
		m.positions[word] = len(m.words)
		m.words = append(m.words, word)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns up to k words ordered by descending cosine similarity to query,
// skipping the words in exclude. Ties are ordered by word.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int, exclude ...string) ([]Result, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), m.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, w := range exclude {
		skip[w] = struct{}{}
	}
	q := normalized(query)

	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]Result, 0, len(m.words))
	for i, vec := range m.vectors {
		if _, ok := skip[m.words[i]]; ok {
			continue
		}
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results = append(results, Result{Word: m.words[i], Score: innerProduct(q, vec)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Word < results[j].Word
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Lookup returns a copy of the stored unit vector for word.
func (m *MemoryIndex) Lookup(word string) ([]float32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[word]
	if !ok {
		return nil, false
	}
	out := make([]float32, m.dimensions)
	copy(out, m.vectors[pos])
	return out, true
}

// Remove deletes the given words. Unknown words are ignored.
func (m *MemoryIndex) Remove(_ context.Context, words []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range words {
		pos, ok := m.positions[w]
		if !ok {
			continue
		}
		last := len(m.words) - 1
		m.words[pos], m.vectors[pos] = m.words[last], m.vectors[last]
		m.positions[m.words[pos]] = pos
		m.words, m.vectors = m.words[:last], m.vectors[:last]
		delete(m.positions, w)
	}
	return nil
}

// Save writes the index to path, creating the directory if needed. Format (little endian):
// magic "GLVI", version, dimension, count, then per word: length, word bytes, dimension float32s.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	m.mu.RLock()
	defer m.mu.RUnlock()
	w := bufio.NewWriter(f)
	header := []uint32{indexVersion, uint32(m.dimensions), uint32(len(m.words))}
	if _, err := w.Write(indexMagic[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, word := range m.words {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(word))); err != nil {
			return fmt.Errorf("write word length: %w", err)
		}
		if _, err := w.WriteString(word); err != nil {
			return fmt.Errorf("write word: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, m.vectors[i]); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index file: %w", err)
	}
	return f.Close()
}

// Load replaces the contents with the index saved at path. The file's dimension must
// match. A missing file leaves the index unchanged and is not an error.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != indexMagic {
		return ErrBadIndexFile
	}
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if header[0] != indexVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadIndexFile, header[0])
	}
	if int(header[1]) != m.dimensions {
		return fmt.Errorf("%w: file has %d, index expects %d", ErrDimensionMismatch, header[1], m.dimensions)
	}
	n := int(header[2])
	words := make([]string, 0, n)
	vectors := make([][]float32, 0, n)
	positions := make(map[string]int, n)
	for i := 0; i < n; i++ {
		var wordLen uint32
		if err := binary.Read(r, binary.LittleEndian, &wordLen); err != nil {
			return fmt.Errorf("read word length: %w", err)
		}
		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(r, wordBytes); err != nil {
			return fmt.Errorf("read word: %w", err)
		}
		vec := make([]float32, m.dimensions)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		positions[string(wordBytes)] = len(words)
		words = append(words, string(wordBytes))
		vectors = append(vectors, vec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.words, m.vectors, m.positions = words, vectors, positions
	return nil
}

// Size returns the number of stored words.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.words)
}

// Dimensions returns the vector length.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

func innerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func normalized(x []float32) []float32 {
	out := make([]float32, len(x))
	copy(out, x)
	norm := math.Sqrt(innerProduct(x, x))
	if norm == 0 {
		return out
	}
	inv := float32(1 / norm)
	for i := range out {
		out[i] *= inv
	}
	return out
}
