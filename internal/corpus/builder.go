package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/internal/vocab"
	"github.com/hyperjump/glove/pkg/utils"
	"go.uber.org/zap"
)

// Indexer maps words to vocabulary indices.
type Indexer interface {
	IndexOf(word string) int
}

type pairKey struct {
	a, b string
}

// Builder accumulates word counts and distance-weighted co-occurrence counts from text.
// A pair of tokens at distance d (1 <= d <= window) inside one line adds 1/d.
type Builder struct {
	mu        sync.Mutex
	window    int
	symmetric bool
	counts    map[string]float64
	order     []string
	pairs     map[pairKey]float64
	tokens    int64
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for debug output (file added, file skipped, etc.).
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a builder counting pairs up to window tokens apart. When symmetric is
// true the right context is counted too, so (a, b) and (b, a) receive the same score.
func NewBuilder(window int, symmetric bool, opts ...BuilderOption) *Builder {
	if window < 1 {
		window = 1
	}
	b := &Builder{
		window:    window,
		symmetric: symmetric,
		counts:    make(map[string]float64),
		pairs:     make(map[pairKey]float64),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	return b
}

// AddText tokenizes text line by line and accumulates its counts.
func (b *Builder) AddText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range Lines(text) {
		b.addTokens(Tokenize(line))
	}
}

func (b *Builder) addTokens(tokens []string) {
	for i, w := range tokens {
		if _, ok := b.counts[w]; !ok {
			b.order = append(b.order, w)
		}
		b.counts[w]++
		b.tokens++
		for d := 1; d <= b.window && i-d >= 0; d++ {
			c := tokens[i-d]
			weight := 1.0 / float64(d)
			b.pairs[pairKey{w, c}] += weight
			if b.symmetric {
				b.pairs[pairKey{c, w}] += weight
			}
		}
	}
}

// AddFile extracts path and adds its text.
func (b *Builder) AddFile(path string) error {
	text, err := Extract(path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	b.AddText(text)
	b.logger.Debug("corpus file added", zap.String("path", path))
	return nil
}

// AddDirectory walks dir recursively and adds every regular file whose extension is in
// allowedExts (all files when empty). Files that fail to extract are logged and skipped.
// Returns the number of files added.
func (b *Builder) AddDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if addErr := b.AddFile(path); addErr != nil {
			b.logger.Warn("corpus file skipped", zap.String("path", path), zap.Error(addErr))
			return nil
		}
		n++
		return nil
	})
	return n, err
}

// Tokens returns the number of tokens seen.
func (b *Builder) Tokens() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// Vocabulary returns the words seen at least minCount times, indexed by descending count.
func (b *Builder) Vocabulary(minCount float64) *vocab.Cache {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := vocab.NewCache()
	for _, w := range b.order {
		v.Add(w, b.counts[w])
	}
	v.Prune(minCount)
	return v
}

// Cooccurrences returns the accumulated pairs whose words are both in idx, ordered by
// (Word1, Word2).
func (b *Builder) Cooccurrences(idx Indexer) []models.Cooccurrence {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Cooccurrence, 0, len(b.pairs))
	for k, score := range b.pairs {
		i, j := idx.IndexOf(k.a), idx.IndexOf(k.b)
		if i < 0 || j < 0 {
			continue
		}
		out = append(out, models.Cooccurrence{Word1: i, Word2: j, Score: score})
	}
	sort.Slice(out, func(x, y int) bool {
		if out[x].Word1 != out[y].Word1 {
			return out[x].Word1 < out[y].Word1
		}
		return out[x].Word2 < out[y].Word2
	})
	return out
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
