// Package glove implements a GloVe word-vector table: the embedding matrix and biases,
// the weighted least-squares training step, and the whitespace text interchange format.
package glove

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/hyperjump/glove/internal/optimizer"
)

// Defaults used when the corresponding Config field is zero.
const (
	DefaultXMax         = 0.75
	DefaultMaxCount     = 100.0
	DefaultLearningRate = 0.05
)

// UnknownWord is the token the unknown-word row is written under by Save.
const UnknownWord = "UNK"

// Vocabulary maps words to stable row indices.
type Vocabulary interface {
	// IndexOf returns the word's index, or a negative value if the word is absent.
	IndexOf(word string) int
	// NumWords returns the vocabulary size.
	NumWords() int
	// WordAt returns the word with the given index, or "" if there is none.
	WordAt(index int) string
}

// RandomSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Config holds the hyperparameters of a table. They are fixed for the table's lifetime.
type Config struct {
	VectorLength int
	LearningRate float64
	// XMax is both the weighting-curve exponent and the score threshold above which
	// the weighting curve is bypassed.
	XMax float64
	// MaxCount normalizes the score before the weighting curve is applied.
	MaxCount   float64
	UseAdaGrad bool
	Seed       int64
	// Random overrides the seeded source when set.
	Random RandomSource
}

// DefaultConfig returns a config with the given vector length and default hyperparameters.
func DefaultConfig(vectorLength int) Config {
	return Config{
		VectorLength: vectorLength,
		LearningRate: DefaultLearningRate,
		XMax:         DefaultXMax,
		MaxCount:     DefaultMaxCount,
		UseAdaGrad:   true,
		Seed:         1,
	}
}

// Table owns the embedding matrix, the bias vector and their optimizers. Rows are
// indexed by vocabulary index; the row after the last vocabulary word holds the
// unknown-word vector.
//
// Table does no locking. Concurrent TrainPair calls must not share row indices.
type Table struct {
	vocab     Vocabulary
	cfg       Config
	rng       RandomSource
	syn0      [][]float64
	bias      []float64
	weightOpt optimizer.Optimizer
	biasOpt   optimizer.Optimizer
}

// New creates an uninitialized table. Call Initialize before use.
func New(vocab Vocabulary, cfg Config) (*Table, error) {
	if vocab == nil {
		return nil, errors.New("glove: vocabulary is required")
	}
	if cfg.VectorLength <= 0 {
		return nil, fmt.Errorf("glove: vector length must be positive, got %d", cfg.VectorLength)
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = DefaultLearningRate
	}
	if cfg.XMax == 0 {
		cfg.XMax = DefaultXMax
	}
	if cfg.MaxCount == 0 {
		cfg.MaxCount = DefaultMaxCount
	}
	rng := cfg.Random
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return &Table{vocab: vocab, cfg: cfg, rng: rng}, nil
}

// Initialize allocates state that is missing, or all state when forceReset is true.
// The matrix gets (NumWords()+1) rows of uniform values in [-0.5, 0.5)/VectorLength,
// biases start at zero, optimizer history starts at zero. With forceReset false and
// state present, Initialize changes nothing.
func (t *Table) Initialize(forceReset bool) error {
	if t.syn0 == nil || forceReset {
		t.syn0 = newMatrix(t.vocab.NumWords()+1, t.cfg.VectorLength)
		for _, row := range t.syn0 {
			t.fillRandom(row)
		}
		t.fillRandom(t.syn0[t.UnknownIndex()])
	}
	rows := len(t.syn0)
	if t.weightOpt == nil || forceReset || !hasShape(t.weightOpt, rows, t.cfg.VectorLength) {
		opt, err := optimizer.New(rows, t.cfg.VectorLength, t.cfg.LearningRate, t.cfg.UseAdaGrad)
		if err != nil {
			return fmt.Errorf("failed to create weight optimizer: %w", err)
		}
		t.weightOpt = opt
	}
	if t.bias == nil || forceReset || len(t.bias) != rows {
		t.bias = make([]float64, rows)
	}
	if t.biasOpt == nil || forceReset || !hasShape(t.biasOpt, rows, 1) {
		opt, err := optimizer.New(rows, 1, t.cfg.LearningRate, t.cfg.UseAdaGrad)
		if err != nil {
			return fmt.Errorf("failed to create bias optimizer: %w", err)
		}
		t.biasOpt = opt
	}
	return nil
}

// Reset reallocates and re-randomizes all state.
func (t *Table) Reset() error {
	return t.Initialize(true)
}

func (t *Table) fillRandom(row []float64) {
	n := float64(t.cfg.VectorLength)
	for i := range row {
		row[i] = (t.rng.Float64() - 0.5) / n
	}
}

func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

func hasShape(o optimizer.Optimizer, rows, cols int) bool {
	r, c := o.Shape()
	return r == rows && c == cols
}

// Rows returns the number of matrix rows, 0 before Initialize.
func (t *Table) Rows() int {
	return len(t.syn0)
}

// VectorLength returns the width of each row.
func (t *Table) VectorLength() int {
	return t.cfg.VectorLength
}

// UnknownIndex returns the reserved unknown-word row index.
func (t *Table) UnknownIndex() int {
	return t.vocab.NumWords()
}

// Vocabulary returns the vocabulary the table is indexed by.
func (t *Table) Vocabulary() Vocabulary {
	return t.vocab
}

// Config returns the table's hyperparameters.
func (t *Table) Config() Config {
	return t.cfg
}

// XMax returns the weighting-curve exponent and threshold.
func (t *Table) XMax() float64 { return t.cfg.XMax }

// MaxCount returns the weighting-curve normalization count.
func (t *Table) MaxCount() float64 { return t.cfg.MaxCount }

// WeightOptimizer returns the optimizer shaped like the embedding matrix.
func (t *Table) WeightOptimizer() optimizer.Optimizer { return t.weightOpt }

// BiasOptimizer returns the optimizer shaped like the bias vector.
func (t *Table) BiasOptimizer() optimizer.Optimizer { return t.biasOpt }

func (t *Table) checkIndex(index int) error {
	if t.syn0 == nil {
		return ErrNotInitialized
	}
	if index < 0 || index >= len(t.syn0) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, len(t.syn0))
	}
	return nil
}

// Vector returns a copy of row index.
func (t *Table) Vector(index int) ([]float64, error) {
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	out := make([]float64, t.cfg.VectorLength)
	copy(out, t.syn0[index])
	return out, nil
}

// SetVector overwrites row index with vec.
func (t *Table) SetVector(index int, vec []float64) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	if len(vec) != t.cfg.VectorLength {
		return fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(vec), t.cfg.VectorLength)
	}
	copy(t.syn0[index], vec)
	return nil
}

// Bias returns the bias of row index.
func (t *Table) Bias(index int) (float64, error) {
	if err := t.checkIndex(index); err != nil {
		return 0, err
	}
	return t.bias[index], nil
}

// SetBias overwrites the bias of row index.
func (t *Table) SetBias(index int, b float64) error {
	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.bias[index] = b
	return nil
}

// WordVector returns a copy of the vector for word, falling back to the unknown-word
// row when the word is not in the vocabulary. known reports whether the word was found.
// A table loaded from a file without an unknown-word line has no such row; unknown
// words then get a zero vector.
func (t *Table) WordVector(word string) (vec []float64, known bool, err error) {
	idx := t.vocab.IndexOf(word)
	if idx >= 0 {
		vec, err = t.Vector(idx)
		return vec, true, err
	}
	unknown := t.UnknownIndex()
	if t.syn0 != nil && unknown >= len(t.syn0) {
		return make([]float64, t.VectorLength()), false, nil
	}
	vec, err = t.Vector(unknown)
	return vec, false, err
}
