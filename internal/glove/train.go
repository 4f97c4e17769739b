package glove

import (
	"fmt"
	"math"

	"github.com/hyperjump/glove/internal/models"
)

// ResidualEpsilon replaces a non-finite residual, e.g. from a non-positive score.
const ResidualEpsilon = 1e-5

// Strategy identifies a training entry point.
type Strategy int

const (
	// StrategyCooccurrence trains on (word, word, co-occurrence score) samples.
	StrategyCooccurrence Strategy = iota
	// StrategyNegativeSampling trains on raw pairs with sampled negatives.
	StrategyNegativeSampling
)

func (s Strategy) String() string {
	switch s {
	case StrategyCooccurrence:
		return "cooccurrence"
	case StrategyNegativeSampling:
		return "negative-sampling"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Supports reports whether the table implements the given training strategy.
// Only StrategyCooccurrence is implemented.
func (t *Table) Supports(s Strategy) bool {
	return s == StrategyCooccurrence
}

// TrainNegative is the negative-sampling entry point. It always fails with ErrUnsupported.
func (t *Table) TrainNegative(w1, w2 models.VocabWord, nextRandom *uint64, alpha float64) error {
	return fmt.Errorf("%w: %s training on %s/%s", ErrUnsupported, StrategyNegativeSampling, w1.Word, w2.Word)
}

// Residual returns the training residual for a prediction and an observed score.
// The weighting curve min(1, score/MaxCount)^XMax is applied only when score <= XMax;
// above XMax the raw prediction is used. Non-finite results become ResidualEpsilon.
func (t *Table) Residual(prediction, score float64) float64 {
	var r float64
	if score > t.cfg.XMax {
		r = prediction
	} else {
		weight := math.Pow(math.Min(1.0, score/t.cfg.MaxCount), t.cfg.XMax)
		r = weight * (prediction - math.Log(score))
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		r = ResidualEpsilon
	}
	return r
}

// Predict returns dot(v1, v2) + b1 + b2 for the two words.
func (t *Table) Predict(w1, w2 models.VocabWord) (float64, error) {
	if err := t.checkWord(w1); err != nil {
		return 0, err
	}
	if err := t.checkWord(w2); err != nil {
		return 0, err
	}
	return t.predict(w1.Index, w2.Index), nil
}

func (t *Table) predict(i, j int) float64 {
	return dot(t.syn0[i], t.syn0[j]) + t.bias[i] + t.bias[j]
}

func (t *Table) checkWord(w models.VocabWord) error {
	if t.syn0 == nil {
		return ErrNotInitialized
	}
	if w.Index < 0 || w.Index >= len(t.syn0) {
		return fmt.Errorf("%w for word %q: %d not in [0, %d)", ErrInvalidIndex, w.Word, w.Index, len(t.syn0))
	}
	return nil
}

// TrainPair runs one weighted least-squares step on the pair and returns the residual.
// Each word's vector moves along the other word's vector scaled by the residual, and
// each bias along the residual, through the table's optimizers. Both cross terms use
// the vectors as they were before the call, rather than moving w2 along w1's freshly
// updated vector, so swapping the pair gives the same update. Invalid indices fail
// before any mutation.
func (t *Table) TrainPair(w1, w2 models.VocabWord, score float64) (float64, error) {
	if err := t.checkWord(w1); err != nil {
		return 0, err
	}
	if err := t.checkWord(w2); err != nil {
		return 0, err
	}
	vec1, vec2 := t.syn0[w1.Index], t.syn0[w2.Index]
	residual := t.Residual(t.predict(w1.Index, w2.Index), score)
	gradient := residual

	n := t.cfg.VectorLength
	work := make([]float64, 3*n)
	ctx1, ctx2, buf := work[:n], work[n:2*n], work[2*n:]
	copy(ctx1, vec1)
	copy(ctx2, vec2)

	if err := t.update(w1.Index, vec1, ctx2, gradient, buf); err != nil {
		return 0, err
	}
	if err := t.update(w2.Index, vec2, ctx1, gradient, buf); err != nil {
		return 0, err
	}
	return residual, nil
}

func (t *Table) update(index int, vec, context []float64, gradient float64, buf []float64) error {
	for i, c := range context {
		buf[i] = c * gradient
	}
	if err := t.weightOpt.Step(index, buf, buf); err != nil {
		return fmt.Errorf("failed to compute vector update: %w", err)
	}
	for i, s := range buf {
		vec[i] -= s
	}
	step, err := t.biasOpt.StepScalar(index, gradient)
	if err != nil {
		return fmt.Errorf("failed to compute bias update: %w", err)
	}
	t.bias[index] -= step
	return nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
