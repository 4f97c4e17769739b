package glove

import (
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/glove/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vw(word string, index int) models.VocabWord {
	return models.VocabWord{Word: word, Index: index, Count: 1}
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func diff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func TestResidual_WeightedBranch(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.MaxCount = 0.5
	cfg.XMax = 0.75
	tbl, err := New(testVocab{"a"}, cfg)
	require.NoError(t, err)

	// score == MaxCount gives weight 1; score <= XMax selects the weighted branch
	const prediction = 0.3
	assert.InDelta(t, prediction-math.Log(0.5), tbl.Residual(prediction, 0.5), 1e-12)

	// below MaxCount the weight applies
	w := math.Pow(0.25/0.5, 0.75)
	assert.InDelta(t, w*(prediction-math.Log(0.25)), tbl.Residual(prediction, 0.25), 1e-12)

	// above XMax the raw prediction is used
	assert.Equal(t, prediction, tbl.Residual(prediction, 3))
}

func TestResidual_NonFinite(t *testing.T) {
	tbl, _ := New(testVocab{"a"}, DefaultConfig(2))
	for _, score := range []float64{0, -1, math.NaN()} {
		assert.Equal(t, ResidualEpsilon, tbl.Residual(0.1, score), "score %v", score)
	}
	assert.Equal(t, ResidualEpsilon, tbl.Residual(math.Inf(1), 5))
}

func TestTrainPair_WeightedReduction(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.MaxCount = 0.5
	tbl, err := New(testVocab{"a", "b"}, cfg)
	require.NoError(t, err)
	require.NoError(t, tbl.Initialize(true))
	require.NoError(t, tbl.SetVector(0, []float64{0.1, 0.2}))
	require.NoError(t, tbl.SetVector(1, []float64{0.3, -0.1}))
	require.NoError(t, tbl.SetBias(0, 0.05))

	prediction := 0.1*0.3 + 0.2*-0.1 + 0.05
	residual, err := tbl.TrainPair(vw("a", 0), vw("b", 1), 0.5)
	require.NoError(t, err)
	assert.InDelta(t, prediction-math.Log(0.5), residual, 1e-12)
}

func TestTrainPair_NonPositiveScore(t *testing.T) {
	tbl := newTestTable(t, testVocab{"a", "b"}, 4)
	before1, _ := tbl.Vector(0)
	before2, _ := tbl.Vector(1)

	for _, score := range []float64{0, -3} {
		residual, err := tbl.TrainPair(vw("a", 0), vw("b", 1), score)
		require.NoError(t, err)
		assert.Equal(t, ResidualEpsilon, residual)
	}

	after1, _ := tbl.Vector(0)
	after2, _ := tbl.Vector(1)
	for _, d := range [][]float64{diff(after1, before1), diff(after2, before2)} {
		for _, x := range d {
			assert.False(t, math.IsNaN(x) || math.IsInf(x, 0))
			// each AdaGrad step is at most the learning rate in magnitude
			assert.LessOrEqual(t, math.Abs(x), 2*DefaultLearningRate)
		}
	}
	for i := 0; i < 2; i++ {
		b, _ := tbl.Bias(i)
		assert.False(t, math.IsNaN(b))
	}
}

func TestTrainPair_InvalidIndexLeavesStateUntouched(t *testing.T) {
	tbl := newTestTable(t, testVocab{"a", "b"}, 3)
	before := takeSnapshot(t, tbl)

	_, err := tbl.TrainPair(vw("a", 0), vw("ghost", tbl.Rows()), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIndex))
	assert.Contains(t, err.Error(), "ghost")

	_, err = tbl.TrainPair(vw("ghost", tbl.Rows()), vw("a", 0), 2)
	assert.True(t, errors.Is(err, ErrInvalidIndex))

	_, err = tbl.TrainPair(vw("neg", -1), vw("a", 0), 2)
	assert.True(t, errors.Is(err, ErrInvalidIndex))

	assert.Equal(t, before, takeSnapshot(t, tbl))
}

func TestTrainPair_Symmetry(t *testing.T) {
	tbl := newTestTable(t, testVocab{"a", "b"}, 2)
	require.NoError(t, tbl.SetVector(0, []float64{0.2, -0.4}))
	require.NoError(t, tbl.SetVector(1, []float64{-0.4, 0.2}))

	residual, err := tbl.TrainPair(vw("a", 0), vw("b", 1), 5)
	require.NoError(t, err)
	assert.NotZero(t, residual)

	after1, _ := tbl.Vector(0)
	after2, _ := tbl.Vector(1)
	step1 := norm(diff(after1, []float64{0.2, -0.4}))
	step2 := norm(diff(after2, []float64{-0.4, 0.2}))
	assert.Greater(t, step1, 0.0)
	assert.InDelta(t, step1, step2, 1e-12)

	b1, _ := tbl.Bias(0)
	b2, _ := tbl.Bias(1)
	assert.Equal(t, b1, b2)
}

func TestTrainPair_CrossTermsUsePreUpdateVectors(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.UseAdaGrad = false
	cfg.LearningRate = 0.1
	tbl, err := New(testVocab{"a", "b"}, cfg)
	require.NoError(t, err)
	require.NoError(t, tbl.Initialize(true))
	require.NoError(t, tbl.SetVector(0, []float64{1, 0}))
	require.NoError(t, tbl.SetVector(1, []float64{0, 1}))

	// score above XMax: residual is the raw prediction, here 0 + biases 0
	require.NoError(t, tbl.SetBias(0, 0.5))
	residual, err := tbl.TrainPair(vw("a", 0), vw("b", 1), 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, residual, 1e-12)

	v1, _ := tbl.Vector(0)
	v2, _ := tbl.Vector(1)
	assert.InDeltaSlice(t, []float64{1, -0.05}, v1, 1e-12)
	assert.InDeltaSlice(t, []float64{-0.05, 1}, v2, 1e-12)
}

func TestTrainPair_ReducesLoss(t *testing.T) {
	cfg := DefaultConfig(8)
	// weight 1 and the log branch for every score up to 100
	cfg.XMax = 100
	cfg.MaxCount = 1
	tbl, err := New(testVocab{"a", "b"}, cfg)
	require.NoError(t, err)
	require.NoError(t, tbl.Initialize(true))

	first, err := tbl.TrainPair(vw("a", 0), vw("b", 1), 20)
	require.NoError(t, err)
	var last float64
	for i := 0; i < 200; i++ {
		last, err = tbl.TrainPair(vw("a", 0), vw("b", 1), 20)
		require.NoError(t, err)
	}
	assert.Less(t, math.Abs(last), math.Abs(first))
}

func TestTrainPair_SameWord(t *testing.T) {
	tbl := newTestTable(t, testVocab{"a"}, 3)
	_, err := tbl.TrainPair(vw("a", 0), vw("a", 0), 0.5)
	require.NoError(t, err)
	v, _ := tbl.Vector(0)
	for _, x := range v {
		assert.False(t, math.IsNaN(x))
	}
}

func TestCapabilities(t *testing.T) {
	tbl := newTestTable(t, testVocab{"a", "b"}, 2)
	assert.True(t, tbl.Supports(StrategyCooccurrence))
	assert.False(t, tbl.Supports(StrategyNegativeSampling))

	var next uint64 = 7
	err := tbl.TrainNegative(vw("a", 0), vw("b", 1), &next, 0.025)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Equal(t, "negative-sampling", StrategyNegativeSampling.String())
}

func TestTrainPair_Uninitialized(t *testing.T) {
	tbl, _ := New(testVocab{"a"}, DefaultConfig(2))
	_, err := tbl.TrainPair(vw("a", 0), vw("a", 0), 1)
	assert.True(t, errors.Is(err, ErrNotInitialized))
}
