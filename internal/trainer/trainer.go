// Package trainer drives epochs of weighted least-squares training over stored samples.
package trainer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/glove/internal/dataset"
	"github.com/hyperjump/glove/internal/glove"
	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/pkg/utils"
	"go.uber.org/zap"
)

// cancelCheckEvery is how many samples a worker trains between context checks.
const cancelCheckEvery = 1024

// Store supplies samples and records training runs.
type Store interface {
	dataset.Source
	CreateRun(ctx context.Context, run *models.TrainingRun) error
	FinishRun(ctx context.Context, run *models.TrainingRun) error
}

// Config controls a training run.
type Config struct {
	Epochs    int
	Workers   int
	BatchSize int
	Shuffle   bool
	Seed      int64
	ModelPath string
}

// Progress is reported after every epoch.
type Progress struct {
	Epoch   int
	Epochs  int
	Loss    float64
	Samples int
	Elapsed time.Duration
}

// ProgressFunc receives per-epoch progress.
type ProgressFunc func(Progress)

// Trainer trains a table on the samples held by a Store.
type Trainer struct {
	table    *glove.Table
	store    Store
	cfg      Config
	logger   *zap.Logger
	progress ProgressFunc
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets a logger for epoch and run events.
func WithLogger(l *zap.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithProgress sets a callback invoked after each epoch.
func WithProgress(fn ProgressFunc) Option {
	return func(t *Trainer) { t.progress = fn }
}

// New returns a trainer. The table must be initialized.
func New(table *glove.Table, store Store, cfg Config, opts ...Option) *Trainer {
	if cfg.Epochs < 1 {
		cfg.Epochs = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1024
	}
	t := &Trainer{table: table, store: store, cfg: cfg}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = utils.OrNop(t.logger)
	return t
}

// Run loads every sample, trains for the configured number of epochs and records the run.
// On cancellation the run is recorded with the epochs completed so far and ctx.Err() is
// returned. A failure to load samples also closes the run record, with zero epochs.
func (t *Trainer) Run(ctx context.Context) (*models.TrainingRun, error) {
	run := &models.TrainingRun{ID: uuid.New().String(), ModelPath: t.cfg.ModelPath}
	if err := t.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create training run: %w", err)
	}
	t.logger.Info("training started", zap.String("run_id", run.ID), zap.Int("epochs", t.cfg.Epochs), zap.Int("workers", t.cfg.Workers))

	samples, err := t.load(ctx)
	if err != nil {
		if ferr := t.store.FinishRun(context.WithoutCancel(ctx), run); ferr != nil {
			t.logger.Warn("failed to finish training run", zap.String("run_id", run.ID), zap.Error(ferr))
		}
		return run, err
	}
	p := newPlan(samples, t.table.Rows(), t.cfg.Workers)
	run.Samples = int64(p.size())
	t.logger.Debug("training plan",
		zap.Int("samples", p.size()),
		zap.Int("partitions", len(p.local)),
		zap.Int("cross_partition", len(p.cross)),
	)

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	start := time.Now()
	var runErr error
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if t.cfg.Shuffle {
			for _, l := range p.local {
				shuffle(rng, l)
			}
			shuffle(rng, p.cross)
		}
		loss, err := t.epoch(ctx, p)
		if err != nil {
			runErr = err
			break
		}
		run.Epochs = epoch
		run.FinalLoss = loss
		t.logger.Info("epoch finished", zap.Int("epoch", epoch), zap.Float64("loss", loss))
		if t.progress != nil {
			t.progress(Progress{
				Epoch:   epoch,
				Epochs:  t.cfg.Epochs,
				Loss:    loss,
				Samples: p.size(),
				Elapsed: time.Since(start),
			})
		}
	}

	if err := t.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		return nil, fmt.Errorf("failed to finish training run: %w", err)
	}
	if runErr != nil {
		t.logger.Warn("training stopped", zap.String("run_id", run.ID), zap.Int("epochs", run.Epochs), zap.Error(runErr))
		return run, runErr
	}
	t.logger.Info("training finished", zap.String("run_id", run.ID), zap.Float64("loss", run.FinalLoss), zap.Duration("elapsed", time.Since(start)))
	return run, nil
}

// load reads all samples through a dataset iterator, dropping those outside the table.
func (t *Trainer) load(ctx context.Context) ([]models.Cooccurrence, error) {
	fetcher, err := dataset.NewCooccurrenceFetcher(ctx, t.store)
	if err != nil {
		return nil, err
	}
	it, err := dataset.New(t.cfg.BatchSize, -1, fetcher)
	if err != nil {
		return nil, err
	}
	rows := t.table.Rows()
	dropped := 0
	it.SetPreProcessor(dataset.PreProcessorFunc(func(b *dataset.Batch) {
		kept := b.Samples[:0]
		for _, s := range b.Samples {
			if s.Validate(rows) != nil {
				dropped++
				continue
			}
			kept = append(kept, s)
		}
		b.Samples = kept
	}))

	samples := make([]models.Cooccurrence, 0, it.NumExamples())
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := it.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load samples: %w", err)
		}
		samples = append(samples, b.Samples...)
	}
	if dropped > 0 {
		t.logger.Warn("samples outside the table dropped", zap.Int("dropped", dropped), zap.Int("rows", rows))
	}
	return samples, nil
}

// epoch trains every partition concurrently, then the cross-partition samples, and
// returns the mean absolute residual.
func (t *Trainer) epoch(ctx context.Context, p *plan) (float64, error) {
	sums := make([]float64, len(p.local))
	errs := make([]error, len(p.local))
	var wg sync.WaitGroup
	for k := range p.local {
		if len(p.local[k]) == 0 {
			continue
		}
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			sums[k], errs[k] = t.trainSlice(ctx, p.local[k])
		}(k)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}

	cross, err := t.trainSlice(ctx, p.cross)
	if err != nil {
		return 0, err
	}
	total := cross
	for _, s := range sums {
		total += s
	}
	n := p.size()
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

func (t *Trainer) trainSlice(ctx context.Context, samples []models.Cooccurrence) (float64, error) {
	var sum float64
	for i, s := range samples {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		residual, err := t.table.TrainPair(
			models.VocabWord{Index: s.Word1},
			models.VocabWord{Index: s.Word2},
			s.Score,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to train pair (%d, %d): %w", s.Word1, s.Word2, err)
		}
		sum += math.Abs(residual)
	}
	return sum, nil
}

func shuffle(rng *rand.Rand, s []models.Cooccurrence) {
	rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
