// Package dataset streams co-occurrence samples in fixed-size batches.
package dataset

import (
	"context"
	"errors"

	"github.com/hyperjump/glove/internal/models"
)

// ErrBadBatchSize is returned when a batch size is not positive.
var ErrBadBatchSize = errors.New("batch size must be positive")

// Batch is one page of samples. Each sample has two input columns (the word indices)
// and one outcome (the score).
type Batch struct {
	Samples []models.Cooccurrence
}

// Len returns the number of samples in the batch.
func (b Batch) Len() int { return len(b.Samples) }

// Fetcher loads batches from a backing store and tracks how far it has read.
type Fetcher interface {
	Fetch(ctx context.Context, n int) error
	Next() Batch
	HasMore() bool
	TotalExamples() int
	InputColumns() int
	TotalOutcomes() int
	Reset()
	Cursor() int
}

// PreProcessor transforms every batch before an Iterator returns it.
type PreProcessor interface {
	PreProcess(b *Batch)
}

// PreProcessorFunc adapts a function to PreProcessor.
type PreProcessorFunc func(b *Batch)

// PreProcess calls f(b).
func (f PreProcessorFunc) PreProcess(b *Batch) { f(b) }

// Iterator yields batches from a Fetcher until the fetcher is exhausted or numExamples
// samples have been produced.
type Iterator struct {
	batch       int
	numExamples int
	fetcher     Fetcher
	pre         PreProcessor
}

// New returns an iterator producing batches of size batch. A negative numExamples means
// every example the fetcher holds.
func New(batch, numExamples int, fetcher Fetcher) (*Iterator, error) {
	if batch <= 0 {
		return nil, ErrBadBatchSize
	}
	if numExamples < 0 {
		numExamples = fetcher.TotalExamples()
	}
	return &Iterator{batch: batch, numExamples: numExamples, fetcher: fetcher}, nil
}

// SetPreProcessor installs p; nil removes the hook.
func (it *Iterator) SetPreProcessor(p PreProcessor) { it.pre = p }

// HasNext reports whether another batch is available.
func (it *Iterator) HasNext() bool {
	return it.fetcher.HasMore() && it.fetcher.Cursor() < it.numExamples
}

// Next returns the next batch of the configured size.
func (it *Iterator) Next(ctx context.Context) (Batch, error) {
	return it.NextN(ctx, it.batch)
}

// NextN returns the next batch of at most n samples, never reading past numExamples.
func (it *Iterator) NextN(ctx context.Context, n int) (Batch, error) {
	if n <= 0 {
		return Batch{}, ErrBadBatchSize
	}
	if remaining := it.numExamples - it.fetcher.Cursor(); n > remaining {
		n = remaining
	}
	if n <= 0 {
		return Batch{}, nil
	}
	if err := it.fetcher.Fetch(ctx, n); err != nil {
		return Batch{}, err
	}
	b := it.fetcher.Next()
	if it.pre != nil {
		it.pre.PreProcess(&b)
	}
	return b, nil
}

// Reset rewinds the fetcher.
func (it *Iterator) Reset() { it.fetcher.Reset() }

// Cursor returns the number of samples read so far.
func (it *Iterator) Cursor() int { return it.fetcher.Cursor() }

// Batch returns the configured batch size.
func (it *Iterator) Batch() int { return it.batch }

// NumExamples returns the number of samples this iterator yields per pass.
func (it *Iterator) NumExamples() int { return it.numExamples }

// TotalExamples returns the number of samples the fetcher holds.
func (it *Iterator) TotalExamples() int { return it.fetcher.TotalExamples() }

// InputColumns returns the number of input columns per sample.
func (it *Iterator) InputColumns() int { return it.fetcher.InputColumns() }

// TotalOutcomes returns the number of outcome columns per sample.
func (it *Iterator) TotalOutcomes() int { return it.fetcher.TotalOutcomes() }
