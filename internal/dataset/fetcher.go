package dataset

import (
	"context"
	"fmt"

	"github.com/hyperjump/glove/internal/models"
)

// Source pages through stored co-occurrence samples.
type Source interface {
	ListCooccurrences(ctx context.Context, offset, limit int) ([]models.Cooccurrence, error)
	CountCooccurrences(ctx context.Context) (int64, error)
}

// CooccurrenceFetcher reads samples from a Source page by page.
type CooccurrenceFetcher struct {
	src     Source
	total   int
	cursor  int
	current Batch
}

// NewCooccurrenceFetcher counts the samples in src and returns a fetcher positioned at the start.
func NewCooccurrenceFetcher(ctx context.Context, src Source) (*CooccurrenceFetcher, error) {
	total, err := src.CountCooccurrences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}
	return &CooccurrenceFetcher{src: src, total: int(total)}, nil
}

// Fetch loads the next n samples into the current batch.
func (f *CooccurrenceFetcher) Fetch(ctx context.Context, n int) error {
	samples, err := f.src.ListCooccurrences(ctx, f.cursor, n)
	if err != nil {
		return fmt.Errorf("failed to fetch samples at %d: %w", f.cursor, err)
	}
	f.cursor += len(samples)
	if len(samples) < n {
		// the source shrank underneath us
		f.total = f.cursor
	}
	f.current = Batch{Samples: samples}
	return nil
}

// Next returns the batch loaded by the last Fetch.
func (f *CooccurrenceFetcher) Next() Batch { return f.current }

// HasMore reports whether unread samples remain.
func (f *CooccurrenceFetcher) HasMore() bool { return f.cursor < f.total }

// TotalExamples returns the number of samples in the source.
func (f *CooccurrenceFetcher) TotalExamples() int { return f.total }

// InputColumns is 2: the two word indices.
func (f *CooccurrenceFetcher) InputColumns() int { return 2 }

// TotalOutcomes is 1: the co-occurrence score.
func (f *CooccurrenceFetcher) TotalOutcomes() int { return 1 }

// Reset rewinds to the first sample.
func (f *CooccurrenceFetcher) Reset() {
	f.cursor = 0
	f.current = Batch{}
}

// Cursor returns the number of samples read.
func (f *CooccurrenceFetcher) Cursor() int { return f.cursor }

// SliceSource serves samples from memory.
type SliceSource []models.Cooccurrence

// ListCooccurrences returns samples[offset:offset+limit], clipped.
func (s SliceSource) ListCooccurrences(_ context.Context, offset, limit int) ([]models.Cooccurrence, error) {
	if offset >= len(s) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	out := make([]models.Cooccurrence, end-offset)
	copy(out, s[offset:end])
	return out, nil
}

// CountCooccurrences returns len(s).
func (s SliceSource) CountCooccurrences(context.Context) (int64, error) {
	return int64(len(s)), nil
}
