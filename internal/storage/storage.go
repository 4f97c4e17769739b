// Package storage defines the persistence interface for vocabularies, co-occurrence samples
// and training runs.
package storage

import (
	"context"

	"github.com/hyperjump/glove/internal/models"
)

// Storage defines vocabulary, sample and training run persistence operations.
type Storage interface {
	// Vocabulary operations
	SaveVocabulary(ctx context.Context, words []models.VocabWord) error
	LoadVocabulary(ctx context.Context) ([]models.VocabWord, error)

	// Sample operations
	BatchAddCooccurrences(ctx context.Context, samples []models.Cooccurrence) error
	ListCooccurrences(ctx context.Context, offset, limit int) ([]models.Cooccurrence, error)
	ClearCooccurrences(ctx context.Context) error

	// Training runs
	CreateRun(ctx context.Context, run *models.TrainingRun) error
	FinishRun(ctx context.Context, run *models.TrainingRun) error
	GetRun(ctx context.Context, id string) (*models.TrainingRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.TrainingRun, error)

	// Stats
	CountVocabulary(ctx context.Context) (int64, error)
	CountCooccurrences(ctx context.Context) (int64, error)

	Close() error
}
