package server

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/glove/internal/glove"
	"github.com/hyperjump/glove/internal/vector"
	"github.com/hyperjump/glove/internal/vocab"
	"go.uber.org/zap"
)

// Model is a trained table together with its vocabulary and similarity index.
type Model struct {
	Table *glove.Table
	Vocab *vocab.Cache
	Index vector.Index
}

// Loader produces a fresh model, typically by re-reading the model file.
type Loader func(ctx context.Context) (*Model, error)

// LoadModel reads the text vectors at path. When words is nil the vocabulary is taken
// from the file itself. When indexPath is set, a saved similarity index is reused if it
// is at least as new as the model file; otherwise the index is rebuilt and saved there.
func LoadModel(ctx context.Context, path string, words *vocab.Cache, cfg glove.Config, indexPath string, logger *zap.Logger) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	if words == nil {
		words, err = vocab.ScanWords(bytes.NewReader(data), glove.UnknownWord)
		if err != nil {
			return nil, err
		}
	}
	table, err := glove.Load(bytes.NewReader(data), words, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	idx, err := OpenIndex(ctx, indexPath, path, table, words, logger)
	if err != nil {
		return nil, err
	}
	return &Model{Table: table, Vocab: words, Index: idx}, nil
}

// OpenIndex returns the similarity index for table. A saved index at indexPath is used
// when it is not older than modelPath and matches the table's dimension; otherwise the
// index is built from the table and written back to indexPath.
func OpenIndex(ctx context.Context, indexPath, modelPath string, table *glove.Table, words *vocab.Cache, logger *zap.Logger) (*vector.MemoryIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if indexPath != "" && indexFresh(indexPath, modelPath) {
		idx, err := vector.NewMemoryIndex(table.VectorLength())
		if err != nil {
			return nil, err
		}
		if err := idx.Load(indexPath); err != nil {
			logger.Warn("saved index unusable, rebuilding", zap.String("path", indexPath), zap.Error(err))
		} else if idx.Size() > 0 {
			logger.Debug("loaded saved index", zap.String("path", indexPath), zap.Int("size", idx.Size()))
			return idx, nil
		}
	}
	idx, err := vector.BuildFromTable(ctx, table, words)
	if err != nil {
		return nil, err
	}
	if indexPath != "" {
		if err := idx.Save(indexPath); err != nil {
			logger.Warn("failed to save index", zap.String("path", indexPath), zap.Error(err))
		}
	}
	return idx, nil
}

func indexFresh(indexPath, modelPath string) bool {
	ii, err := os.Stat(indexPath)
	if err != nil {
		return false
	}
	if modelPath == "" {
		return true
	}
	mi, err := os.Stat(modelPath)
	if err != nil {
		return true
	}
	return !ii.ModTime().Before(mi.ModTime())
}
