// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/glove/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS vocabulary (
		idx INTEGER PRIMARY KEY,
		word TEXT NOT NULL UNIQUE,
		count REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS cooccurrences (
		word1 INTEGER NOT NULL,
		word2 INTEGER NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (word1, word2)
	);

	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		epochs INTEGER NOT NULL,
		samples INTEGER NOT NULL DEFAULT 0,
		final_loss REAL NOT NULL DEFAULT 0,
		model_path TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_training_runs_started_at ON training_runs(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveVocabulary replaces the stored vocabulary with words.
func (s *SQLiteStorage) SaveVocabulary(ctx context.Context, words []models.VocabWord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary`); err != nil {
		return fmt.Errorf("failed to clear vocabulary: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vocabulary (idx, word, count) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, w.Index, w.Word, w.Count); err != nil {
			return fmt.Errorf("failed to insert word %q: %w", w.Word, err)
		}
	}
	return tx.Commit()
}

// LoadVocabulary returns the stored vocabulary ordered by index.
func (s *SQLiteStorage) LoadVocabulary(ctx context.Context) ([]models.VocabWord, error) {
	var words []models.VocabWord
	if err := s.db.SelectContext(ctx, &words, `SELECT idx, word, count FROM vocabulary ORDER BY idx`); err != nil {
		return nil, err
	}
	return words, nil
}

// BatchAddCooccurrences adds samples in a transaction. Scores of pairs already stored are summed.
func (s *SQLiteStorage) BatchAddCooccurrences(ctx context.Context, samples []models.Cooccurrence) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cooccurrences (word1, word2, score) VALUES (?, ?, ?)
		 ON CONFLICT(word1, word2) DO UPDATE SET score = score + excluded.score`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range samples {
		if _, err := stmt.ExecContext(ctx, c.Word1, c.Word2, c.Score); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListCooccurrences returns samples ordered by (word1, word2) with offset and limit.
func (s *SQLiteStorage) ListCooccurrences(ctx context.Context, offset, limit int) ([]models.Cooccurrence, error) {
	samples := make([]models.Cooccurrence, 0, limit)
	err := s.db.SelectContext(ctx, &samples,
		`SELECT word1, word2, score FROM cooccurrences
		 ORDER BY word1, word2 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// ClearCooccurrences removes all samples.
func (s *SQLiteStorage) ClearCooccurrences(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cooccurrences`)
	return err
}

// CreateRun inserts a training run. StartedAt is set when zero.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *models.TrainingRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_runs (id, epochs, samples, final_loss, model_path, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Epochs, run.Samples, run.FinalLoss, run.ModelPath, run.StartedAt,
	)
	return err
}

// FinishRun stores the run's results and marks it finished.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *models.TrainingRun) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE training_runs SET epochs = ?, samples = ?, final_loss = ?, model_path = ?, finished_at = ?
		 WHERE id = ?`,
		run.Epochs, run.Samples, run.FinalLoss, run.ModelPath, now, run.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("training run not found: %s", run.ID)
	}
	run.FinishedAt = &now
	return nil
}

const runColumns = `id, epochs, samples, final_loss, COALESCE(model_path, '') AS model_path, started_at, finished_at`

// GetRun returns a training run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.TrainingRun, error) {
	var run models.TrainingRun
	err := s.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM training_runs WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("training run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent training runs first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*models.TrainingRun, error) {
	var runs []*models.TrainingRun
	err := s.db.SelectContext(ctx, &runs,
		`SELECT `+runColumns+` FROM training_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// CountVocabulary returns the number of stored words.
func (s *SQLiteStorage) CountVocabulary(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM vocabulary`)
	return count, err
}

// CountCooccurrences returns the number of stored samples.
func (s *SQLiteStorage) CountCooccurrences(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM cooccurrences`)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
