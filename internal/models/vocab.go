// Package models defines core data structures for vocabulary words, co-occurrence samples and training runs.
package models

import (
	"fmt"
	"time"
)

// VocabWord is a vocabulary entry. Index is assigned once by the vocabulary and is
// unique, non-negative and smaller than the vocabulary size.
type VocabWord struct {
	Word  string  `json:"word" db:"word"`
	Index int     `json:"index" db:"idx"`
	Count float64 `json:"count" db:"count"`
}

// String returns the word and its index.
func (w VocabWord) String() string {
	return fmt.Sprintf("%s#%d", w.Word, w.Index)
}

// Cooccurrence is one observed co-occurrence sample between two vocabulary indices.
type Cooccurrence struct {
	Word1 int     `json:"word1" db:"word1"`
	Word2 int     `json:"word2" db:"word2"`
	Score float64 `json:"score" db:"score"`
}

// Validate reports whether both indices address a vocabulary of size n.
func (c Cooccurrence) Validate(n int) error {
	if c.Word1 < 0 || c.Word1 >= n {
		return fmt.Errorf("word1 index %d out of range [0, %d)", c.Word1, n)
	}
	if c.Word2 < 0 || c.Word2 >= n {
		return fmt.Errorf("word2 index %d out of range [0, %d)", c.Word2, n)
	}
	return nil
}

// TrainingRun records one invocation of the trainer.
type TrainingRun struct {
	ID         string     `json:"id" db:"id"`
	Epochs     int        `json:"epochs" db:"epochs"`
	Samples    int64      `json:"samples" db:"samples"`
	FinalLoss  float64    `json:"final_loss" db:"final_loss"`
	ModelPath  string     `json:"model_path,omitempty" db:"model_path"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// Finished reports whether the run has completed.
func (r *TrainingRun) Finished() bool {
	return r.FinishedAt != nil
}
