// Package keyword indexes vocabulary words in Bleve for exact and fuzzy term lookup.
package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/hyperjump/glove/internal/models"
)

const (
	// MaxFuzziness is the largest edit distance Bleve's fuzzy query accepts.
	MaxFuzziness = 2

	indexBatchSize = 1000
)

// Suggestion is a vocabulary word close to a looked-up term.
type Suggestion struct {
	Word     string  `json:"word"`
	Distance int     `json:"distance"`
	Count    float64 `json:"count"`
}

type termDoc struct {
	Word  string  `json:"word"`
	Count float64 `json:"count"`
}

// TermIndex is a Bleve index with one document per vocabulary word, keyed by the word.
type TermIndex struct {
	index bleve.Index
}

// NewTermIndex opens the index at path, creating it if missing. An empty path gives an
// in-memory index.
func NewTermIndex(path string) (*TermIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	wordField := bleve.NewTextFieldMapping()
	// whole words only, so fuzzy queries compare complete vocabulary entries
	wordField.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("word", wordField)
	countField := bleve.NewNumericFieldMapping()
	countField.Index = false
	docMapping.AddFieldMappingsAt("count", countField)
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory term index: %w", err)
		}
		return &TermIndex{index: index}, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open term index: %w", openErr)
		}
		return &TermIndex{index: index}, nil
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create term index: %w", err)
	}
	return &TermIndex{index: index}, nil
}

// IndexWords adds or replaces the given words in batches.
func (t *TermIndex) IndexWords(ctx context.Context, words []models.VocabWord) error {
	batch := t.index.NewBatch()
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(w.Word, termDoc{Word: w.Word, Count: w.Count}); err != nil {
			return fmt.Errorf("failed to batch %q: %w", w.Word, err)
		}
		if batch.Size() >= indexBatchSize {
			if err := t.index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index words: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := t.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index words: %w", err)
		}
	}
	return nil
}

// Suggest returns up to limit indexed words within MaxFuzziness edits of term, closest
// first, then most frequent, then alphabetical.
func (t *TermIndex) Suggest(term string, limit int) ([]Suggestion, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || limit <= 0 {
		return nil, nil
	}
	q := bleve.NewFuzzyQuery(term)
	q.SetField("word")
	q.SetFuzziness(MaxFuzziness)
	req := bleve.NewSearchRequest(q)
	req.Size = max(limit*4, 50)
	req.Fields = []string{"count"}
	results, err := t.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("term search failed: %w", err)
	}

	out := make([]Suggestion, 0, len(results.Hits))
	for _, hit := range results.Hits {
		s := Suggestion{Word: hit.ID, Distance: LevenshteinDistance(term, hit.ID)}
		if c, ok := hit.Fields["count"].(float64); ok {
			s.Count = c
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Contains reports whether word is indexed.
func (t *TermIndex) Contains(word string) (bool, error) {
	q := bleve.NewTermQuery(word)
	q.SetField("word")
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	results, err := t.index.Search(req)
	if err != nil {
		return false, fmt.Errorf("term lookup failed: %w", err)
	}
	return results.Total > 0, nil
}

// DocCount returns the number of indexed words.
func (t *TermIndex) DocCount() (uint64, error) {
	return t.index.DocCount()
}

// Close closes the Bleve index.
func (t *TermIndex) Close() error {
	return t.index.Close()
}
