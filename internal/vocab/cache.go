// Package vocab provides an in-memory vocabulary that assigns stable indices to words.
package vocab

import (
	"sort"
	"sync"

	"github.com/hyperjump/glove/internal/models"
)

// Cache is an in-memory vocabulary. Indices are assigned in insertion order and only
// change through Prune.
type Cache struct {
	mu     sync.RWMutex
	words  []models.VocabWord
	byWord map[string]int
	total  float64
}

// NewCache returns an empty vocabulary.
func NewCache() *Cache {
	return &Cache{byWord: make(map[string]int)}
}

// FromWords builds a vocabulary from stored entries. Entries are placed at their Index;
// gaps and duplicates are rejected by returning false.
func FromWords(words []models.VocabWord) (*Cache, bool) {
	c := &Cache{
		words:  make([]models.VocabWord, len(words)),
		byWord: make(map[string]int, len(words)),
	}
	for _, w := range words {
		if w.Index < 0 || w.Index >= len(words) || c.words[w.Index].Word != "" {
			return nil, false
		}
		if _, dup := c.byWord[w.Word]; dup || w.Word == "" {
			return nil, false
		}
		c.words[w.Index] = w
		c.byWord[w.Word] = w.Index
		c.total += w.Count
	}
	return c, true
}

// Add increments word's count by count, adding the word at the next index if new.
func (c *Cache) Add(word string, count float64) models.VocabWord {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += count
	if i, ok := c.byWord[word]; ok {
		c.words[i].Count += count
		return c.words[i]
	}
	w := models.VocabWord{Word: word, Index: len(c.words), Count: count}
	c.words = append(c.words, w)
	c.byWord[word] = w.Index
	return w
}

// IndexOf returns the word's index or -1.
func (c *Cache) IndexOf(word string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.byWord[word]; ok {
		return i
	}
	return -1
}

// NumWords returns the number of distinct words.
func (c *Cache) NumWords() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.words)
}

// WordAt returns the word at index, or "".
func (c *Cache) WordAt(index int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.words) {
		return ""
	}
	return c.words[index].Word
}

// Word returns the entry for word.
func (c *Cache) Word(word string) (models.VocabWord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byWord[word]
	if !ok {
		return models.VocabWord{}, false
	}
	return c.words[i], true
}

// WordByIndex returns the entry at index.
func (c *Cache) WordByIndex(index int) (models.VocabWord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.words) {
		return models.VocabWord{}, false
	}
	return c.words[index], true
}

// Words returns a copy of all entries in index order.
func (c *Cache) Words() []models.VocabWord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.VocabWord, len(c.words))
	copy(out, c.words)
	return out
}

// TotalCount returns the sum of all word counts.
func (c *Cache) TotalCount() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Prune drops words with a count below minCount and reindexes the rest by descending
// count, ties broken alphabetically. It returns the old-to-new index mapping; dropped
// words map to -1.
func (c *Cache) Prune(minCount float64) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	remap := make([]int, len(c.words))
	kept := make([]models.VocabWord, 0, len(c.words))
	for i, w := range c.words {
		remap[i] = -1
		if w.Count >= minCount {
			kept = append(kept, w)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Count != kept[j].Count {
			return kept[i].Count > kept[j].Count
		}
		return kept[i].Word < kept[j].Word
	})
	c.byWord = make(map[string]int, len(kept))
	c.total = 0
	for i := range kept {
		remap[kept[i].Index] = i
		kept[i].Index = i
		c.byWord[kept[i].Word] = i
		c.total += kept[i].Count
	}
	c.words = kept
	return remap
}
