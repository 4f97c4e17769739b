package glove

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxLineBytes = 16 * 1024 * 1024

// Load reads "word v1 v2 … vn" lines and builds a table indexed by vocab.
//
// The vector length is taken from the first line carrying at least one value; later
// lines with a different count are skipped. Blank lines are skipped and a repeated word
// keeps its last vector. The matrix gets one row per distinct parsed word; each word is
// written at vocab.IndexOf(word) and words that are absent or index past the last row
// are dropped. Biases and optimizer state are then allocated fresh. cfg.VectorLength is
// ignored.
func Load(r io.Reader, vocab Vocabulary, cfg Config) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	vectors := make(map[string][]float64)
	vectorLength := 0
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if vectorLength == 0 {
			vectorLength = len(fields) - 1
		}
		if len(fields)-1 != vectorLength {
			continue
		}
		vec, err := parseValues(fields[1:], lineNo)
		if err != nil {
			return nil, err
		}
		vectors[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, ErrNoData
	}

	cfg.VectorLength = vectorLength
	t, err := New(vocab, cfg)
	if err != nil {
		return nil, err
	}
	t.syn0 = newMatrix(len(vectors), vectorLength)
	for word, vec := range vectors {
		idx := vocab.IndexOf(word)
		if idx < 0 || idx >= len(t.syn0) {
			continue
		}
		copy(t.syn0[idx], vec)
	}
	if err := t.Initialize(false); err != nil {
		return nil, err
	}
	return t, nil
}

func parseValues(tokens []string, lineNo int) ([]float64, error) {
	vec := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Token: tok, Err: err}
		}
		vec[i] = v
	}
	return vec, nil
}

// Save writes one "word v1 … vn" line per row. Vocabulary rows are written under
// their word, the unknown-word row under UnknownWord; rows with no word are skipped.
func (t *Table) Save(w io.Writer) error {
	if t.syn0 == nil {
		return ErrNotInitialized
	}
	bw := bufio.NewWriter(w)
	unknown := t.UnknownIndex()
	for i, row := range t.syn0 {
		word := UnknownWord
		if i != unknown {
			word = t.vocab.WordAt(i)
		}
		if word == "" {
			continue
		}
		if _, err := bw.WriteString(word); err != nil {
			return fmt.Errorf("failed to write vectors: %w", err)
		}
		for _, v := range row {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write vectors: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write vectors: %w", err)
	}
	return nil
}
