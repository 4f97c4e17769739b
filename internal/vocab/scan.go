package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ScanWords builds a vocabulary from the first token of every vector line of a
// "word v1 … vn" file, in file order. A line counts when it has at least one value and
// as many values as the first such line, matching what glove.Load keeps. Tokens equal
// to skip are ignored; a repeated word keeps its first index and has its count
// incremented.
func ScanWords(r io.Reader, skip string) (*Cache, error) {
	c := NewCache()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	width := 0
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if width == 0 {
			width = len(fields) - 1
		}
		if len(fields)-1 != width {
			continue
		}
		if fields[0] == skip {
			continue
		}
		c.Add(fields[0], 1)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan words: %w", err)
	}
	return c, nil
}
