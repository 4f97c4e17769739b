package corpus

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/glove/internal/models"
)

func scoreOf(pairs []models.Cooccurrence, w1, w2 int) float64 {
	for _, p := range pairs {
		if p.Word1 == w1 && p.Word2 == w2 {
			return p.Score
		}
	}
	return 0
}

func TestBuilder_windowWeighting(t *testing.T) {
	b := NewBuilder(2, false)
	b.AddText("a b c")

	v := b.Vocabulary(1)
	if v.NumWords() != 3 {
		t.Fatalf("NumWords = %d, want 3", v.NumWords())
	}
	a, bb, c := v.IndexOf("a"), v.IndexOf("b"), v.IndexOf("c")
	pairs := b.Cooccurrences(v)

	if got := scoreOf(pairs, bb, a); got != 1 {
		t.Errorf("(b,a) = %v, want 1", got)
	}
	if got := scoreOf(pairs, c, a); got != 0.5 {
		t.Errorf("(c,a) = %v, want 0.5", got)
	}
	if got := scoreOf(pairs, a, bb); got != 0 {
		t.Errorf("(a,b) = %v, want 0 without symmetric counting", got)
	}
	if b.Tokens() != 3 {
		t.Errorf("Tokens = %d, want 3", b.Tokens())
	}
}

func TestBuilder_symmetric(t *testing.T) {
	b := NewBuilder(3, true)
	b.AddText("red green blue green")
	v := b.Vocabulary(1)
	pairs := b.Cooccurrences(v)
	for _, p := range pairs {
		if rev := scoreOf(pairs, p.Word2, p.Word1); math.Abs(rev-p.Score) > 1e-12 {
			t.Errorf("pair (%d,%d) = %v, reverse = %v", p.Word1, p.Word2, p.Score, rev)
		}
	}
	// green appears twice, so it gets index 0.
	if v.IndexOf("green") != 0 {
		t.Errorf("green index = %d, want 0", v.IndexOf("green"))
	}
}

func TestBuilder_windowDoesNotCrossLines(t *testing.T) {
	b := NewBuilder(5, true)
	b.AddText("alpha\nbeta")
	v := b.Vocabulary(1)
	if pairs := b.Cooccurrences(v); len(pairs) != 0 {
		t.Errorf("expected no pairs across lines, got %v", pairs)
	}
}

func TestBuilder_minCountDropsPairs(t *testing.T) {
	b := NewBuilder(1, true)
	b.AddText("x y x y z")
	v := b.Vocabulary(2)
	if v.IndexOf("z") != -1 {
		t.Error("z should be pruned")
	}
	for _, p := range b.Cooccurrences(v) {
		if p.Word1 >= v.NumWords() || p.Word2 >= v.NumWords() {
			t.Errorf("pair %+v outside vocabulary", p)
		}
	}
}

func TestBuilder_cooccurrencesSorted(t *testing.T) {
	b := NewBuilder(2, true)
	b.AddText("one two three four five")
	pairs := b.Cooccurrences(b.Vocabulary(1))
	for i := 1; i < len(pairs); i++ {
		p, q := pairs[i-1], pairs[i]
		if p.Word1 > q.Word1 || (p.Word1 == q.Word1 && p.Word2 >= q.Word2) {
			t.Fatalf("pairs not sorted at %d: %+v then %+v", i, p, q)
		}
	}
}

func TestBuilder_AddDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("cats chase mice"), 0600); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.md"), []byte("dogs chase cats"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("ignored words"), 0600); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(2, true)
	n, err := b.AddDirectory(context.Background(), dir, []string{".txt", "md"})
	if err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}
	if n != 2 {
		t.Errorf("files added = %d, want 2", n)
	}
	v := b.Vocabulary(1)
	if v.IndexOf("ignored") != -1 {
		t.Error("file with disallowed extension was added")
	}
	w, ok := v.Word("chase")
	if !ok || w.Count != 2 {
		t.Errorf("chase = %+v, %v; want count 2", w, ok)
	}
}

func TestBuilder_AddDirectory_notDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBuilder(2, true).AddDirectory(context.Background(), path, nil); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestBuilder_AddDirectory_cancelled(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x y"), 0600); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBuilder(2, true).AddDirectory(ctx, dir, nil); err == nil {
		t.Error("expected context error")
	}
}
