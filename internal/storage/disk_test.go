package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "vectors.txt")
	if err := os.WriteFile(model, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	terms := filepath.Join(dir, "terms")
	if err := os.MkdirAll(filepath.Join(terms, "store"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(terms, "index_meta.json"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(terms, "store", "root.bolt"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{model}, 5},
		{"nested directory", []string{terms}, 3},
		{"file and directory", []string{model, terms}, 8},
		{"missing path skipped", []string{model, filepath.Join(dir, "nonexistent"), terms}, 8},
		{"empty and memory skipped", []string{"", ":memory:", model}, 5},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}
