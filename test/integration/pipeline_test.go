// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/glove/internal/config"
	"github.com/hyperjump/glove/internal/corpus"
	"github.com/hyperjump/glove/internal/glove"
	"github.com/hyperjump/glove/internal/keyword"
	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/internal/server"
	"github.com/hyperjump/glove/internal/storage"
	"github.com/hyperjump/glove/internal/trainer"
)

const corpusText = `the cat sat on the mat
the dog sat on the rug
a cat and a dog played
the bird sang on the branch
`

func TestIntegration_Pipeline(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DatabasePath:  filepath.Join(dir, "db.sqlite"),
			ModelPath:     filepath.Join(dir, "models", "vectors.txt"),
			IndexPath:     filepath.Join(dir, "indices", "vectors.idx"),
			TermIndexPath: filepath.Join(dir, "indices", "terms"),
		},
	}
	config.ApplyDefaults(cfg)
	cfg.Model.VectorLength = 8

	corpusDir := filepath.Join(dir, "corpus")
	if err := os.MkdirAll(corpusDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "a.txt"), []byte(strings.Repeat(corpusText, 5)), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "skip.bin"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	builder := corpus.NewBuilder(3, true)
	n, err := builder.AddDirectory(ctx, corpusDir, []string{".txt"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("files read = %d, want 1", n)
	}
	words := builder.Vocabulary(1)
	samples := builder.Cooccurrences(words)
	if words.IndexOf("cat") < 0 || len(samples) == 0 {
		t.Fatalf("vocabulary %d words, %d samples", words.NumWords(), len(samples))
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.SaveVocabulary(ctx, words.Words()); err != nil {
		t.Fatal(err)
	}
	if err := store.BatchAddCooccurrences(ctx, samples); err != nil {
		t.Fatal(err)
	}

	table, err := glove.New(words, glove.Config{
		VectorLength: cfg.Model.VectorLength,
		LearningRate: cfg.Model.LearningRate,
		XMax:         cfg.Model.XMax,
		MaxCount:     cfg.Model.MaxCount,
		UseAdaGrad:   true,
		Seed:         cfg.Model.Seed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Initialize(false); err != nil {
		t.Fatal(err)
	}
	tr := trainer.New(table, store, trainer.Config{
		Epochs: 10, Workers: 2, BatchSize: 16, Shuffle: true, Seed: 1, ModelPath: cfg.Storage.ModelPath,
	})
	run, err := tr.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if run.Epochs != 10 || run.Samples != int64(len(samples)) || math.IsNaN(run.FinalLoss) {
		t.Errorf("run: %+v", run)
	}
	stored, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Finished() || stored.ModelPath != cfg.Storage.ModelPath {
		t.Errorf("stored run: %+v", stored)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.ModelPath), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(cfg.Storage.ModelPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Save(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	model, err := server.LoadModel(ctx, cfg.Storage.ModelPath, nil, glove.DefaultConfig(8), cfg.Storage.IndexPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if model.Vocab.NumWords() != words.NumWords() || model.Index.Size() != words.NumWords() {
		t.Fatalf("loaded %d words, index %d; want %d", model.Vocab.NumWords(), model.Index.Size(), words.NumWords())
	}

	terms, err := keyword.NewTermIndex(cfg.Storage.TermIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer terms.Close()
	if err := terms.IndexWords(ctx, words.Words()); err != nil {
		t.Fatal(err)
	}

	srv := server.NewServer(model, &cfg.Server, nil, server.WithTerms(terms), server.WithStorage(store))
	r := httptest.NewRequest(http.MethodGet, "/api/v1/similar/cat?k=3", nil)
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("similar: got %d, body: %s", w.Code, w.Body.String())
	}
	var resp models.SimilarResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("expected 3 neighbours, got %+v", resp.Results)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/similar/dgo", nil)
	w = httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, r)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"dog"`) {
		t.Errorf("misspelled word: got %d, body: %s", w.Code, w.Body.String())
	}
}
