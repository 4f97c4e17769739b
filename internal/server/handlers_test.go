package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/glove/internal/config"
	"github.com/hyperjump/glove/internal/glove"
	"github.com/hyperjump/glove/internal/keyword"
	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/internal/vector"
	"github.com/hyperjump/glove/internal/vocab"
	"go.uber.org/zap"
)

var testWords = []string{"cat", "dog", "fish", "bird"}

func newTestModel(t *testing.T, words []string) *Model {
	t.Helper()
	v := vocab.NewCache()
	for i, w := range words {
		v.Add(w, float64(len(words)-i))
	}
	table, err := glove.New(v, glove.DefaultConfig(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Initialize(false); err != nil {
		t.Fatal(err)
	}
	idx, err := vector.BuildFromTable(context.Background(), table, v)
	if err != nil {
		t.Fatal(err)
	}
	return &Model{Table: table, Vocab: v, Index: idx}
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return NewServer(newTestModel(t, testWords), &config.ServerConfig{Port: 8080}, zap.NewNop(), opts...)
}

func newTestTerms(t *testing.T) *keyword.TermIndex {
	t.Helper()
	terms, err := keyword.NewTermIndex("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { terms.Close() })
	var words []models.VocabWord
	for i, w := range testWords {
		words = append(words, models.VocabWord{Word: w, Index: i, Count: 1})
	}
	if err := terms.IndexWords(context.Background(), words); err != nil {
		t.Fatal(err)
	}
	return terms
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, r)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, WithTerms(newTestTerms(t)))
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Words        int `json:"words"`
		Rows         int `json:"rows"`
		VectorLength int `json:"vector_length"`
		IndexSize    int `json:"index_size"`
		Terms        int `json:"terms"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Words != 4 || out.Rows != 5 || out.VectorLength != 4 || out.IndexSize != 4 || out.Terms != 4 {
		t.Errorf("status: %+v", out)
	}
}

func TestHandleVector(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/v1/vectors/DOG", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out vectorResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Word != "dog" || out.Index != 1 || len(out.Vector) != 4 {
		t.Errorf("vector: %+v", out)
	}
	if out.Bias != 0 {
		t.Errorf("bias: got %v, want 0", out.Bias)
	}
}

func TestHandleVector_UnknownWithSuggestions(t *testing.T) {
	srv := newTestServer(t, WithTerms(newTestTerms(t)))
	w := do(t, srv, http.MethodGet, "/api/v1/vectors/cats", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Word        string   `json:"word"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Word != "cats" || len(out.Suggestions) == 0 || out.Suggestions[0] != "cat" {
		t.Errorf("unknown response: %+v", out)
	}
}

func TestHandleSimilar(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/v1/similar/cat?k=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SimilarResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Known || len(out.Results) != 2 {
		t.Fatalf("similar: %+v", out)
	}
	for i, r := range out.Results {
		if r.Word == "cat" {
			t.Error("query word should be excluded")
		}
		if r.Rank != i+1 {
			t.Errorf("rank: got %d, want %d", r.Rank, i+1)
		}
	}
	if out.Results[0].Score < out.Results[1].Score {
		t.Error("results should be sorted by score")
	}
}

func TestHandleSimilar_BadRequests(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name string
		path string
		want int
	}{
		{"non-numeric k", "/api/v1/similar/cat?k=abc", http.StatusBadRequest},
		{"zero k", "/api/v1/similar/cat?k=0", http.StatusBadRequest},
		{"unknown word", "/api/v1/similar/zebra", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodGet, tt.path, nil)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleSuggest(t *testing.T) {
	srv := newTestServer(t)
	if w := do(t, srv, http.MethodGet, "/api/v1/suggest/dgo", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("without terms: got %d, want 501", w.Code)
	}

	srv = newTestServer(t, WithTerms(newTestTerms(t)))
	w := do(t, srv, http.MethodGet, "/api/v1/suggest/fsh?limit=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Suggestions []keyword.Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Suggestions) == 0 || out.Suggestions[0].Word != "fish" || out.Suggestions[0].Distance != 1 {
		t.Errorf("suggestions: %+v", out.Suggestions)
	}
}

func TestHandleTrain(t *testing.T) {
	srv := newTestServer(t)
	before, _ := srv.model.Table.Vector(0)

	w := do(t, srv, http.MethodPost, "/api/v1/train", map[string]interface{}{"word1": "cat", "word2": "dog", "score": 50})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out trainResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Word1 != "cat" || out.Word2 != "dog" || math.IsNaN(out.Residual) || math.IsInf(out.Residual, 0) {
		t.Errorf("train: %+v", out)
	}
	after, _ := srv.model.Table.Vector(0)
	changed := false
	for i := range before {
		if before[i] != after[i] {
			changed = true
		}
	}
	if !changed {
		t.Error("cat vector should move after a training step")
	}
	indexed, ok := srv.model.Index.Lookup("cat")
	if !ok || len(indexed) != 4 {
		t.Fatal("cat should stay indexed")
	}
}

func TestHandleTrain_Errors(t *testing.T) {
	srv := newTestServer(t)
	onePastEnd := srv.model.Table.Rows()
	zero := 0
	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"unknown word", map[string]interface{}{"word1": "cat", "word2": "zebra", "score": 1}, http.StatusNotFound},
		{"index past end", trainRequest{Index1: &zero, Index2: &onePastEnd, Score: 1}, http.StatusBadRequest},
		{"missing word", map[string]interface{}{"word1": "cat", "score": 1}, http.StatusBadRequest},
		{"unknown strategy", map[string]interface{}{"word1": "cat", "word2": "dog", "strategy": "bogus"}, http.StatusBadRequest},
		{"negative sampling", map[string]interface{}{"word1": "cat", "word2": "dog", "strategy": "negative-sampling"}, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/v1/train", tt.body)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d, body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/train", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body: got %d", w.Code)
	}
}

func TestHandleReload(t *testing.T) {
	srv := newTestServer(t)
	if w := do(t, srv, http.MethodPost, "/api/v1/reload", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("without loader: got %d, want 501", w.Code)
	}

	loader := func(context.Context) (*Model, error) {
		return newTestModel(t, []string{"red", "green"}), nil
	}
	srv = newTestServer(t, WithLoader(loader), WithTerms(newTestTerms(t)))
	w := do(t, srv, http.MethodPost, "/api/v1/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if got := do(t, srv, http.MethodGet, "/api/v1/vectors/green", nil).Code; got != http.StatusOK {
		t.Errorf("reloaded word: got %d", got)
	}
	if got := do(t, srv, http.MethodGet, "/api/v1/vectors/cat", nil).Code; got != http.StatusNotFound {
		t.Errorf("dropped word: got %d", got)
	}
	if ok, _ := srv.terms.Contains("green"); !ok {
		t.Error("term index should include reloaded words")
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, testWords)
	modelPath := filepath.Join(dir, "vectors.txt")
	f, err := os.Create(modelPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Table.Save(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	indexPath := filepath.Join(dir, "vectors.idx")
	loaded, err := LoadModel(context.Background(), modelPath, nil, glove.DefaultConfig(4), indexPath, nil)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Vocab.NumWords() != 4 || loaded.Index.Size() != 4 || loaded.Table.VectorLength() != 4 {
		t.Errorf("loaded: words=%d index=%d dim=%d", loaded.Vocab.NumWords(), loaded.Index.Size(), loaded.Table.VectorLength())
	}
	if _, err := os.Stat(indexPath); err != nil {
		t.Errorf("index should be saved: %v", err)
	}
	want, _ := m.Table.Vector(2)
	got, _ := loaded.Table.Vector(loaded.Vocab.IndexOf("fish"))
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("fish vector: got %v, want %v", got, want)
		}
	}

	again, err := LoadModel(context.Background(), modelPath, nil, glove.DefaultConfig(4), indexPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again.Index.Size() != 4 {
		t.Errorf("reused index size: %d", again.Index.Size())
	}
}

func TestLoadModel_Missing(t *testing.T) {
	_, err := LoadModel(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), nil, glove.DefaultConfig(4), "", nil)
	if err == nil {
		t.Error("expected error for missing model file")
	}
}

func TestLoadModel_MismatchedLine(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "vectors.txt")
	if err := os.WriteFile(modelPath, []byte("a 1 2\nb 1 2 3\nc 3 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadModel(context.Background(), modelPath, nil, glove.DefaultConfig(2), "", nil)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if m.Vocab.NumWords() != 2 || m.Table.Rows() != 2 {
		t.Fatalf("words=%d rows=%d, want 2 and 2", m.Vocab.NumWords(), m.Table.Rows())
	}
	if m.Vocab.IndexOf("b") != -1 {
		t.Error("b has the wrong width and should not be in the vocabulary")
	}
	got, err := m.Table.Vector(m.Vocab.IndexOf("c"))
	if err != nil {
		t.Fatalf("Vector(c): %v", err)
	}
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("c vector = %v, want [3 4]", got)
	}
	if m.Index.Size() != 2 {
		t.Errorf("index size = %d, want 2", m.Index.Size())
	}
}
