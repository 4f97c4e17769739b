package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/glove/internal/glove"
	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/internal/storage"
	"github.com/hyperjump/glove/internal/vector"
	"go.uber.org/zap"
)

const (
	defaultSimilarK     = 10
	maxSimilarK         = 1000
	defaultSuggestLimit = 5
)

type vectorResponse struct {
	Word   string    `json:"word"`
	Index  int       `json:"index"`
	Count  float64   `json:"count"`
	Bias   float64   `json:"bias"`
	Vector []float64 `json:"vector"`
}

type trainRequest struct {
	Word1    string  `json:"word1,omitempty"`
	Word2    string  `json:"word2,omitempty"`
	Index1   *int    `json:"index1,omitempty"`
	Index2   *int    `json:"index2,omitempty"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy,omitempty"`
}

type trainResponse struct {
	Word1    string  `json:"word1"`
	Word2    string  `json:"word2"`
	Residual float64 `json:"residual"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.mu.RLock()
	m := s.model
	tableCfg := m.Table.Config()
	resp := map[string]interface{}{
		"words":          m.Vocab.NumWords(),
		"rows":           m.Table.Rows(),
		"vector_length":  m.Table.VectorLength(),
		"index_size":     m.Index.Size(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	s.mu.RUnlock()

	configInfo := map[string]interface{}{
		"learning_rate": tableCfg.LearningRate,
		"x_max":         tableCfg.XMax,
		"max_count":     tableCfg.MaxCount,
		"use_adagrad":   tableCfg.UseAdaGrad,
	}
	if s.terms != nil {
		if n, err := s.terms.DocCount(); err == nil {
			resp["terms"] = n
		}
	}
	if s.storage != nil {
		samples, err := s.storage.CountCooccurrences(ctx)
		if err != nil {
			s.logger.Error("status: count cooccurrences failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["cooccurrences"] = samples
		runs, err := s.storage.ListRuns(ctx, 1)
		if err != nil {
			s.logger.Error("status: list runs failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(runs) > 0 {
			resp["last_run"] = runs[0]
		}
	}
	if s.paths != nil {
		configInfo["database_path"] = s.paths.DatabasePath
		configInfo["model_path"] = s.paths.ModelPath
		configInfo["index_path"] = s.paths.IndexPath
		configInfo["term_index_path"] = s.paths.TermIndexPath
		diskBytes, err := storage.DiskUsageBytes(
			s.paths.DatabasePath,
			s.paths.ModelPath,
			s.paths.IndexPath,
			s.paths.TermIndexPath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	if s.watch != nil {
		resp["watching"] = s.watch.Files()
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVector(w http.ResponseWriter, r *http.Request) {
	word := wordParam(r, "word")
	s.mu.RLock()
	defer s.mu.RUnlock()
	vw, ok := s.model.Vocab.Word(word)
	if !ok {
		s.respondUnknown(w, word)
		return
	}
	vec, err := s.model.Table.Vector(vw.Index)
	if err != nil {
		s.respondTableError(w, err)
		return
	}
	bias, err := s.model.Table.Bias(vw.Index)
	if err != nil {
		s.respondTableError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, vectorResponse{
		Word:   vw.Word,
		Index:  vw.Index,
		Count:  vw.Count,
		Bias:   bias,
		Vector: vec,
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	word := wordParam(r, "word")
	k, err := intQuery(r, "k", defaultSimilarK)
	if err != nil || k < 1 || k > maxSimilarK {
		s.respondError(w, http.StatusBadRequest, "k must be an integer between 1 and 1000")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model.Vocab.IndexOf(word) < 0 {
		s.respondUnknown(w, word)
		return
	}
	query, _, err := s.embedder.Lookup(ctx, word)
	if err != nil {
		s.logger.Error("similar: lookup failed", zap.String("word", word), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	hits, err := s.model.Index.Search(ctx, query, k, word)
	if err != nil {
		s.logger.Error("similar: search failed", zap.String("word", word), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := &models.SimilarResponse{Word: word, Known: true, Results: make([]*models.SimilarWord, len(hits))}
	for i, h := range hits {
		resp.Results[i] = &models.SimilarWord{Word: h.Word, Score: h.Score, Rank: i + 1}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	s.logger.Debug("similar request", zap.String("word", word), zap.Int("k", k), zap.Int("results", len(hits)))
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if s.terms == nil {
		s.respondError(w, http.StatusNotImplemented, "term index not enabled")
		return
	}
	term := wordParam(r, "term")
	limit, err := intQuery(r, "limit", defaultSuggestLimit)
	if err != nil || limit < 1 {
		s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	suggestions, err := s.terms.Suggest(term, limit)
	if err != nil {
		s.logger.Error("suggest failed", zap.String("term", term), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"term": term, "suggestions": suggestions})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	strategy, ok := parseStrategy(req.Strategy)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "unknown strategy: "+req.Strategy)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w1, ok := s.resolve(w, req.Word1, req.Index1)
	if !ok {
		return
	}
	w2, ok := s.resolve(w, req.Word2, req.Index2)
	if !ok {
		return
	}
	s.logger.Debug("train request",
		zap.Stringer("word1", w1), zap.Stringer("word2", w2),
		zap.Float64("score", req.Score), zap.Stringer("strategy", strategy))

	table := s.model.Table
	if strategy == glove.StrategyNegativeSampling {
		var next uint64 = 1
		s.respondTableError(w, table.TrainNegative(w1, w2, &next, table.Config().LearningRate))
		return
	}
	residual, err := table.TrainPair(w1, w2, req.Score)
	if err != nil {
		s.respondTableError(w, err)
		return
	}
	s.embedder.Invalidate()
	s.refreshIndex(r, w1, w2)
	s.respondJSON(w, http.StatusOK, trainResponse{Word1: w1.Word, Word2: w2.Word, Residual: residual})
}

// resolve maps a word or a raw row index to a vocabulary entry. Raw indices are passed
// through unchecked so the table reports out-of-range rows.
func (s *Server) resolve(w http.ResponseWriter, word string, index *int) (models.VocabWord, bool) {
	if word != "" {
		word = normalizeWord(word)
		vw, ok := s.model.Vocab.Word(word)
		if !ok {
			s.respondUnknown(w, word)
			return models.VocabWord{}, false
		}
		return vw, true
	}
	if index != nil {
		vw := models.VocabWord{Index: *index, Word: s.model.Vocab.WordAt(*index)}
		if vw.Word == "" && *index == s.model.Table.UnknownIndex() {
			vw.Word = glove.UnknownWord
		}
		return vw, true
	}
	s.respondError(w, http.StatusBadRequest, "word or index is required")
	return models.VocabWord{}, false
}

// refreshIndex re-adds the trained rows to the similarity index. Caller holds the write lock.
func (s *Server) refreshIndex(r *http.Request, words ...models.VocabWord) {
	names := make([]string, 0, len(words))
	vecs := make([][]float32, 0, len(words))
	for _, vw := range words {
		if vw.Index >= s.model.Vocab.NumWords() {
			continue
		}
		vec, err := s.model.Table.Vector(vw.Index)
		if err != nil {
			continue
		}
		names = append(names, vw.Word)
		vecs = append(vecs, vector.ToFloat32(vec))
	}
	if len(names) == 0 {
		return
	}
	if err := s.model.Index.Add(r.Context(), names, vecs); err != nil {
		s.logger.Warn("index refresh failed", zap.Strings("words", names), zap.Error(err))
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		s.respondError(w, http.StatusNotImplemented, "reload not enabled")
		return
	}
	if err := s.Reload(r.Context()); err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.RLock()
	n := s.model.Vocab.NumWords()
	s.mu.RUnlock()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "reloaded", "words": n})
}

// respondUnknown writes a 404 for word with close vocabulary spellings when available.
func (s *Server) respondUnknown(w http.ResponseWriter, word string) {
	suggestions := []string{}
	if s.terms != nil {
		found, err := s.terms.Suggest(word, defaultSuggestLimit)
		if err != nil {
			s.logger.Warn("suggest failed", zap.String("word", word), zap.Error(err))
		}
		for _, sg := range found {
			suggestions = append(suggestions, sg.Word)
		}
	}
	s.respondJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":       "unknown word",
		"word":        word,
		"suggestions": suggestions,
	})
}

func (s *Server) respondTableError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, glove.ErrInvalidIndex):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, glove.ErrUnsupported):
		s.respondError(w, http.StatusNotImplemented, err.Error())
	default:
		s.logger.Error("table operation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func parseStrategy(name string) (glove.Strategy, bool) {
	switch name {
	case "", glove.StrategyCooccurrence.String():
		return glove.StrategyCooccurrence, true
	case glove.StrategyNegativeSampling.String():
		return glove.StrategyNegativeSampling, true
	default:
		return 0, false
	}
}

func wordParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return normalizeWord(raw)
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
