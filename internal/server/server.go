// Package server provides the HTTP API for trained word vectors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/glove/internal/config"
	"github.com/hyperjump/glove/internal/embedding"
	"github.com/hyperjump/glove/internal/keyword"
	"github.com/hyperjump/glove/internal/storage"
	"github.com/hyperjump/glove/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoLoader is returned by Reload when the server was built without a Loader.
var ErrNoLoader = errors.New("server: reload not configured")

// FileWatcher reports the files being watched for reload.
type FileWatcher interface {
	Files() []string
}

// Server is the HTTP server for the word vector API. The model is guarded by mu: lookups
// take the read lock, training steps and reloads the write lock.
type Server struct {
	mu       sync.RWMutex
	model    *Model
	embedder *embedding.TableEmbedder

	terms   *keyword.TermIndex
	storage storage.Storage
	loader  Loader
	watch   FileWatcher
	paths   *config.StorageConfig
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	started time.Time
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithTerms enables spelling suggestions from a vocabulary term index.
func WithTerms(t *keyword.TermIndex) Option {
	return func(s *Server) { s.terms = t }
}

// WithStorage enables corpus and training run statistics.
func WithStorage(st storage.Storage) Option {
	return func(s *Server) { s.storage = st }
}

// WithLoader enables POST /api/v1/reload.
func WithLoader(l Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithWatcher reports watched files in the status response.
func WithWatcher(w FileWatcher) Option {
	return func(s *Server) { s.watch = w }
}

// WithStoragePaths adds storage paths and disk usage to the status response.
func WithStoragePaths(p *config.StorageConfig) Option {
	return func(s *Server) { s.paths = p }
}

// NewServer creates a server serving model.
func NewServer(model *Model, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		model:    model,
		embedder: embedding.NewTableEmbedder(model.Table, embedding.DefaultCacheSize),
		config:   cfg,
		logger:   utils.OrNop(logger),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/vectors/{word}", s.handleVector)
		r.Get("/similar/{word}", s.handleSimilar)
		r.Get("/suggest/{term}", s.handleSuggest)
		r.Post("/train", s.handleTrain)
		r.Post("/reload", s.handleReload)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           middleware.Logger(s.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Reload replaces the served model with a fresh one from the loader and refreshes the
// embedding cache and term index.
func (s *Server) Reload(ctx context.Context) error {
	if s.loader == nil {
		return ErrNoLoader
	}
	m, err := s.loader(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload model: %w", err)
	}
	s.mu.Lock()
	old := s.model
	s.model = m
	s.embedder.Swap(m.Table)
	s.mu.Unlock()

	if old != nil && old.Index != nil {
		_ = old.Index.Close()
	}
	if s.terms != nil {
		if err := s.terms.IndexWords(ctx, m.Vocab.Words()); err != nil {
			s.logger.Warn("term index refresh failed", zap.Error(err))
		}
	}
	s.logger.Info("model reloaded",
		zap.Int("words", m.Vocab.NumWords()),
		zap.Int("vector_length", m.Table.VectorLength()),
	)
	return nil
}
