// Package main is the glove CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/glove/internal/cli"
	"github.com/hyperjump/glove/internal/config"
	"github.com/hyperjump/glove/internal/corpus"
	"github.com/hyperjump/glove/internal/embedding"
	"github.com/hyperjump/glove/internal/glove"
	"github.com/hyperjump/glove/internal/keyword"
	"github.com/hyperjump/glove/internal/models"
	"github.com/hyperjump/glove/internal/server"
	"github.com/hyperjump/glove/internal/storage"
	"github.com/hyperjump/glove/internal/trainer"
	"github.com/hyperjump/glove/internal/vector"
	"github.com/hyperjump/glove/internal/vocab"
	"github.com/hyperjump/glove/internal/watcher"
	"github.com/hyperjump/glove/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/glove/config.yaml"
	sampleBatchSize   = 10000
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "build":
		runBuild()
	case "train":
		runTrain()
	case "export":
		runExport()
	case "import":
		runImport()
	case "similar":
		runSimilar()
	case "serve", "server":
		runServe()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("glove version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and creates the logger shared by every subcommand.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// tableConfig maps model settings onto table hyperparameters.
func tableConfig(m config.ModelConfig) glove.Config {
	return glove.Config{
		VectorLength: m.VectorLength,
		LearningRate: m.LearningRate,
		XMax:         m.XMax,
		MaxCount:     m.MaxCount,
		UseAdaGrad:   m.UseAdaGradOrDefault(),
		Seed:         m.Seed,
	}
}

// reorderArgs moves flags that follow positional arguments to the front so that
// "glove similar king -k 5" parses like "glove similar -k 5 king".
func reorderArgs(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			if i == 0 {
				return args
			}
			out := make([]string, 0, len(args))
			out = append(out, args[i:]...)
			return append(out, args[:i]...)
		}
	}
	return args
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	window := fs.Int("window", 0, "co-occurrence window size (default from config)")
	minCount := fs.Float64("min-count", 0, "drop words seen fewer times (default from config)")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() < 1 {
		fail("Usage: glove build [flags] <file-or-directory>...")
	}

	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *window <= 0 {
		*window = cfg.Corpus.WindowSize
	}
	if *minCount <= 0 {
		*minCount = cfg.Corpus.MinCount
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := corpus.NewBuilder(*window, cfg.Corpus.SymmetricOrDefault(), corpus.WithLogger(logger))
	files := 0
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fail("Failed to stat path: %v", err)
		}
		if info.IsDir() {
			n, err := builder.AddDirectory(ctx, path, cfg.Corpus.Extensions)
			if err != nil {
				fail("Reading directory failed: %v", err)
			}
			files += n
			continue
		}
		if err := builder.AddFile(path); err != nil {
			fail("Reading file failed: %v", err)
		}
		files++
	}

	words := builder.Vocabulary(*minCount)
	samples := builder.Cooccurrences(words)
	if words.NumWords() == 0 {
		fail("No words found in %d file(s)", files)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fail("Failed to open storage: %v", err)
	}
	defer store.Close()
	if err := store.SaveVocabulary(ctx, words.Words()); err != nil {
		fail("Saving vocabulary failed: %v", err)
	}
	if err := store.ClearCooccurrences(ctx); err != nil {
		fail("Clearing co-occurrences failed: %v", err)
	}
	for start := 0; start < len(samples); start += sampleBatchSize {
		end := min(start+sampleBatchSize, len(samples))
		if err := store.BatchAddCooccurrences(ctx, samples[start:end]); err != nil {
			fail("Saving co-occurrences failed: %v", err)
		}
	}
	if err := rebuildTerms(ctx, cfg.Storage.TermIndexPath, words.Words()); err != nil {
		logger.Warn("term index rebuild failed", zap.Error(err))
	}
	logger.Info("corpus built",
		zap.Int("files", files),
		zap.Int64("tokens", builder.Tokens()),
		zap.Int("words", words.NumWords()),
		zap.Int("cooccurrences", len(samples)),
	)
	fmt.Printf("Built vocabulary of %d words and %d co-occurrences from %d file(s)\n", words.NumWords(), len(samples), files)
}

// rebuildTerms replaces the term index at path with words.
func rebuildTerms(ctx context.Context, path string, words []models.VocabWord) error {
	if path != "" {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove term index: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create term index dir: %w", err)
		}
	}
	terms, err := keyword.NewTermIndex(path)
	if err != nil {
		return err
	}
	defer terms.Close()
	return terms.IndexWords(ctx, words)
}

func runTrain() {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	epochs := fs.Int("epochs", 0, "number of epochs (default from config)")
	workers := fs.Int("workers", 0, "parallel workers (default from config)")
	resume := fs.Bool("resume", false, "continue from the saved model when its vocabulary matches")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *epochs <= 0 {
		*epochs = cfg.Training.Epochs
	}
	if *workers <= 0 {
		*workers = cfg.Training.Workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fail("Failed to open storage: %v", err)
	}
	defer store.Close()
	stored, err := store.LoadVocabulary(ctx)
	if err != nil {
		fail("Loading vocabulary failed: %v", err)
	}
	if len(stored) == 0 {
		fail("No vocabulary stored; run \"glove build\" first")
	}
	words, ok := vocab.FromWords(stored)
	if !ok {
		fail("Stored vocabulary has gaps or duplicate words; run \"glove build\" again")
	}

	table, err := newTable(words, cfg, *resume, logger)
	if err != nil {
		fail("Failed to create table: %v", err)
	}

	tr := trainer.New(table, store, trainer.Config{
		Epochs:    *epochs,
		Workers:   *workers,
		BatchSize: cfg.Training.BatchSize,
		Shuffle:   cfg.Training.ShuffleOrDefault(),
		Seed:      cfg.Model.Seed,
		ModelPath: cfg.Storage.ModelPath,
	},
		trainer.WithLogger(logger),
		trainer.WithProgress(func(p trainer.Progress) {
			fmt.Printf("epoch %d/%d  loss=%.6f  samples=%d  elapsed=%s\n",
				p.Epoch, p.Epochs, p.Loss, p.Samples, p.Elapsed.Round(time.Millisecond))
		}),
	)
	run, err := tr.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fail("Training failed: %v", err)
	}
	if run == nil || run.Epochs == 0 {
		fail("Training stopped before the first epoch finished; model not saved")
	}

	if err := saveModel(table, cfg.Storage.ModelPath); err != nil {
		fail("Saving model failed: %v", err)
	}
	idx, err := vector.BuildFromTable(context.WithoutCancel(ctx), table, words)
	if err != nil {
		fail("Building index failed: %v", err)
	}
	if err := idx.Save(cfg.Storage.IndexPath); err != nil {
		logger.Warn("index save failed", zap.String("path", cfg.Storage.IndexPath), zap.Error(err))
	}
	fmt.Printf("Trained %d epoch(s), final loss %.6f, run %s\nModel written to %s\n",
		run.Epochs, run.FinalLoss, run.ID, cfg.Storage.ModelPath)
}

// newTable returns a freshly initialized table, or with resume the saved model when it
// has exactly one row per vocabulary word plus the unknown-word row.
func newTable(words *vocab.Cache, cfg *config.Config, resume bool, logger *zap.Logger) (*glove.Table, error) {
	tcfg := tableConfig(cfg.Model)
	if resume {
		f, err := os.Open(cfg.Storage.ModelPath)
		if err == nil {
			table, loadErr := glove.Load(f, words, tcfg)
			f.Close()
			if loadErr == nil && table.Rows() == words.NumWords()+1 {
				logger.Info("resuming from saved model", zap.String("path", cfg.Storage.ModelPath))
				return table, nil
			}
			logger.Warn("saved model does not match vocabulary, starting fresh", zap.Error(loadErr))
		} else {
			logger.Warn("no saved model to resume, starting fresh", zap.Error(err))
		}
	}
	table, err := glove.New(words, tcfg)
	if err != nil {
		return nil, err
	}
	if err := table.Initialize(false); err != nil {
		return nil, err
	}
	return table, nil
}

// saveModel writes table to path through a temporary file and rename, so readers and
// watchers never see a partial model.
func saveModel(table *glove.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp model: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := table.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// modelVocabulary returns the vocabulary of the model file at path, in file order, with
// counts taken from the stored vocabulary where the words match.
func modelVocabulary(ctx context.Context, path string, store storage.Storage) (*vocab.Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	words, err := vocab.ScanWords(f, glove.UnknownWord)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return words, nil
	}
	stored, err := store.LoadVocabulary(ctx)
	if err != nil || len(stored) == 0 {
		return words, nil
	}
	counts := make(map[string]float64, len(stored))
	for _, w := range stored {
		counts[w.Word] = w.Count
	}
	entries := words.Words()
	for i := range entries {
		if c, ok := counts[entries[i].Word]; ok {
			entries[i].Count = c
		}
	}
	merged, ok := vocab.FromWords(entries)
	if !ok {
		return words, nil
	}
	return merged, nil
}

func loadModel(ctx context.Context, cfg *config.Config, store storage.Storage, logger *zap.Logger) (*server.Model, error) {
	words, err := modelVocabulary(ctx, cfg.Storage.ModelPath, store)
	if err != nil {
		return nil, err
	}
	return server.LoadModel(ctx, cfg.Storage.ModelPath, words, tableConfig(cfg.Model), cfg.Storage.IndexPath, logger)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	out := fs.String("out", "", "output file (default: stdout)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	words, err := modelVocabulary(context.Background(), cfg.Storage.ModelPath, nil)
	if err != nil {
		fail("Reading model failed: %v", err)
	}
	f, err := os.Open(cfg.Storage.ModelPath)
	if err != nil {
		fail("Failed to open model: %v", err)
	}
	table, err := glove.Load(f, words, tableConfig(cfg.Model))
	f.Close()
	if err != nil {
		fail("Loading model failed: %v", err)
	}

	if *out == "" {
		if err := table.Save(os.Stdout); err != nil {
			fail("Export failed: %v", err)
		}
		return
	}
	if err := saveModel(table, *out); err != nil {
		fail("Export failed: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d vectors of length %d to %s\n", table.Rows(), table.VectorLength(), *out)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fail("Usage: glove import [flags] <vectors.txt>")
	}

	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	ctx := context.Background()

	model, err := server.LoadModel(ctx, fs.Arg(0), nil, tableConfig(cfg.Model), "", logger)
	if err != nil {
		fail("Import failed: %v", err)
	}
	if err := saveModel(model.Table, cfg.Storage.ModelPath); err != nil {
		fail("Saving model failed: %v", err)
	}
	if idx, ok := model.Index.(*vector.MemoryIndex); ok {
		if err := idx.Save(cfg.Storage.IndexPath); err != nil {
			logger.Warn("index save failed", zap.String("path", cfg.Storage.IndexPath), zap.Error(err))
		}
	}
	if err := rebuildTerms(ctx, cfg.Storage.TermIndexPath, model.Vocab.Words()); err != nil {
		logger.Warn("term index rebuild failed", zap.Error(err))
	}
	fmt.Printf("Imported %d words with vector length %d into %s\n",
		model.Vocab.NumWords(), model.Table.VectorLength(), cfg.Storage.ModelPath)
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the model file directly)")
	k := fs.Int("k", 10, "number of neighbours")
	output := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))
	if fs.NArg() != 1 {
		fail("Usage: glove similar [flags] <word>")
	}
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fail("%v", err)
	}
	word := strings.ToLower(strings.TrimSpace(fs.Arg(0)))

	var resp *models.SimilarResponse
	if *serverURL != "" {
		resp, err = similarViaHTTP(*serverURL, word, *k)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		resp, err = similarLocal(context.Background(), cfg, word, *k, logger)
	}
	if err != nil {
		fail("Similar failed: %v", err)
	}
	if err := cli.WriteSimilar(os.Stdout, resp, format); err != nil {
		fail("Output failed: %v", err)
	}
	if !resp.Known {
		os.Exit(2)
	}
}

func similarLocal(ctx context.Context, cfg *config.Config, word string, k int, logger *zap.Logger) (*models.SimilarResponse, error) {
	start := time.Now()
	model, err := loadModel(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	resp := &models.SimilarResponse{Word: word}
	if model.Vocab.IndexOf(word) < 0 {
		resp.Suggestions = localSuggestions(cfg.Storage.TermIndexPath, word)
		return resp, nil
	}
	embedder := embedding.NewTableEmbedder(model.Table, 1)
	defer embedder.Close()
	query, known, err := embedder.Lookup(ctx, word)
	if err != nil {
		return nil, err
	}
	hits, err := model.Index.Search(ctx, query, k, word)
	if err != nil {
		return nil, err
	}
	resp.Known = known
	for i, h := range hits {
		resp.Results = append(resp.Results, &models.SimilarWord{Word: h.Word, Score: h.Score, Rank: i + 1})
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

func localSuggestions(path, word string) []string {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	terms, err := keyword.NewTermIndex(path)
	if err != nil {
		return nil
	}
	defer terms.Close()
	found, err := terms.Suggest(word, 5)
	if err != nil {
		return nil
	}
	out := make([]string, len(found))
	for i, s := range found {
		out[i] = s.Word
	}
	return out
}

func similarViaHTTP(serverURL, word string, k int) (*models.SimilarResponse, error) {
	u := fmt.Sprintf("%s/api/v1/similar/%s?k=%d", strings.TrimRight(serverURL, "/"), url.PathEscape(word), k)
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		var out models.SimilarResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &out, nil
	case http.StatusNotFound:
		var out struct {
			Suggestions []string `json:"suggestions"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return &models.SimilarResponse{Word: word, Suggestions: out.Suggestions}, nil
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, reloads, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	debugMode := cfg.Debug || *debug
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()
	model, err := loadModel(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to load model", zap.Error(err))
	}
	terms, err := keyword.NewTermIndex(cfg.Storage.TermIndexPath)
	if err != nil {
		logger.Fatal("Failed to open term index", zap.Error(err))
	}
	defer terms.Close()
	if n, err := terms.DocCount(); err == nil && n == 0 {
		if err := terms.IndexWords(ctx, model.Vocab.Words()); err != nil {
			logger.Warn("term index build failed", zap.Error(err))
		}
	}

	opts := []server.Option{
		server.WithTerms(terms),
		server.WithStorage(store),
		server.WithStoragePaths(&cfg.Storage),
		server.WithLoader(func(ctx context.Context) (*server.Model, error) {
			return loadModel(ctx, cfg, store, logger)
		}),
	}

	var srv *server.Server
	if cfg.Watch.ReloadOrDefault() {
		watchOpts := []watcher.Option{watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond)}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w, err := watcher.NewWatcher([]string{cfg.Storage.ModelPath}, func(path string) {
			if err := srv.Reload(ctx); err != nil {
				logger.Warn("model reload failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err != nil {
			logger.Fatal("Failed to create watcher", zap.Error(err))
		}
		opts = append(opts, server.WithWatcher(w))
		defer w.Stop()
		srv = server.NewServer(model, &cfg.Server, logger, opts...)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	} else {
		srv = server.NewServer(model, &cfg.Server, logger, opts...)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// statusOutput is the shape of the status command's JSON output.
type statusOutput struct {
	Vocabulary     int64                 `json:"vocabulary"`
	Cooccurrences  int64                 `json:"cooccurrences"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Storage        config.StorageConfig  `json:"storage"`
	Runs           []*models.TrainingRun `json:"runs"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	runs := fs.Int("runs", 5, "number of recent training runs to show")
	output := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*output)
	if err != nil {
		fail("%v", err)
	}

	cfg, _, logger := setup(*configPath, false)
	defer logger.Sync()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fail("Failed to open storage: %v", err)
	}
	defer store.Close()

	var status statusOutput
	status.Storage = cfg.Storage
	if status.Vocabulary, err = store.CountVocabulary(ctx); err != nil {
		fail("Count vocabulary failed: %v", err)
	}
	if status.Cooccurrences, err = store.CountCooccurrences(ctx); err != nil {
		fail("Count co-occurrences failed: %v", err)
	}
	if status.Runs, err = store.ListRuns(ctx, *runs); err != nil {
		fail("List runs failed: %v", err)
	}
	if diskBytes, err := storage.DiskUsageBytes(
		cfg.Storage.DatabasePath, cfg.Storage.ModelPath, cfg.Storage.IndexPath, cfg.Storage.TermIndexPath,
	); err == nil {
		status.DiskUsageBytes = &diskBytes
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fail("Output failed: %v", err)
		}
		return
	}
	fmt.Printf("vocabulary:         %d   # distinct words\n", status.Vocabulary)
	fmt.Printf("cooccurrences:      %d   # stored training samples\n", status.Cooccurrences)
	if status.DiskUsageBytes != nil {
		fmt.Printf("disk_usage_bytes:   %d   # database, model and indices on disk\n", *status.DiskUsageBytes)
	}
	fmt.Println()
	fmt.Println("# storage")
	fmt.Printf("database_path:      %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("model_path:         %s\n", cfg.Storage.ModelPath)
	fmt.Printf("index_path:         %s\n", cfg.Storage.IndexPath)
	fmt.Printf("term_index_path:    %s\n", cfg.Storage.TermIndexPath)
	fmt.Println()
	fmt.Println("# recent training runs")
	if err := cli.WriteRuns(os.Stdout, status.Runs, format); err != nil {
		fail("Output failed: %v", err)
	}
}

func printUsage() {
	fmt.Println(`glove - GloVe word vectors: build, train and serve

Usage:
  glove build [flags] <path>...     Count words and co-occurrences from files into the database
  glove train [flags]               Train vectors from the stored co-occurrences
  glove export [flags]              Write the model as "word v1 ... vn" text
  glove import [flags] <file>       Replace the model with vectors from a text file
  glove similar [flags] <word>      Show the nearest words by cosine similarity
  glove serve [flags]               Start the HTTP server
  glove status [flags]              Show database counts and recent training runs
  glove version                     Show version
  glove help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/glove/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging

Build Flags:
  --window int       Co-occurrence window size (default from config)
  --min-count float  Minimum word count (default from config)

Train Flags:
  --epochs int       Number of epochs (default from config)
  --workers int      Parallel workers (default: physical cores)
  --resume           Continue from the saved model when its vocabulary matches

Export Flags:
  --out string       Output file (default: stdout)

Similar Flags:
  --k int            Number of neighbours (default: 10)
  --output string    Output format: text, compact or json (default: text)
  --server string    Query a running server instead of reading the model file

Status Flags:
  --runs int         Number of recent training runs (default: 5)
  --output string    Output format: text, compact or json (default: text)

Examples:
  glove build ~/corpus
  glove train --epochs 50
  glove similar king -k 5
  glove similar --server http://localhost:8080 --output json queen
  glove export --out vectors.txt
  glove import glove.6B.50d.txt
  glove serve --debug`)
}
