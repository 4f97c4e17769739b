package config

import "github.com/klauspost/cpuid/v2"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/glove/data/db/corpus.db"
	}
	if cfg.Storage.ModelPath == "" {
		cfg.Storage.ModelPath = "/usr/local/var/glove/data/models/vectors.txt"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/glove/data/indices/vectors.idx"
	}
	if cfg.Storage.TermIndexPath == "" {
		cfg.Storage.TermIndexPath = "/usr/local/var/glove/data/indices/terms"
	}
	if cfg.Model.VectorLength == 0 {
		cfg.Model.VectorLength = 50
	}
	if cfg.Model.LearningRate == 0 {
		cfg.Model.LearningRate = 0.05
	}
	if cfg.Model.XMax == 0 {
		cfg.Model.XMax = 0.75
	}
	if cfg.Model.MaxCount == 0 {
		cfg.Model.MaxCount = 100
	}
	if cfg.Model.Seed == 0 {
		cfg.Model.Seed = 1
	}
	if cfg.Training.Epochs == 0 {
		cfg.Training.Epochs = 25
	}
	if cfg.Training.Workers == 0 {
		cfg.Training.Workers = defaultWorkers()
	}
	if cfg.Training.BatchSize == 0 {
		cfg.Training.BatchSize = 1024
	}
	if cfg.Corpus.WindowSize == 0 {
		cfg.Corpus.WindowSize = 10
	}
	if cfg.Corpus.MinCount == 0 {
		cfg.Corpus.MinCount = 1
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".xlsx", ".rtf", ".odt"}
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}

// defaultWorkers returns the number of physical cores, or 4 when it cannot be detected.
func defaultWorkers() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return 4
}
