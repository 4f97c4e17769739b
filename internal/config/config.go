// Package config provides configuration loading and structs for the glove trainer and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, the text model and the indices.
type StorageConfig struct {
	DatabasePath  string `yaml:"database_path"`
	ModelPath     string `yaml:"model_path"`
	IndexPath     string `yaml:"index_path"`
	TermIndexPath string `yaml:"term_index_path"`
}

// ModelConfig holds the table hyperparameters.
type ModelConfig struct {
	VectorLength int     `yaml:"vector_length"`
	LearningRate float64 `yaml:"learning_rate"`
	XMax         float64 `yaml:"x_max"`
	MaxCount     float64 `yaml:"max_count"`
	UseAdaGrad   *bool   `yaml:"use_adagrad"`
	Seed         int64   `yaml:"seed"`
}

// UseAdaGradOrDefault returns whether adaptive updates are enabled; defaults to true when unset.
func (m *ModelConfig) UseAdaGradOrDefault() bool {
	if m.UseAdaGrad != nil {
		return *m.UseAdaGrad
	}
	return true
}

// TrainingConfig holds training loop settings.
type TrainingConfig struct {
	Epochs    int   `yaml:"epochs"`
	Workers   int   `yaml:"workers"`
	BatchSize int   `yaml:"batch_size"`
	Shuffle   *bool `yaml:"shuffle"`
}

// ShuffleOrDefault returns whether samples are shuffled each epoch; defaults to true when unset.
func (t *TrainingConfig) ShuffleOrDefault() bool {
	if t.Shuffle != nil {
		return *t.Shuffle
	}
	return true
}

// CorpusConfig holds co-occurrence counting settings.
type CorpusConfig struct {
	WindowSize int      `yaml:"window_size"`
	MinCount   float64  `yaml:"min_count"`
	Symmetric  *bool    `yaml:"symmetric"`
	Extensions []string `yaml:"extensions"`
}

// SymmetricOrDefault returns whether both directions of a pair are counted; defaults to true.
func (c *CorpusConfig) SymmetricOrDefault() bool {
	if c.Symmetric != nil {
		return *c.Symmetric
	}
	return true
}

// WatchConfig holds model file watch settings.
type WatchConfig struct {
	Reload     *bool `yaml:"reload"`
	DebounceMS int   `yaml:"debounce_ms"`
}

// ReloadOrDefault returns whether the server reloads the model file on change; defaults to true.
func (w *WatchConfig) ReloadOrDefault() bool {
	if w.Reload != nil {
		return *w.Reload
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.ModelPath = expandPath(cfg.Storage.ModelPath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Storage.TermIndexPath = expandPath(cfg.Storage.TermIndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. ":memory:" is kept as is.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
