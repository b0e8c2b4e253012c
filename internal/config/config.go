package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all engram configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Recall    RecallConfig    `toml:"recall"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type EmbeddingConfig struct {
	OllamaURL      string `toml:"ollama_url"`
	Model          string `toml:"model"`           // e.g. "nomic-embed-text"
	TimeoutSeconds int    `toml:"timeout_seconds"` // embedding request timeout
}

// RecallConfig holds the reranking weights. The weights need not sum to 1.
type RecallConfig struct {
	SimilarityWeight     float64 `toml:"similarity_weight"`
	RetrievabilityWeight float64 `toml:"retrievability_weight"`
	EmotionWeight        float64 `toml:"emotion_weight"`
	FixationAlpha        float64 `toml:"fixation_alpha"`
	DefaultLimit         int     `toml:"default_limit"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37707,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Embedding: EmbeddingConfig{
			OllamaURL:      "http://localhost:11434",
			Model:          "nomic-embed-text",
			TimeoutSeconds: 10,
		},
		Recall: RecallConfig{
			SimilarityWeight:     0.5,
			RetrievabilityWeight: 0.3,
			EmotionWeight:        0.2,
			FixationAlpha:        0.1,
			DefaultLimit:         5,
		},
	}
}

// DefaultPath returns the default config file path: ~/.engram/engram.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".engram", "engram.toml"), nil
}

// Load reads config from the given TOML file, layered over Default().
// A missing file is not an error; defaults apply. Environment variables
// ENGRAM_DB, OLLAMA_URL and EMBEDDING_MODEL override the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("ENGRAM_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Embedding.OllamaURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
