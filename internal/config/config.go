// Package config loads ctxd configuration from yaml with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/ctxd/internal/apperr"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config represents the complete ctxd configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Context   ContextConfig   `yaml:"context"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects and locates the context store backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the sqlite database file. Ignored for the memory backend.
	Path string `yaml:"path"`
}

// ContextConfig configures the chunking and ranking pipeline.
type ContextConfig struct {
	// MaxChunkSize is the chunk window size in bytes.
	MaxChunkSize int `yaml:"max_chunk_size"`

	// ChunkOverlap is the overlap between consecutive windows in bytes.
	// Must be smaller than MaxChunkSize.
	ChunkOverlap int `yaml:"chunk_overlap"`

	// MaxResults caps how many matches a retrieval call returns.
	MaxResults int `yaml:"max_results"`

	// TagCandidateGating makes the tag-scoped similarity pass restrict
	// the ranked set instead of running as a discarded recall signal.
	TagCandidateGating bool `yaml:"tag_candidate_gating"`
}

// EmbeddingConfig configures the vectorizer.
type EmbeddingConfig struct {
	// Dimension is the embedding vector dimension.
	Dimension int `yaml:"dimension"`

	// CacheSize is the number of text vectors kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// ServerConfig configures the unix-socket daemon.
type ServerConfig struct {
	// SocketPath is where the daemon listens.
	SocketPath string `yaml:"socket_path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// FilePath is the log file. Empty logs to stderr only.
	FilePath string `yaml:"file_path"`
}

// DefaultConfigFile is the config file name looked up in the working
// directory when --config is not given.
const DefaultConfigFile = "ctxd.yaml"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendMemory,
			Path:    defaultDBPath(),
		},
		Context: ContextConfig{
			MaxChunkSize: 1000,
			ChunkOverlap: 200,
			MaxResults:   10,
		},
		Embedding: EmbeddingConfig{
			Dimension: 768,
			CacheSize: 1000,
		},
		Server: ServerConfig{
			SocketPath: defaultSocketPath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration: defaults, then the yaml file at path (or
// DefaultConfigFile if path is empty and it exists), then CTXD_* env
// overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperr.Config("cannot read config file", err).WithDetail("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.Config("cannot parse config file", err).WithDetail("path", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from CTXD_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("CTXD_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CTXD_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("CTXD_MAX_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Context.MaxChunkSize = n
		}
	}
	if v := os.Getenv("CTXD_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Context.ChunkOverlap = n
		}
	}
	if v := os.Getenv("CTXD_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Context.MaxResults = n
		}
	}
	if v := os.Getenv("CTXD_EMBEDDING_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embedding.Dimension = n
		}
	}
	if v := os.Getenv("CTXD_SOCKET_PATH"); v != "" {
		c.Server.SocketPath = v
	}
	if v := os.Getenv("CTXD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values the pipeline would reject
// later, so misconfiguration fails at startup.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return apperr.Config(fmt.Sprintf("unknown storage backend: %q", c.Storage.Backend), nil)
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.Path == "" {
		return apperr.Config("sqlite backend requires storage.path", nil)
	}

	if c.Context.MaxChunkSize <= 0 {
		return apperr.Config("context.max_chunk_size must be positive", nil)
	}
	if c.Context.ChunkOverlap < 0 {
		return apperr.Config("context.chunk_overlap must not be negative", nil)
	}
	if c.Context.ChunkOverlap >= c.Context.MaxChunkSize {
		return apperr.Config("context.chunk_overlap must be smaller than context.max_chunk_size", nil)
	}
	if c.Context.MaxResults <= 0 {
		return apperr.Config("context.max_results must be positive", nil)
	}

	if c.Embedding.Dimension <= 0 {
		return apperr.Config("embedding.dimension must be positive", nil)
	}

	level := strings.ToLower(c.Logging.Level)
	switch level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperr.Config(fmt.Sprintf("unknown log level: %q", c.Logging.Level), nil)
	}

	return nil
}

// defaultDBPath places the sqlite database under the user's home.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ctxd.db"
	}
	return home + "/.ctxd/ctxd.db"
}

// defaultSocketPath places the daemon socket under the user's home.
func defaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/ctxd.sock"
	}
	return home + "/.ctxd/ctxd.sock"
}
