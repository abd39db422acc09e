package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"docqa/internal/apperrors"
)

// Vector backends selectable via VECTOR_BACKEND.
const (
	BackendLocal    = "local"
	BackendQdrant   = "qdrant"
	BackendPgvector = "pgvector"
)

// Config holds all configuration for the application.
type Config struct {
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	EmbeddingModelName  string
	EmbeddingDimensions int
	EmbedRateLimit      float64
	LLMModelName        string
	LLMMaxTokens        int

	DataDir    string
	IndexPath  string
	MetaPath   string
	PromptPath string

	ChunkSize              int
	ChunkOverlap           int
	ChunkMinTrailingTokens int
	TopK                   int
	HistoryLimit           int

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string
	PgvectorDSN      string
	PgvectorTable    string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric ranges.
// If a .env file exists in the current directory or a parent directory, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
//
// OPENAI_API_KEY is not required here: components that call the remote service
// report a missing credential themselves.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:      strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMModelName:       getEnv("LLM_MODEL", "gpt-4-turbo"),
		DataDir:            getEnv("DATA_DIR", "./data"),
		IndexPath:          getEnv("INDEX_PATH", "./docqa.index"),
		MetaPath:           getEnv("META_PATH", "./docqa_meta.db"),
		PromptPath:         getEnv("PROMPT_PATH", "./prompts.json"),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", BackendLocal)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "docqa"),
		PgvectorDSN:        getEnv("PGVECTOR_DSN", ""),
		PgvectorTable:      getEnv("PGVECTOR_TABLE", "docqa_chunks"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	ints := []struct {
		key  string
		def  int
		min  int
		dest *int
	}{
		{"EMBEDDING_DIMENSIONS", 0, 0, &cfg.EmbeddingDimensions},
		{"LLM_MAX_TOKENS", 500, 1, &cfg.LLMMaxTokens},
		{"CHUNK_SIZE", 500, 1, &cfg.ChunkSize},
		{"CHUNK_OVERLAP", 50, 0, &cfg.ChunkOverlap},
		{"CHUNK_MIN_TRAILING_TOKENS", 0, 0, &cfg.ChunkMinTrailingTokens},
		{"TOP_K", 5, 1, &cfg.TopK},
		{"HISTORY_LIMIT", 50, 1, &cfg.HistoryLimit},
	}
	for _, opt := range ints {
		v, err := getEnvInt(opt.key, opt.def)
		if err != nil {
			return nil, err
		}
		if v < opt.min {
			return nil, apperrors.New(apperrors.ErrConfiguration, "%s must be at least %d, got %d", opt.key, opt.min, v)
		}
		*opt.dest = v
	}

	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, apperrors.New(apperrors.ErrConfiguration,
			"CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	rateStr := getEnv("EMBED_RATE_LIMIT", "0")
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate < 0 {
		return nil, apperrors.New(apperrors.ErrConfiguration, "EMBED_RATE_LIMIT must be a non-negative number, got %q", rateStr)
	}
	cfg.EmbedRateLimit = rate

	switch cfg.VectorBackend {
	case BackendLocal, BackendQdrant:
	case BackendPgvector:
		if cfg.PgvectorDSN == "" {
			return nil, apperrors.New(apperrors.ErrConfiguration, "PGVECTOR_DSN is required when VECTOR_BACKEND=pgvector")
		}
	default:
		return nil, apperrors.New(apperrors.ErrConfiguration, "unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, apperrors.New(apperrors.ErrConfiguration, "LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// HasCredential reports whether an API key is configured.
func (c *Config) HasCredential() bool {
	return c.OpenAIAPIKey != ""
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable, falling back to defaultValue when unset.
func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a valid integer: %w", apperrors.ErrConfiguration, key, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, apperrors.New(apperrors.ErrConfiguration, "unknown LOG_LEVEL %q", s)
	}
}
