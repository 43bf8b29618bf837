package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram
	TelegramToken  string
	PollTimeoutSec int

	// Admin HTTP API
	Port        string
	AdminAPIKey string

	// Claude analysis
	AnthropicAPIKey string
	AnthropicModel  string

	// Storage
	DatabasePath string
	DataDir      string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxFileBytes int64

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// Job state
	JobTTL time.Duration

	// Outbound HTTP (Telegram file downloads)
	HTTPTimeout time.Duration
}

func Load() Config {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		PollTimeoutSec: envInt("POLL_TIMEOUT_SEC", 30),

		Port:        envOr("PORT", "8080"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-3-5-sonnet"),

		DatabasePath: envOr("DATABASE_PATH", "data/retain.db"),
		DataDir:      envOr("DATA_DIR", "data/books"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxFileBytes: envInt64("MAX_FILE_BYTES", 20971520), // 20MB, the bot API download limit

		DefaultChunkSize:    envInt("CHUNK_SIZE", 1024),
		DefaultChunkOverlap: envInt("CHUNK_OVERLAP", 200),

		JobTTL: envDuration("JOB_TTL", 6*time.Hour),

		HTTPTimeout: envDuration("HTTP_TIMEOUT", 60*time.Second),
	}

	if cfg.PollTimeoutSec <= 0 {
		cfg.PollTimeoutSec = 30
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 20971520
	}
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = 1024
	}
	if cfg.DefaultChunkOverlap < 0 {
		cfg.DefaultChunkOverlap = 200
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 6 * time.Hour
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 60 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	if c.DefaultChunkOverlap >= c.DefaultChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			c.DefaultChunkOverlap, c.DefaultChunkSize)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
