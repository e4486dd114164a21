package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration shared by the gateway, worker and CLI.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"104857600"` // 100MB in bytes
	MaxPages      int   `env:"MAX_PAGES" envDefault:"1000"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" or "sqlite"
	DBURL         string `env:"DB_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"doc-rater.db"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"` // "nats" (required between gateway and worker)
	QueueURL      string `env:"QUEUE_URL"`

	// Moderation
	OpenAIKey       string  `env:"OPENAI_API_KEY"`
	ModerationModel string  `env:"MODERATION_MODEL" envDefault:"omni-moderation-latest"`
	ClassifierRPS   float64 `env:"CLASSIFIER_RPS" envDefault:"0"` // 0 disables client-side throttling

	// Reasoning providers; OpenRouter wins when both keys are set
	AnthropicKey      string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel    string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	OpenRouterKey     string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" envDefault:"anthropic/claude-3.5-sonnet"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`

	// Rubric reply cache; empty REDIS_ADDR disables it
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RubricCacheTTL time.Duration `env:"RUBRIC_CACHE_TTL" envDefault:"24h"`

	// Chunking
	ChunkMaxTokens     int `env:"CHUNK_MAX_TOKENS" envDefault:"10000"`
	ChunkOverlapTokens int `env:"CHUNK_OVERLAP_TOKENS" envDefault:"1000"`
	CharsPerToken      int `env:"CHARS_PER_TOKEN" envDefault:"4"`

	// Processing
	ProcessingTimeout time.Duration `env:"PROCESSING_TIMEOUT" envDefault:"10m"`

	// Term lists
	TermListSource string `env:"TERM_LIST_SOURCE" envDefault:"store"` // "store", "file" or "default"
	TermListFile   string `env:"TERM_LIST_FILE" envDefault:"terms.yaml"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
