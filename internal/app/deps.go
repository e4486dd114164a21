package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"doc-rater/internal/cache"
	"doc-rater/internal/chunker"
	"doc-rater/internal/classifier"
	"doc-rater/internal/config"
	"doc-rater/internal/extract"
	"doc-rater/internal/llm"
	"doc-rater/internal/logger"
	"doc-rater/internal/pipeline"
	"doc-rater/internal/queue"
	"doc-rater/internal/rubric"
	"doc-rater/internal/store"
	"doc-rater/internal/terms"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
}

// WorkerDeps adds the rating pipeline to Deps.
type WorkerDeps struct {
	Deps
	Pipeline *pipeline.Orchestrator
	Terms    terms.Source
	Cache    cache.Cache
}

// Close releases the connections held by d.
func (d Deps) Close() {
	if d.Queue != nil {
		if err := d.Queue.Close(); err != nil {
			d.Log.Warn("failed to drain queue", "err", err)
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Log.Warn("failed to close store", "err", err)
		}
	}
}

// LoadEnv reads .env when present and parses the config.
func LoadEnv() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

// Build loads env, config, and the components the gateway needs.
func Build() (Deps, error) {
	cfg, err := LoadEnv()
	if err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel)

	st, err := BuildStore(context.Background(), cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		st.Close()
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return Deps{Config: cfg, Log: log, Store: st, Queue: q}, nil
}

// BuildWorker builds everything Build does plus the rating pipeline. A missing
// reasoning provider is a start-up error.
func BuildWorker() (WorkerDeps, error) {
	deps, err := Build()
	if err != nil {
		return WorkerDeps{}, err
	}
	orch, src, c, err := BuildPipeline(deps.Config, deps.Log, deps.Store)
	if err != nil {
		deps.Close()
		return WorkerDeps{}, err
	}
	return WorkerDeps{Deps: deps, Pipeline: orch, Terms: src, Cache: c}, nil
}

// BuildPipeline wires the classifier, reasoner, reply cache and term source
// into an Orchestrator over st.
func BuildPipeline(cfg config.Config, log *slog.Logger, st store.Store) (*pipeline.Orchestrator, terms.Source, cache.Cache, error) {
	cls, err := buildClassifier(cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}
	reasoner, err := llm.New(llm.Settings{
		AnthropicKey:      cfg.AnthropicKey,
		AnthropicModel:    cfg.AnthropicModel,
		OpenRouterKey:     cfg.OpenRouterKey,
		OpenRouterModel:   cfg.OpenRouterModel,
		OpenRouterBaseURL: cfg.OpenRouterBaseURL,
	}, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize reasoning provider: %w", err)
	}
	log.Info("using reasoning provider", "provider", reasoner.Name())

	c := BuildCache(cfg, log)
	src, err := BuildTermSource(cfg, log, st)
	if err != nil {
		c.Close()
		return nil, nil, nil, fmt.Errorf("failed to initialize term lists: %w", err)
	}

	mapper := rubric.NewLLMMapper(reasoner, c, cfg.RubricCacheTTL, log)
	orch := pipeline.NewOrchestrator(st, cls, mapper, src, PipelineOptions(cfg), log)
	return orch, src, c, nil
}

// PipelineOptions maps config onto chunking and extraction limits.
func PipelineOptions(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		Chunking: chunker.Options{
			MaxTokens:     cfg.ChunkMaxTokens,
			OverlapTokens: cfg.ChunkOverlapTokens,
			CharsPerToken: cfg.CharsPerToken,
		},
		Extract: extract.Options{MaxPages: cfg.MaxPages},
	}
}

func BuildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "sqlite":
		db, err := store.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		log.Info("using SQLite store", "path", cfg.SQLitePath)
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: postgres, sqlite)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildClassifier(cfg config.Config, log *slog.Logger) (classifier.Classifier, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for moderation")
	}
	m, err := classifier.NewOpenAIModerator(cfg.OpenAIKey, openai.ModerationModel(cfg.ModerationModel), cfg.ClassifierRPS)
	if err != nil {
		return nil, err
	}
	log.Info("using OpenAI moderation", "model", cfg.ModerationModel, "rps", cfg.ClassifierRPS)
	return m, nil
}

// BuildCache returns a Redis reply cache when REDIS_ADDR is set. An unreachable
// Redis degrades to no caching instead of failing start-up.
func BuildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		log.Info("rubric cache disabled")
		return cache.NewNoOpCache()
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, rubric cache disabled", "addr", cfg.RedisAddr, "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis rubric cache", "addr", cfg.RedisAddr, "ttl", cfg.RubricCacheTTL)
	return c
}

// BuildTermSource picks where the scanner's term lists come from.
func BuildTermSource(cfg config.Config, log *slog.Logger, st store.Store) (terms.Source, error) {
	switch cfg.TermListSource {
	case "store":
		log.Info("using stored term lists")
		return terms.NewStoreSource(st), nil
	case "file":
		src, err := terms.NewFileSource(cfg.TermListFile, log)
		if err != nil {
			return nil, err
		}
		log.Info("using term list file", "path", cfg.TermListFile)
		return src, nil
	case "default":
		log.Info("using built-in term lists")
		return terms.NewStaticSource(nil), nil
	default:
		return nil, fmt.Errorf("invalid TERM_LIST_SOURCE: %s (valid options: store, file, default)", cfg.TermListSource)
	}
}
