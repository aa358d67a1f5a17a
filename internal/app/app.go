// Package app assembles the application: configuration, database,
// Genkit, retrieval tools and the query pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-lizarazo/coursechat/db"
	"github.com/p-lizarazo/coursechat/internal/config"
	"github.com/p-lizarazo/coursechat/internal/course"
	"github.com/p-lizarazo/coursechat/internal/generator"
	"github.com/p-lizarazo/coursechat/internal/log"
	"github.com/p-lizarazo/coursechat/internal/rag"
	"github.com/p-lizarazo/coursechat/internal/session"
	"github.com/p-lizarazo/coursechat/internal/store"
	"github.com/p-lizarazo/coursechat/internal/tools"
)

// App holds the assembled application components.
type App struct {
	Config *config.Config
	Logger log.Logger
	Pool   *pgxpool.Pool
	RAG    *rag.System

	cleanup []func()
}

// Setup builds the application from configuration: runs migrations,
// opens the connection pool, initializes Genkit with the Google AI
// plugin, registers the retrieval tools and wires the query pipeline.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = log.New(log.Config{})
	}

	a := &App{Config: cfg, Logger: logger}

	pool, err := providePool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	a.cleanup = append(a.cleanup, pool.Close)

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		a.Close()
		return nil, errors.New("initializing genkit with googleai plugin")
	}
	logger.Info("initialized Genkit", "model", cfg.ModelName, "embedder", cfg.EmbedderModel)

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)

	courseStore := store.New(store.NewQueries(pool), embedder, cfg.MaxResults, logger)
	sessions := session.NewStore(cfg.MaxHistory)

	kit, err := tools.NewKit(courseStore, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	toolRefs, err := tools.Register(g, kit)
	if err != nil {
		a.Close()
		return nil, err
	}

	gen, err := generator.New(g, tools.NewExecutor(g, logger), toolRefs, generator.Config{
		ModelName:     cfg.ModelName,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		MaxToolRounds: cfg.MaxToolRounds,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	processor := course.NewProcessor(cfg.ChunkSize, cfg.ChunkOverlap)
	system, err := rag.New(gen, sessions, courseStore, processor, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.RAG = system

	return a, nil
}

// Close releases application resources in reverse setup order.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// providePool runs migrations and opens the PostgreSQL connection pool.
func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
