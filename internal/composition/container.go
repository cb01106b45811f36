// Package composition is the recommendation engine's composition root: it
// loads configuration, opens the catalog database, builds the embedding
// client, and wires every collaborator the MCP server and CLI entrypoints
// need into a single Container, following the teacher's own
// internal/composition/container.go shape (one struct, one NewContainer).
package composition

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"movie-recommend-engine/internal/catalog"
	"movie-recommend-engine/internal/config"
	"movie-recommend-engine/internal/embedding"
	"movie-recommend-engine/internal/mcp/resources"
	"movie-recommend-engine/internal/mcp/tools"
	"movie-recommend-engine/internal/recommend"
	"movie-recommend-engine/pkg/health"
	"movie-recommend-engine/pkg/logging"
	"movie-recommend-engine/pkg/metrics"
	"movie-recommend-engine/pkg/timeout"
)

// Container holds every wired dependency the recommendation engine's
// entrypoints (cmd/server-sdk, cmd/recommend-cli) need.
type Container struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Timeout *timeout.Manager
	Health  *health.Manager

	DB    *sql.DB
	Store *catalog.Store

	Embedder *embedding.HTTPEmbedder
	Engine   *recommend.Engine

	RecommendTools     *tools.RecommendTools
	PipelineResources  *resources.PipelineResources
}

// NewContainer loads configuration and wires up every dependency. It opens
// the catalog's sqlite database and performs the startup bulk load; a
// failure at any step is fatal since the pipeline cannot serve a single
// request without a loaded catalog.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("composition: load config: %w", err)
	}

	logger := logging.New(logging.LogLevel(cfg.LogLevel))
	m := metrics.NewMetrics(logger, 0)
	timeoutMgr := timeout.NewManager(timeout.DefaultTimeoutConfig(), logger)

	db, err := sql.Open("sqlite", cfg.Catalog.DSN)
	if err != nil {
		return nil, fmt.Errorf("composition: open catalog db: %w", err)
	}

	loadCtx, cancel := timeoutMgr.WithCatalogLoadTimeout(ctx)
	defer cancel()

	snapshot, err := catalog.LoadAll(loadCtx, db, cfg.EmbeddingProvider.Dimension)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("composition: load catalog: %w", err)
	}
	store := catalog.NewStore(snapshot)

	embedder := embedding.NewHTTPEmbedder(cfg.EmbeddingProvider.BaseURL)

	engine := recommend.New(store, embedder, cfg, logger, m)

	healthMgr := health.NewManager(logger, "dev")
	healthMgr.RegisterChecker("catalog", health.NewCatalogChecker(store.Load()))
	healthMgr.RegisterChecker("embedding_provider", health.NewEmbeddingProviderChecker(embedder))

	return &Container{
		Config:            cfg,
		Logger:            logger,
		Metrics:           m,
		Timeout:           timeoutMgr,
		Health:            healthMgr,
		DB:                db,
		Store:             store,
		Embedder:          embedder,
		Engine:            engine,
		RecommendTools:    tools.NewRecommendTools(engine, logger),
		PipelineResources: resources.NewPipelineResources(m),
	}, nil
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
