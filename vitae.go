// Package vitae wires the resume-tailoring system together: GitHub
// ingestion, fingerprint-based change detection, syntax-aware chunking,
// two-granularity embeddings, async processing runs, and two-stage RAG
// resume generation.
package vitae

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vitae-dev/vitae/application/handler"
	"github.com/vitae-dev/vitae/application/service"
	domainsearch "github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/infrastructure/chunking"
	"github.com/vitae-dev/vitae/infrastructure/enricher"
	"github.com/vitae-dev/vitae/infrastructure/github"
	"github.com/vitae-dev/vitae/infrastructure/persistence"
	"github.com/vitae-dev/vitae/infrastructure/provider"
	"github.com/vitae-dev/vitae/infrastructure/search"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
)

// ErrNoEmbedder indicates no embedding provider is configured; ingestion
// and retrieval cannot run without one.
var ErrNoEmbedder = errors.New("no embedding provider configured")

// ErrNoGenerator indicates no text generation provider is configured;
// summaries and resume entries cannot be generated without one.
var ErrNoGenerator = errors.New("no generation provider configured")

// Client owns the stores, services, and background worker. Create one with
// New and release it with Close.
type Client struct {
	Users    *service.UserService
	Projects *service.ProjectService
	Runs     *service.RunService
	Resume   *service.ResumeService
	Tasks    *service.Queue

	db       database.Database
	vectors  domainsearch.VectorStore
	registry *service.Registry
	worker   *service.Worker
	app      config.AppConfig
	logger   *log.Logger
	closed   atomic.Bool
}

// New creates a Client and starts its background worker.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	app := cfg.app

	logger := cfg.logger
	if logger == nil {
		logger = log.NewLogger(&app)
	}

	if err := app.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, app.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(ctx, db); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), db.Close())
	}

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	vectors, err := search.NewVectorStore(ctx, db, app.EmbeddingDimension(), logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create vector store: %w", err), db.Close())
	}

	fetcher := cfg.fetcher
	if fetcher == nil {
		fetcher = github.NewClient(app.GitHub(), github.WithLogger(logger))
	}

	users := persistence.NewUserStore(db)
	projects := persistence.NewProjectStore(db)
	files := persistence.NewFileStore(db)
	chunks := persistence.NewChunkStore(db)
	runs := persistence.NewRunStore(db)
	tasks := persistence.NewTaskStore(db)

	queue := service.NewQueue(tasks, logger)
	summarizer := enricher.NewSummarizer(generator, logger)
	writer := enricher.NewResumeWriter(generator, logger)
	chunker := chunking.NewChunker(app.Chunk())

	c := &Client{
		Users:    service.NewUserService(users, logger),
		Projects: service.NewProjectService(projects, files, chunks, fetcher, logger),
		Runs:     service.NewRunService(runs, queue, logger),
		Resume: service.NewResumeService(
			projects, chunks, vectors, embedder, writer, app.Resume(), logger),
		Tasks:    queue,
		db:       db,
		vectors:  vectors,
		registry: service.NewRegistry(),
		app:      app,
		logger:   logger,
	}

	c.registry.Register(task.OperationProcessRun, handler.NewProcessRun(
		runs, users, projects, files, chunks,
		fetcher, chunker, embedder, vectors, summarizer, logger,
	))
	c.registry.Register(task.OperationSyncProjects, handler.NewSyncProjects(
		users, c.Projects, logger,
	))

	if !cfg.disableWorker {
		c.worker = service.NewWorker(tasks, c.registry, logger).
			WithPollPeriod(cfg.workerPoll).
			WithCount(app.WorkerCount())
		c.worker.Start(ctx)
	}

	return c, nil
}

func buildEmbedder(cfg *clientConfig, logger *log.Logger) (domainsearch.Embedder, error) {
	if cfg.embedder != nil {
		return cfg.embedder, nil
	}
	endpoint := cfg.app.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil, ErrNoEmbedder
	}
	return provider.NewProvider(*endpoint, provider.WithLogger(logger)), nil
}

func buildGenerator(cfg *clientConfig, logger *log.Logger) (enricher.Generator, error) {
	if cfg.generator != nil {
		return cfg.generator, nil
	}
	endpoint := cfg.app.EnrichmentEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil, ErrNoGenerator
	}
	return provider.NewProvider(*endpoint, provider.WithLogger(logger)), nil
}

// Close stops the worker and releases the database. Safe to call twice.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.worker != nil {
		c.worker.Stop()
	}
	return c.db.Close()
}

// Config returns the active application configuration.
func (c *Client) Config() config.AppConfig {
	return c.app
}

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger {
	return c.logger
}

// VectorStore returns the hybrid vector index.
func (c *Client) VectorStore() domainsearch.VectorStore {
	return c.vectors
}
