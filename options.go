package vitae

import (
	"time"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/infrastructure/enricher"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"
)

type clientConfig struct {
	app           config.AppConfig
	logger        *log.Logger
	embedder      search.Embedder
	generator     enricher.Generator
	fetcher       project.Fetcher
	workerPoll    time.Duration
	disableWorker bool
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		app:        config.NewAppConfig(),
		workerPoll: time.Second,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig replaces the whole application configuration.
func WithConfig(app config.AppConfig) Option {
	return func(c *clientConfig) { c.app = app }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithEmbedder sets the embedding provider, overriding the configured
// embedding endpoint.
func WithEmbedder(e search.Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithGenerator sets the text generation provider, overriding the
// configured enrichment endpoint.
func WithGenerator(g enricher.Generator) Option {
	return func(c *clientConfig) { c.generator = g }
}

// WithFetcher sets the code host client.
func WithFetcher(f project.Fetcher) Option {
	return func(c *clientConfig) { c.fetcher = f }
}

// WithWorkerPollPeriod sets the queue poll period.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.workerPoll = d
		}
	}
}

// WithoutWorker keeps the background worker stopped. Triggered runs stay
// queued until a worker elsewhere picks them up.
func WithoutWorker() Option {
	return func(c *clientConfig) { c.disableWorker = true }
}
