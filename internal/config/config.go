// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultWorkerCount           = 1
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxTokens     = 4096
	DefaultEndpointMaxBatchChars = 16000
	DefaultEndpointMaxBatchSize  = 10
	DefaultEmbeddingDimension    = 1536
	DefaultGitHubBaseURL         = "https://api.github.com"
	DefaultGitHubTimeout         = 30 * time.Second
	DefaultGitHubMaxRetries      = 3
	DefaultMaxFileSize           = 200_000
	DefaultChunkMaxChars         = 2000
	DefaultChunkMinChars         = 200
	DefaultResumeTopChunks       = 3
	DefaultResumeStage1Weight    = 0.7
	DefaultResumeStage2Weight    = 0.3
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an AI service endpoint (embedding or generation).
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxTokens     int
	maxBatchChars int
	maxBatchSize  int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxTokens:     DefaultEndpointMaxTokens,
		maxBatchChars: DefaultEndpointMaxBatchChars,
		maxBatchSize:  DefaultEndpointMaxBatchSize,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxTokens returns the maximum token limit for generation.
func (e Endpoint) MaxTokens() int { return e.maxTokens }

// MaxBatchChars returns the maximum total characters per embedding batch.
func (e Endpoint) MaxBatchChars() int { return e.maxBatchChars }

// MaxBatchSize returns the maximum number of texts per embedding batch.
func (e Endpoint) MaxBatchSize() int { return e.maxBatchSize }

// IsConfigured returns true if the endpoint has a model configured.
func (e Endpoint) IsConfigured() bool { return e.model != "" }

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxTokens sets the maximum token limit.
func WithMaxTokens(n int) EndpointOption {
	return func(e *Endpoint) { e.maxTokens = n }
}

// WithMaxBatchChars sets the maximum total characters per embedding batch.
func WithMaxBatchChars(n int) EndpointOption {
	return func(e *Endpoint) { e.maxBatchChars = n }
}

// WithMaxBatchSize sets the maximum texts per embedding batch.
func WithMaxBatchSize(n int) EndpointOption {
	return func(e *Endpoint) { e.maxBatchSize = n }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// GitHubConfig configures the code host client.
type GitHubConfig struct {
	baseURL     string
	timeout     time.Duration
	maxRetries  int
	maxFileSize int64
}

// NewGitHubConfig creates a GitHubConfig with defaults.
func NewGitHubConfig() GitHubConfig {
	return GitHubConfig{
		baseURL:     DefaultGitHubBaseURL,
		timeout:     DefaultGitHubTimeout,
		maxRetries:  DefaultGitHubMaxRetries,
		maxFileSize: DefaultMaxFileSize,
	}
}

// BaseURL returns the API base URL.
func (g GitHubConfig) BaseURL() string { return g.baseURL }

// Timeout returns the request timeout.
func (g GitHubConfig) Timeout() time.Duration { return g.timeout }

// MaxRetries returns the maximum retry count for transient failures.
func (g GitHubConfig) MaxRetries() int { return g.maxRetries }

// MaxFileSize returns the per-file size threshold in bytes.
func (g GitHubConfig) MaxFileSize() int64 { return g.maxFileSize }

// WithGitHubBaseURL returns a config with the given base URL.
func (g GitHubConfig) WithGitHubBaseURL(url string) GitHubConfig {
	g.baseURL = url
	return g
}

// WithGitHubTimeout returns a config with the given timeout.
func (g GitHubConfig) WithGitHubTimeout(d time.Duration) GitHubConfig {
	g.timeout = d
	return g
}

// WithGitHubMaxRetries returns a config with the given retry count.
func (g GitHubConfig) WithGitHubMaxRetries(n int) GitHubConfig {
	g.maxRetries = n
	return g
}

// WithGitHubMaxFileSize returns a config with the given size threshold.
func (g GitHubConfig) WithGitHubMaxFileSize(n int64) GitHubConfig {
	g.maxFileSize = n
	return g
}

// ChunkConfig configures chunk size policy.
type ChunkConfig struct {
	maxChars int
	minChars int
}

// NewChunkConfig creates a ChunkConfig with defaults.
func NewChunkConfig() ChunkConfig {
	return ChunkConfig{
		maxChars: DefaultChunkMaxChars,
		minChars: DefaultChunkMinChars,
	}
}

// MaxChars returns the maximum chunk size in characters.
func (c ChunkConfig) MaxChars() int { return c.maxChars }

// MinChars returns the merge threshold for undersized paragraphs.
func (c ChunkConfig) MinChars() int { return c.minChars }

// WithChunkMaxChars returns a config with the given maximum.
func (c ChunkConfig) WithChunkMaxChars(n int) ChunkConfig {
	c.maxChars = n
	return c
}

// WithChunkMinChars returns a config with the given merge threshold.
func (c ChunkConfig) WithChunkMinChars(n int) ChunkConfig {
	c.minChars = n
	return c
}

// ResumeConfig configures retrieval and scoring policy for resume generation.
type ResumeConfig struct {
	topChunks    int
	stage1Weight float64
	stage2Weight float64
}

// NewResumeConfig creates a ResumeConfig with defaults.
func NewResumeConfig() ResumeConfig {
	return ResumeConfig{
		topChunks:    DefaultResumeTopChunks,
		stage1Weight: DefaultResumeStage1Weight,
		stage2Weight: DefaultResumeStage2Weight,
	}
}

// TopChunks returns the number of chunks retrieved per project (stage 2).
func (r ResumeConfig) TopChunks() int { return r.topChunks }

// Stage1Weight returns the project-similarity weight in the alignment score.
func (r ResumeConfig) Stage1Weight() float64 { return r.stage1Weight }

// Stage2Weight returns the chunk-similarity weight in the alignment score.
func (r ResumeConfig) Stage2Weight() float64 { return r.stage2Weight }

// WithTopChunks returns a config with the given stage-2 chunk count.
func (r ResumeConfig) WithTopChunks(k int) ResumeConfig {
	r.topChunks = k
	return r
}

// WithStageWeights returns a config with the given score weights.
func (r ResumeConfig) WithStageWeights(s1, s2 float64) ResumeConfig {
	r.stage1Weight = s1
	r.stage2Weight = s2
	return r
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	adminAPIKeys       []string
	embeddingEndpoint  *Endpoint
	enrichmentEndpoint *Endpoint
	embeddingDimension int
	github             GitHubConfig
	chunk              ChunkConfig
	resume             ResumeConfig
	workerCount        int
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            DefaultDataDir(),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		embeddingDimension: DefaultEmbeddingDimension,
		github:             NewGitHubConfig(),
		chunk:              NewChunkConfig(),
		resume:             NewResumeConfig(),
		workerCount:        DefaultWorkerCount,
	}
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vitae"
	}
	return filepath.Join(home, ".vitae")
}

// Host returns the server host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port address string.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL. If unset, it defaults to a
// SQLite database inside the data directory.
func (c AppConfig) DBURL() string {
	if c.dbURL != "" {
		return c.dbURL
	}
	return "sqlite:///" + filepath.Join(c.dataDir, "vitae.db")
}

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// AdminAPIKeys returns keys permitted to call user-provisioning endpoints.
func (c AppConfig) AdminAPIKeys() []string {
	keys := make([]string, len(c.adminAPIKeys))
	copy(keys, c.adminAPIKeys)
	return keys
}

// EmbeddingEndpoint returns the embedding endpoint, or nil if unconfigured.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// EnrichmentEndpoint returns the generation endpoint, or nil if unconfigured.
func (c AppConfig) EnrichmentEndpoint() *Endpoint { return c.enrichmentEndpoint }

// EmbeddingDimension returns the configured vector dimension.
func (c AppConfig) EmbeddingDimension() int { return c.embeddingDimension }

// GitHub returns the code host configuration.
func (c AppConfig) GitHub() GitHubConfig { return c.github }

// Chunk returns the chunk size policy.
func (c AppConfig) Chunk() ChunkConfig { return c.chunk }

// Resume returns the resume generation policy.
func (c AppConfig) Resume() ResumeConfig { return c.resume }

// WorkerCount returns the number of background workers.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// EnsureDataDir creates the data directory if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAdminAPIKeys sets the admin API keys.
func WithAdminAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.adminAPIKeys = make([]string, len(keys))
		copy(c.adminAPIKeys, keys)
	}
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithEnrichmentEndpoint sets the generation endpoint.
func WithEnrichmentEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.enrichmentEndpoint = &e }
}

// WithEmbeddingDimension sets the vector dimension.
func WithEmbeddingDimension(dim int) AppConfigOption {
	return func(c *AppConfig) { c.embeddingDimension = dim }
}

// WithGitHubConfig sets the code host configuration.
func WithGitHubConfig(g GitHubConfig) AppConfigOption {
	return func(c *AppConfig) { c.github = g }
}

// WithChunkConfig sets the chunk size policy.
func WithChunkConfig(ch ChunkConfig) AppConfigOption {
	return func(c *AppConfig) { c.chunk = ch }
}

// WithResumeConfig sets the resume generation policy.
func WithResumeConfig(r ResumeConfig) AppConfigOption {
	return func(c *AppConfig) { c.resume = r }
}

// WithWorkerCount sets the number of background workers.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) { c.workerCount = n }
}

// Apply returns a copy of the config with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	cfg := NewAppConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ParseAPIKeys parses a comma-separated key list, trimming whitespace and
// dropping empty entries.
func ParseAPIKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
