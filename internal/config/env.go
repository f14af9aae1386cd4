package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiters (e.g. EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.vitae
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/vitae.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// AdminAPIKeys is a comma-separated list of keys permitted to
	// provision users.
	// Env: ADMIN_API_KEYS
	AdminAPIKeys string `envconfig:"ADMIN_API_KEYS"`

	// EmbeddingEndpoint configures the embedding AI service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// EnrichmentEndpoint configures the summarization/generation AI service.
	EnrichmentEndpoint EndpointEnv `envconfig:"ENRICHMENT_ENDPOINT"`

	// EmbeddingDimension is the vector dimension of the embedding model.
	// Env: EMBEDDING_DIMENSION (default: 1536)
	EmbeddingDimension int `envconfig:"EMBEDDING_DIMENSION" default:"1536"`

	// GitHub configures the code host client.
	GitHub GitHubEnv `envconfig:"GITHUB"`

	// Chunk configures chunk size policy.
	Chunk ChunkEnv `envconfig:"CHUNK"`

	// Resume configures retrieval and scoring policy.
	Resume ResumeEnv `envconfig:"RESUME"`

	// WorkerCount is the number of background workers.
	// Env: WORKER_COUNT (default: 1)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"1"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g. text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxTokens is the maximum token limit for generation.
	// Env: *_MAX_TOKENS (default: 4096)
	MaxTokens int `envconfig:"MAX_TOKENS" default:"4096"`

	// MaxBatchChars is the maximum total characters per embedding batch.
	// Env: *_MAX_BATCH_CHARS (default: 16000)
	MaxBatchChars int `envconfig:"MAX_BATCH_CHARS" default:"16000"`

	// MaxBatchSize is the maximum number of texts per embedding batch.
	// Env: *_MAX_BATCH_SIZE (default: 10)
	MaxBatchSize int `envconfig:"MAX_BATCH_SIZE" default:"10"`
}

// GitHubEnv holds environment configuration for the code host client.
type GitHubEnv struct {
	// BaseURL is the API base URL (override for GitHub Enterprise or tests).
	// Env: GITHUB_BASE_URL (default: https://api.github.com)
	BaseURL string `envconfig:"BASE_URL" default:"https://api.github.com"`

	// Timeout is the request timeout in seconds.
	// Env: GITHUB_TIMEOUT (default: 30)
	Timeout float64 `envconfig:"TIMEOUT" default:"30"`

	// MaxRetries is the maximum retry count for transient failures.
	// Env: GITHUB_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// MaxFileSize is the per-file size threshold in bytes.
	// Env: GITHUB_MAX_FILE_SIZE (default: 200000)
	MaxFileSize int64 `envconfig:"MAX_FILE_SIZE" default:"200000"`
}

// ChunkEnv holds environment configuration for chunk sizing.
type ChunkEnv struct {
	// MaxChars is the maximum chunk size in characters.
	// Env: CHUNK_MAX_CHARS (default: 2000)
	MaxChars int `envconfig:"MAX_CHARS" default:"2000"`

	// MinChars is the merge threshold for undersized paragraphs.
	// Env: CHUNK_MIN_CHARS (default: 200)
	MinChars int `envconfig:"MIN_CHARS" default:"200"`
}

// ResumeEnv holds environment configuration for resume generation policy.
type ResumeEnv struct {
	// TopChunks is the number of chunks retrieved per project in stage 2.
	// Env: RESUME_TOP_CHUNKS (default: 3)
	TopChunks int `envconfig:"TOP_CHUNKS" default:"3"`

	// Stage1Weight is the project-similarity weight in the alignment score.
	// Env: RESUME_STAGE1_WEIGHT (default: 0.7)
	Stage1Weight float64 `envconfig:"STAGE1_WEIGHT" default:"0.7"`

	// Stage2Weight is the chunk-similarity weight in the alignment score.
	// Env: RESUME_STAGE2_WEIGHT (default: 0.3)
	Stage2Weight float64 `envconfig:"STAGE2_WEIGHT" default:"0.3"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := []AppConfigOption{
		WithHost(e.Host),
		WithPort(e.Port),
		WithLogLevel(e.LogLevel),
		WithLogFormat(parseLogFormat(e.LogFormat)),
		WithEmbeddingDimension(e.EmbeddingDimension),
		WithGitHubConfig(e.GitHub.ToGitHubConfig()),
		WithChunkConfig(e.Chunk.ToChunkConfig()),
		WithResumeConfig(e.Resume.ToResumeConfig()),
		WithWorkerCount(e.WorkerCount),
	}

	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.AdminAPIKeys != "" {
		opts = append(opts, WithAdminAPIKeys(ParseAPIKeys(e.AdminAPIKeys)))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}
	if e.EnrichmentEndpoint.IsConfigured() {
		opts = append(opts, WithEnrichmentEndpoint(e.EnrichmentEndpoint.ToEndpoint()))
	}

	return NewAppConfigWithOptions(opts...)
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxTokens(e.MaxTokens),
		WithMaxBatchChars(e.MaxBatchChars),
		WithMaxBatchSize(e.MaxBatchSize),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

// ToGitHubConfig converts GitHubEnv to GitHubConfig.
func (g GitHubEnv) ToGitHubConfig() GitHubConfig {
	return NewGitHubConfig().
		WithGitHubBaseURL(g.BaseURL).
		WithGitHubTimeout(time.Duration(g.Timeout * float64(time.Second))).
		WithGitHubMaxRetries(g.MaxRetries).
		WithGitHubMaxFileSize(g.MaxFileSize)
}

// ToChunkConfig converts ChunkEnv to ChunkConfig.
func (c ChunkEnv) ToChunkConfig() ChunkConfig {
	return NewChunkConfig().
		WithChunkMaxChars(c.MaxChars).
		WithChunkMinChars(c.MinChars)
}

// ToResumeConfig converts ResumeEnv to ResumeConfig.
func (r ResumeEnv) ToResumeConfig() ResumeConfig {
	return NewResumeConfig().
		WithTopChunks(r.TopChunks).
		WithStageWeights(r.Stage1Weight, r.Stage2Weight)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	if s == "json" || s == "JSON" {
		return LogFormatJSON
	}
	return LogFormatPretty
}
