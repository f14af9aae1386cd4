package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitae-dev/vitae"
	"github.com/vitae-dev/vitae/infrastructure/api"
	v1 "github.com/vitae-dev/vitae/infrastructure/api/v1"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.vitae)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/vitae.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  ADMIN_API_KEYS               Comma-separated keys for user provisioning
  WORKER_COUNT                 Background workers (default: 1)

  EMBEDDING_ENDPOINT_*         Embedding service configuration
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds
    MAX_RETRIES                Retry attempts

  ENRICHMENT_ENDPOINT_*        Generation service configuration
    (same fields as EMBEDDING_ENDPOINT)

  EMBEDDING_DIMENSION          Vector dimension (default: 1536)
  GITHUB_*                     Code host fetch policy (BASE_URL, TIMEOUT,
                               MAX_RETRIES, MAX_FILE_SIZE)
  CHUNK_MAX_CHARS              Chunk budget in characters (default: 2000)
  CHUNK_MIN_CHARS              Paragraph merge threshold (default: 200)
  RESUME_TOP_CHUNKS            Stage-2 chunks per project (default: 3)
  RESUME_STAGE1_WEIGHT         Project similarity weight (default: 0.7)
  RESUME_STAGE2_WEIGHT         Chunk similarity weight (default: 0.3)`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.NewLogger(&cfg)
	logger.Info("starting vitae", "version", version, "addr", cfg.Addr())

	client, err := vitae.New(
		vitae.WithConfig(cfg),
		vitae.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create vitae client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close client", "error", err)
		}
	}()

	server := api.NewServer(cfg.Addr(), logger)
	v1.Mount(server.Router(), client)
	server.Router().Get("/health", healthHandler)
	server.Router().Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"name":"vitae","version":"%s"}`, version)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption
	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}
	return cfg.Apply(opts...)
}
