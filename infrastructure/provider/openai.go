package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"
)

// Provider is an OpenAI-compatible client for one endpoint. It implements
// search.Embedder when built from the embedding endpoint and serves chat
// completions when built from the enrichment endpoint.
type Provider struct {
	client        *openai.Client
	model         string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxBatchSize  int
	maxBatchChars int
	httpClient    *http.Client
	logger        *log.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for batch progress and retry warnings.
func WithLogger(logger *log.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client. The endpoint's API
// key and base URL still apply.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// NewProvider creates a Provider from an endpoint configuration.
func NewProvider(endpoint config.Endpoint, opts ...Option) *Provider {
	p := &Provider{
		model:         endpoint.Model(),
		maxRetries:    endpoint.MaxRetries(),
		initialDelay:  endpoint.InitialDelay(),
		backoffFactor: endpoint.BackoffFactor(),
		maxBatchSize:  endpoint.MaxBatchSize(),
		maxBatchChars: endpoint.MaxBatchChars(),
		logger:        log.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	} else {
		cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}
	p.client = openai.NewClientWithConfig(cfg)

	return p
}

// Embed generates one embedding vector per input text, in order. Inputs are
// sent in batches sized by the endpoint's batch limits. A batch that
// exhausts its retries leaves nil at its texts' positions and is reported
// in the returned error; sibling batches still complete. Implements
// search.Embedder.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	vectors := make([][]float64, len(texts))
	var errs []error
	pos := 0
	for _, batch := range p.batches(texts) {
		vecs, err := p.embedBatch(ctx, batch)
		if err != nil {
			errs = append(errs, fmt.Errorf("batch of %d texts: %w", len(batch), err))
			pos += len(batch)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		copy(vectors[pos:], vecs)
		pos += len(batch)
	}
	return vectors, errors.Join(errs...)
}

func (p *Provider) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	// Embedding models treat newlines as significant token boundaries;
	// flattening them improves similarity quality for code and prose alike.
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = strings.ReplaceAll(t, "\n", " ")
	}

	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: input,
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateEmbeddings(ctx, req)
		if callErr != nil {
			return callErr
		}
		if len(resp.Data) == 0 && string(resp.Model) == "" && resp.Usage.TotalTokens == 0 {
			return fmt.Errorf(
				"%w: HTTP 200 with no embedding data, no model, and zero usage",
				errUpstreamProviderFailure,
			)
		}
		if len(resp.Data) != len(input) {
			return fmt.Errorf("%w: got %d vectors for %d texts",
				errEmbeddingCountMismatch, len(resp.Data), len(input))
		}
		return nil
	})
	if err != nil {
		return nil, p.wrapError("embedding", err)
	}

	vectors := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// batches splits texts so that no batch exceeds the endpoint's item count
// or character limits. A single text larger than the character limit still
// forms its own batch.
func (p *Provider) batches(texts []string) [][]string {
	var (
		out   [][]string
		batch []string
		chars int
	)

	for _, t := range texts {
		if len(batch) > 0 && (len(batch) >= p.maxBatchSize || chars+len(t) > p.maxBatchChars) {
			out = append(out, batch)
			batch = nil
			chars = 0
		}
		batch = append(batch, t)
		chars += len(t)
	}
	if len(batch) > 0 {
		out = append(out, batch)
	}
	return out
}

// Complete generates a chat completion and returns the first choice's text.
func (p *Provider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System() != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System(),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User(),
	})

	openaiReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	}
	if req.MaxTokens() > 0 {
		openaiReq.MaxTokens = req.MaxTokens()
	}
	if req.Temperature() > 0 {
		openaiReq.Temperature = req.Temperature()
	}

	var resp openai.ChatCompletionResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, openaiReq)
		return callErr
	})
	if err != nil {
		return "", p.wrapError("completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", NewProviderError("completion", 0, "no choices in response", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// withRetry executes fn with exponential backoff on retryable errors.
func (p *Provider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			p.logger.Warn("provider call failed, retrying",
				"model", p.model, "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable reports whether an error is worth retrying.
func (p *Provider) isRetryable(err error) bool {
	// Partial or empty embedding responses show up under transient load.
	if errors.Is(err, errEmbeddingCountMismatch) || errors.Is(err, errUpstreamProviderFailure) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return true
	}

	return false
}

// wrapError wraps a client error into a ProviderError.
func (p *Provider) wrapError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(op, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(op, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(op, 0, err.Error(), err)
}

var _ search.Embedder = (*Provider)(nil)
