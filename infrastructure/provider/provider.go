// Package provider implements the OpenAI-compatible client used for both
// embedding and text generation. A single Provider is built from a
// config.Endpoint, so the embedding and enrichment endpoints can point at
// different models or different hosts.
package provider

import (
	"errors"
	"fmt"
)

// errEmbeddingCountMismatch indicates the API returned a different number of
// embedding vectors than texts submitted. Treated as retryable because some
// upstream providers return partial responses under load.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// errUpstreamProviderFailure indicates the API returned HTTP 200 but the
// body carried no data at all. Routing providers (e.g. OpenRouter) do this
// when the upstream model is down, and the client library parses the error
// body as an empty success.
var errUpstreamProviderFailure = errors.New("upstream provider failure")

// ProviderError wraps an error from the AI endpoint with the operation that
// failed and the HTTP status code when one is known.
type ProviderError struct {
	op         string
	statusCode int
	message    string
	err        error
}

// NewProviderError creates a ProviderError.
func NewProviderError(op string, statusCode int, message string, err error) *ProviderError {
	return &ProviderError{op: op, statusCode: statusCode, message: message, err: err}
}

// Op returns the operation that failed ("embedding" or "completion").
func (e *ProviderError) Op() string { return e.op }

// StatusCode returns the HTTP status code, or 0 when unknown.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.statusCode != 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.op, e.statusCode, e.message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.op, e.message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.err }

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	system      string
	user        string
	temperature float32
	maxTokens   int
}

// NewCompletionRequest creates a CompletionRequest with a system prompt and
// a user message. Temperature and max tokens default to the provider's
// settings.
func NewCompletionRequest(system, user string) CompletionRequest {
	return CompletionRequest{system: system, user: user}
}

// WithTemperature returns a copy with the sampling temperature set.
func (r CompletionRequest) WithTemperature(t float32) CompletionRequest {
	r.temperature = t
	return r
}

// WithMaxTokens returns a copy with the completion token limit set.
func (r CompletionRequest) WithMaxTokens(n int) CompletionRequest {
	r.maxTokens = n
	return r
}

// System returns the system prompt.
func (r CompletionRequest) System() string { return r.system }

// User returns the user message.
func (r CompletionRequest) User() string { return r.user }

// Temperature returns the sampling temperature, 0 meaning provider default.
func (r CompletionRequest) Temperature() float32 { return r.temperature }

// MaxTokens returns the completion token limit, 0 meaning provider default.
func (r CompletionRequest) MaxTokens() int { return r.maxTokens }
