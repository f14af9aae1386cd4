package enricher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vitae-dev/vitae/infrastructure/provider"
	"github.com/vitae-dev/vitae/internal/log"
)

const summarySystemPrompt = "You are an expert software engineer. " +
	"Given the following project content (code, README, user ramble, etc.), " +
	"write a detailed, technology-rich summary of the project. " +
	"Highlight the main technologies, architecture, notable features, " +
	"and what makes the project interesting."

// Summarizer defaults. The prompt budget bounds what a single completion
// sees of large repositories.
const (
	DefaultSummaryMaxChars  = 16000
	DefaultSummaryMaxTokens = 4096
)

const summaryTemperature = 0.3

// Summarizer generates a project summary from classified project content.
type Summarizer struct {
	generator Generator
	maxChars  int
	maxTokens int
	logger    *log.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(generator Generator, logger *log.Logger) *Summarizer {
	return &Summarizer{
		generator: generator,
		maxChars:  DefaultSummaryMaxChars,
		maxTokens: DefaultSummaryMaxTokens,
		logger:    logger,
	}
}

// WithMaxChars sets the prompt character budget.
func (s *Summarizer) WithMaxChars(n int) *Summarizer {
	s.maxChars = n
	return s
}

// WithMaxTokens sets the completion token limit.
func (s *Summarizer) WithMaxTokens(n int) *Summarizer {
	s.maxTokens = n
	return s
}

// Summarize joins the content parts, truncates them to the prompt budget
// and asks the model for a summary. Callers order parts by importance:
// ramble and informational text first, code after, so truncation drops
// code excerpts before it drops the human-written context.
func (s *Summarizer) Summarize(ctx context.Context, parts []string) (string, error) {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return "", errors.New("no content to summarize")
	}

	joined := strings.Join(nonEmpty, "\n\n")
	if len(joined) > s.maxChars {
		joined = joined[:s.maxChars]
	}

	req := provider.NewCompletionRequest(summarySystemPrompt, joined).
		WithTemperature(summaryTemperature).
		WithMaxTokens(s.maxTokens)

	content, err := s.generator.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	summary := strings.TrimSpace(cleanThinkingTags(content))
	if summary == "" {
		return "", errors.New("model returned an empty summary")
	}

	s.logger.Debug("generated project summary", "prompt_chars", len(joined), "summary_chars", len(summary))
	return summary, nil
}
