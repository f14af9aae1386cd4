// Package enricher provides AI-powered content generation: project
// summaries for the coarse vector collection and tailored resume entries
// from retrieved evidence.
package enricher

import (
	"context"
	"strings"

	"github.com/vitae-dev/vitae/infrastructure/provider"
)

// Generator is the slice of the provider surface the enrichers need.
// Satisfied by *provider.Provider.
type Generator interface {
	Complete(ctx context.Context, req provider.CompletionRequest) (string, error)
}

// cleanThinkingTags removes <think>...</think> blocks from model output.
// Some models use these for chain-of-thought reasoning.
func cleanThinkingTags(text string) string {
	result := text
	for {
		start := strings.Index(result, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(result, "</think>")
		if end == -1 {
			result = result[:start] + result[start+len("<think>"):]
			continue
		}
		result = result[:start] + result[end+len("</think>"):]
	}
	return result
}

// stripCodeFence unwraps a markdown code fence when the whole response is
// fenced, which chat models often do for JSON output.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		// Drop the language tag on the opening fence.
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
