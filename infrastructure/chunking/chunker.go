// Package chunking splits classified content into bounded-size chunks:
// syntax-aware boundaries for code, paragraph boundaries for text, and a
// fixed window as the universal fallback.
package chunking

import (
	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/internal/config"
)

// Chunker produces ordered chunk texts from one classified unit.
type Chunker struct {
	maxChars int
	minChars int
}

// NewChunker creates a Chunker from the chunk configuration.
func NewChunker(cfg config.ChunkConfig) Chunker {
	maxChars := cfg.MaxChars()
	if maxChars <= 0 {
		maxChars = config.DefaultChunkMaxChars
	}
	minChars := cfg.MinChars()
	if minChars < 0 {
		minChars = 0
	}
	return Chunker{maxChars: maxChars, minChars: minChars}
}

// ChunkFile splits a repository file according to its classification.
func (c Chunker) ChunkFile(f project.RepositoryFile) []string {
	if f.Class() == project.ClassCode {
		return c.ChunkCode(f.Content(), f.Language())
	}
	return c.ChunkText(f.Content())
}

// ChunkCode splits source code on top-level declaration boundaries for
// supported languages. Unsupported languages, parse failures, and files
// with no matching declarations fall back to the fixed window.
func (c Chunker) ChunkCode(content, language string) []string {
	if content == "" {
		return nil
	}

	lang, ok := languageFor(language)
	if !ok {
		return fixedWindow(content, c.maxChars)
	}

	chunks, err := declarationChunks(content, lang)
	if err != nil || len(chunks) == 0 {
		return fixedWindow(content, c.maxChars)
	}

	// Declarations larger than the budget are window-split in place so
	// every chunk respects the size bound.
	var out []string
	for _, chunk := range chunks {
		if len(chunk) > c.maxChars {
			out = append(out, fixedWindow(chunk, c.maxChars)...)
		} else {
			out = append(out, chunk)
		}
	}
	return out
}

// ChunkText splits prose on blank-line paragraph boundaries, merging
// undersized adjacent paragraphs and window-splitting oversized ones while
// preserving original order.
func (c Chunker) ChunkText(content string) []string {
	return paragraphChunks(content, c.maxChars, c.minChars)
}
