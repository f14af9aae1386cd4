package enricher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vitae-dev/vitae/infrastructure/provider"
	"github.com/vitae-dev/vitae/internal/log"
)

const resumeSystemPrompt = "You are an expert resume writer. " +
	"You will be given a job description, a project summary, and code or documentation excerpts " +
	"from that project. Write a resume entry for the project tailored to the job description. " +
	"Only state facts supported by the provided summary and excerpts; never invent technologies, " +
	"metrics, or features that do not appear in them. " +
	"Respond with strict JSON and nothing else, in the shape: " +
	`{"title": "...", "bullets": ["...", "..."], "technologies": ["...", "..."]}. ` +
	"Write 3 to 4 bullets, each a single achievement-oriented sentence."

const (
	resumeTemperature      = 0.3
	defaultResumeMaxTokens = 1024
)

// ErrMalformedEntry indicates the model's response could not be parsed into
// a resume entry. Callers omit the project rather than failing the request.
var ErrMalformedEntry = errors.New("malformed resume entry")

// EntryDraft is the generated content for one project, before scoring and
// ranking attach to it.
type EntryDraft struct {
	title        string
	bullets      []string
	technologies []string
}

// NewEntryDraft creates an EntryDraft.
func NewEntryDraft(title string, bullets, technologies []string) EntryDraft {
	b := make([]string, len(bullets))
	copy(b, bullets)
	tech := make([]string, len(technologies))
	copy(tech, technologies)
	return EntryDraft{title: title, bullets: b, technologies: tech}
}

// Title returns the generated entry title.
func (d EntryDraft) Title() string { return d.title }

// Bullets returns the generated bullet points.
func (d EntryDraft) Bullets() []string {
	cp := make([]string, len(d.bullets))
	copy(cp, d.bullets)
	return cp
}

// Technologies returns the generated technology list.
func (d EntryDraft) Technologies() []string {
	cp := make([]string, len(d.technologies))
	copy(cp, d.technologies)
	return cp
}

// ResumeWriter generates one resume entry per project from retrieved
// evidence.
type ResumeWriter struct {
	generator Generator
	maxTokens int
	logger    *log.Logger
}

// NewResumeWriter creates a ResumeWriter.
func NewResumeWriter(generator Generator, logger *log.Logger) *ResumeWriter {
	return &ResumeWriter{
		generator: generator,
		maxTokens: defaultResumeMaxTokens,
		logger:    logger,
	}
}

// WithMaxTokens sets the completion token limit.
func (w *ResumeWriter) WithMaxTokens(n int) *ResumeWriter {
	w.maxTokens = n
	return w
}

// Write generates a resume entry for one project. The summary and chunks
// are the only material the model may draw from.
func (w *ResumeWriter) Write(ctx context.Context, jobDescription, summary string, chunks []string) (EntryDraft, error) {
	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nProject summary:\n")
	b.WriteString(summary)
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "\n\nExcerpt %d:\n%s", i+1, chunk)
	}

	req := provider.NewCompletionRequest(resumeSystemPrompt, b.String()).
		WithTemperature(resumeTemperature).
		WithMaxTokens(w.maxTokens)

	content, err := w.generator.Complete(ctx, req)
	if err != nil {
		return EntryDraft{}, fmt.Errorf("generate resume entry: %w", err)
	}

	draft, err := parseEntry(content)
	if err != nil {
		w.logger.Warn("discarding unparseable resume entry", "error", err)
		return EntryDraft{}, err
	}
	return draft, nil
}

func parseEntry(content string) (EntryDraft, error) {
	cleaned := stripCodeFence(cleanThinkingTags(content))

	var raw struct {
		Title        string   `json:"title"`
		Bullets      []string `json:"bullets"`
		Technologies []string `json:"technologies"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return EntryDraft{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	if strings.TrimSpace(raw.Title) == "" {
		return EntryDraft{}, fmt.Errorf("%w: missing title", ErrMalformedEntry)
	}

	var bullets []string
	for _, bullet := range raw.Bullets {
		if strings.TrimSpace(bullet) != "" {
			bullets = append(bullets, strings.TrimSpace(bullet))
		}
	}
	if len(bullets) == 0 {
		return EntryDraft{}, fmt.Errorf("%w: no bullets", ErrMalformedEntry)
	}

	var technologies []string
	for _, tech := range raw.Technologies {
		if strings.TrimSpace(tech) != "" {
			technologies = append(technologies, strings.TrimSpace(tech))
		}
	}

	return EntryDraft{
		title:        strings.TrimSpace(raw.Title),
		bullets:      bullets,
		technologies: technologies,
	}, nil
}
