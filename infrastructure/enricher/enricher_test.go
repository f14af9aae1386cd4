package enricher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitae-dev/vitae/infrastructure/provider"
	"github.com/vitae-dev/vitae/internal/log"
)

// fakeGenerator records the last request and returns a canned response.
type fakeGenerator struct {
	lastReq  provider.CompletionRequest
	response string
	err      error
}

func (f *fakeGenerator) Complete(_ context.Context, req provider.CompletionRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSummarizer_Summarize(t *testing.T) {
	gen := &fakeGenerator{response: "  A Go service built on chi and GORM.  "}
	s := NewSummarizer(gen, log.NewTestLogger())

	summary, err := s.Summarize(context.Background(), []string{"my ramble", "README text", "func main() {}"})
	require.NoError(t, err)
	assert.Equal(t, "A Go service built on chi and GORM.", summary)

	assert.Contains(t, gen.lastReq.System(), "expert software engineer")
	assert.Equal(t, "my ramble\n\nREADME text\n\nfunc main() {}", gen.lastReq.User())
	assert.InDelta(t, 0.3, gen.lastReq.Temperature(), 0.001)
	assert.Equal(t, DefaultSummaryMaxTokens, gen.lastReq.MaxTokens())
}

func TestSummarizer_TruncatesToBudget(t *testing.T) {
	gen := &fakeGenerator{response: "summary"}
	s := NewSummarizer(gen, log.NewTestLogger()).WithMaxChars(50)

	first := strings.Repeat("a", 40)
	second := strings.Repeat("b", 40)
	_, err := s.Summarize(context.Background(), []string{first, second})
	require.NoError(t, err)

	assert.Len(t, gen.lastReq.User(), 50)
	// The front of the prompt survives truncation intact.
	assert.True(t, strings.HasPrefix(gen.lastReq.User(), first))
}

func TestSummarizer_SkipsEmptyParts(t *testing.T) {
	gen := &fakeGenerator{response: "summary"}
	s := NewSummarizer(gen, log.NewTestLogger())

	_, err := s.Summarize(context.Background(), []string{"", "  ", "content"})
	require.NoError(t, err)
	assert.Equal(t, "content", gen.lastReq.User())
}

func TestSummarizer_NoContent(t *testing.T) {
	gen := &fakeGenerator{response: "summary"}
	s := NewSummarizer(gen, log.NewTestLogger())

	_, err := s.Summarize(context.Background(), []string{"", "   "})
	require.Error(t, err)
}

func TestSummarizer_StripsThinkingTags(t *testing.T) {
	gen := &fakeGenerator{response: "<think>reasoning here</think>The actual summary."}
	s := NewSummarizer(gen, log.NewTestLogger())

	summary, err := s.Summarize(context.Background(), []string{"content"})
	require.NoError(t, err)
	assert.Equal(t, "The actual summary.", summary)
}

func TestSummarizer_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	s := NewSummarizer(gen, log.NewTestLogger())

	_, err := s.Summarize(context.Background(), []string{"content"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestResumeWriter_Write(t *testing.T) {
	gen := &fakeGenerator{response: `{
		"title": "Distributed Cache",
		"bullets": ["Built a sharded cache in Go.", "Cut p99 latency by rewriting the eviction path.", "Added consistent hashing for rebalancing."],
		"technologies": ["Go", "Redis"]
	}`}
	w := NewResumeWriter(gen, log.NewTestLogger())

	draft, err := w.Write(context.Background(), "backend role", "a cache project", []string{"func Get() {}", "func Set() {}"})
	require.NoError(t, err)

	assert.Equal(t, "Distributed Cache", draft.Title())
	assert.Len(t, draft.Bullets(), 3)
	assert.Equal(t, []string{"Go", "Redis"}, draft.Technologies())

	assert.Contains(t, gen.lastReq.User(), "backend role")
	assert.Contains(t, gen.lastReq.User(), "a cache project")
	assert.Contains(t, gen.lastReq.User(), "Excerpt 1:\nfunc Get() {}")
	assert.Contains(t, gen.lastReq.User(), "Excerpt 2:\nfunc Set() {}")
	assert.Contains(t, gen.lastReq.System(), "strict JSON")
}

func TestResumeWriter_UnwrapsCodeFence(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"title\": \"T\", \"bullets\": [\"b1\"], \"technologies\": []}\n```"}
	w := NewResumeWriter(gen, log.NewTestLogger())

	draft, err := w.Write(context.Background(), "job", "summary", nil)
	require.NoError(t, err)
	assert.Equal(t, "T", draft.Title())
	assert.Equal(t, []string{"b1"}, draft.Bullets())
}

func TestResumeWriter_MalformedJSON(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot produce JSON today."}
	w := NewResumeWriter(gen, log.NewTestLogger())

	_, err := w.Write(context.Background(), "job", "summary", nil)
	require.ErrorIs(t, err, ErrMalformedEntry)
}

func TestResumeWriter_MissingTitle(t *testing.T) {
	gen := &fakeGenerator{response: `{"title": " ", "bullets": ["b"], "technologies": []}`}
	w := NewResumeWriter(gen, log.NewTestLogger())

	_, err := w.Write(context.Background(), "job", "summary", nil)
	require.ErrorIs(t, err, ErrMalformedEntry)
}

func TestResumeWriter_NoBullets(t *testing.T) {
	gen := &fakeGenerator{response: `{"title": "T", "bullets": ["", "  "], "technologies": ["Go"]}`}
	w := NewResumeWriter(gen, log.NewTestLogger())

	_, err := w.Write(context.Background(), "job", "summary", nil)
	require.ErrorIs(t, err, ErrMalformedEntry)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
