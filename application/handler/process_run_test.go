package handler_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitae-dev/vitae/application/handler"
	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/infrastructure/chunking"
	"github.com/vitae-dev/vitae/infrastructure/persistence"
	searchinfra "github.com/vitae-dev/vitae/infrastructure/search"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"
	"github.com/vitae-dev/vitae/internal/testdb"
)

type fakeFetcher struct {
	files map[string][]project.RemoteFile
	errs  map[string]error
}

func (f *fakeFetcher) ListRepositories(context.Context, string) ([]project.RemoteRepo, error) {
	return nil, nil
}

func (f *fakeFetcher) FetchFiles(_ context.Context, _, fullName string) ([]project.RemoteFile, error) {
	if err := f.errs[fullName]; err != nil {
		return nil, err
	}
	return f.files[fullName], nil
}

// hashEmbedder produces a deterministic unit vector per text so search
// behaves consistently across runs. fail rejects every call; failFor leaves
// nil vectors for the matching texts while siblings still embed.
type hashEmbedder struct {
	dim     int
	calls   int
	fail    bool
	failFor map[string]bool
}

func (e *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls++
	if e.fail {
		return nil, assert.AnError
	}
	out := make([][]float64, len(texts))
	var failed bool
	for i, text := range texts {
		if e.failFor[text] {
			failed = true
			continue
		}
		v := make([]float64, e.dim)
		v[len(text)%e.dim] = 1
		out[i] = v
	}
	if failed {
		return out, assert.AnError
	}
	return out, nil
}

type fakeSummarizer struct {
	calls int
}

func (s *fakeSummarizer) Summarize(_ context.Context, parts []string) (string, error) {
	s.calls++
	return fmt.Sprintf("summary over %d parts", len(parts)), nil
}

type pipeline struct {
	handler    *handler.ProcessRun
	runs       persistence.RunStore
	users      persistence.UserStore
	projects   persistence.ProjectStore
	files      persistence.FileStore
	chunks     persistence.ChunkStore
	vectors    search.VectorStore
	fetcher    *fakeFetcher
	summarizer *fakeSummarizer
	embedder   *hashEmbedder
}

func newPipeline(t *testing.T, fetcher *fakeFetcher) *pipeline {
	t.Helper()
	db := testdb.New(t)
	logger := log.NewTestLogger()

	vectors, err := searchinfra.NewVectorStore(context.Background(), db, 8, logger)
	require.NoError(t, err)

	p := &pipeline{
		runs:       persistence.NewRunStore(db),
		users:      persistence.NewUserStore(db),
		projects:   persistence.NewProjectStore(db),
		files:      persistence.NewFileStore(db),
		chunks:     persistence.NewChunkStore(db),
		vectors:    vectors,
		fetcher:    fetcher,
		summarizer: &fakeSummarizer{},
		embedder:   &hashEmbedder{dim: 8},
	}
	p.handler = handler.NewProcessRun(
		p.runs, p.users, p.projects, p.files, p.chunks,
		p.fetcher, chunking.NewChunker(config.NewChunkConfig()),
		p.embedder, p.vectors, p.summarizer, logger,
	)
	return p
}

func (p *pipeline) seedUser(t *testing.T) user.User {
	t.Helper()
	u, err := user.NewUser("octocat", "key", "token")
	require.NoError(t, err)
	saved, err := p.users.Save(context.Background(), u)
	require.NoError(t, err)
	return saved
}

func (p *pipeline) seedProject(t *testing.T, userID int64, fullName string) project.Project {
	t.Helper()
	proj, err := project.NewProject(userID, fullName, "", "")
	require.NoError(t, err)
	saved, err := p.projects.Save(context.Background(), proj.WithSelected(true))
	require.NoError(t, err)
	return saved
}

func (p *pipeline) trigger(t *testing.T, userID int64, projectIDs []int64) run.ProcessingRun {
	t.Helper()
	r, err := run.NewProcessingRun(userID, projectIDs)
	require.NoError(t, err)
	saved, err := p.runs.Save(context.Background(), r)
	require.NoError(t, err)
	return saved
}

func (p *pipeline) execute(t *testing.T, r run.ProcessingRun) run.ProcessingRun {
	t.Helper()
	ctx := context.Background()
	err := p.handler.Execute(ctx, map[string]any{task.PayloadRunReference: r.Reference()})
	require.NoError(t, err)
	finished, err := p.runs.GetByReference(ctx, r.Reference())
	require.NoError(t, err)
	return finished
}

func TestProcessRunPipeline(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string][]project.RemoteFile{
		"octocat/vitae": {
			project.NewRemoteFile("main.go", "package main\n\nfunc main() {}\n"),
			project.NewRemoteFile("README.md", "A resume tool.\n\nBuilt in Go.\n"),
		},
	}}
	p := newPipeline(t, fetcher)
	ctx := context.Background()

	u := p.seedUser(t)
	proj := p.seedProject(t, u.ID(), "octocat/vitae")
	finished := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))

	assert.Equal(t, run.StateDone, finished.State())
	assert.Equal(t, 1, finished.ProjectsProcessed())
	assert.Zero(t, finished.ProjectsFailed())
	assert.Positive(t, finished.ChunksEmbedded())

	fileCount, err := p.files.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.EqualValues(t, 2, fileCount)

	chunkCount, err := p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.EqualValues(t, chunkCount, finished.ChunksEmbedded())

	updated, err := p.projects.FindOne(ctx, repository.WithID(proj.ID()))
	require.NoError(t, err)
	assert.True(t, updated.HasSummary())
	assert.False(t, updated.LastProcessedAt().IsZero())

	// The summary vector is searchable in the stage-1 collection.
	query, err := p.embedder.Embed(ctx, []string{updated.Summary()})
	require.NoError(t, err)
	results, err := p.vectors.Search(ctx, search.CollectionProjects, query[0], u.ID(), 0, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, proj.ID(), results[0].ID())
}

func TestProcessRunSecondRunSkipsUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string][]project.RemoteFile{
		"octocat/vitae": {project.NewRemoteFile("main.go", "package main\n")},
	}}
	p := newPipeline(t, fetcher)
	ctx := context.Background()

	u := p.seedUser(t)
	proj := p.seedProject(t, u.ID(), "octocat/vitae")

	first := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, first.State())
	firstChunks, err := p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)

	second := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	assert.Equal(t, run.StateDone, second.State())
	assert.Equal(t, 1, second.FilesSkipped())
	assert.Zero(t, second.ChunksEmbedded())

	// Chunk rows are stable across idempotent re-runs.
	secondChunks, err := p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.Equal(t, firstChunks, secondChunks)
}

func TestProcessRunRambleLifecycle(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string][]project.RemoteFile{
		"octocat/vitae": {project.NewRemoteFile("main.go", "package main\n")},
	}}
	p := newPipeline(t, fetcher)
	ctx := context.Background()

	u := p.seedUser(t)
	proj := p.seedProject(t, u.ID(), "octocat/vitae")
	proj, err := p.projects.Save(ctx, proj.WithRamble("I built this to learn Go."))
	require.NoError(t, err)

	finished := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, finished.State())

	rambles, err := p.chunks.Find(ctx,
		repository.WithProjectID(proj.ID()), project.WithClass(project.ClassRamble))
	require.NoError(t, err)
	require.Len(t, rambles, 1)
	assert.Equal(t, "I built this to learn Go.", rambles[0].Content())

	updated, err := p.projects.FindOne(ctx, repository.WithID(proj.ID()))
	require.NoError(t, err)
	assert.False(t, updated.RambleChanged())
	summaryCalls := p.summarizer.calls

	// Editing the ramble alone forces re-embedding and re-summarization,
	// and the project still carries exactly one ramble chunk.
	updated, err = p.projects.Save(ctx, updated.WithRamble("Rewritten ramble."))
	require.NoError(t, err)
	second := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, second.State())

	rambles, err = p.chunks.Find(ctx,
		repository.WithProjectID(proj.ID()), project.WithClass(project.ClassRamble))
	require.NoError(t, err)
	require.Len(t, rambles, 1)
	assert.Equal(t, "Rewritten ramble.", rambles[0].Content())
	assert.Greater(t, p.summarizer.calls, summaryCalls)
}

func TestProcessRunEmbedFailureLeavesFileRetryable(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string][]project.RemoteFile{
		"octocat/vitae": {project.NewRemoteFile("main.go", "package main\n")},
	}}
	p := newPipeline(t, fetcher)
	ctx := context.Background()

	u := p.seedUser(t)
	proj := p.seedProject(t, u.ID(), "octocat/vitae")

	p.embedder.fail = true
	first := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, first.State())
	assert.Zero(t, first.ChunksEmbedded())
	assert.Zero(t, first.FilesSkipped())

	// Nothing was written: no chunk row exists without a matching vector.
	chunkCount, err := p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.Zero(t, chunkCount)

	// The next run retries the file instead of skipping it as unchanged.
	p.embedder.fail = false
	second := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, second.State())
	assert.Zero(t, second.FilesSkipped())
	assert.Positive(t, second.ChunksEmbedded())

	chunkCount, err = p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.EqualValues(t, chunkCount, second.ChunksEmbedded())
}

func TestProcessRunPartialEmbedFailureKeepsRowsAndVectorsEqual(t *testing.T) {
	source := "package main\n\nfunc a() {}\n\nfunc b() {}\n"
	fetcher := &fakeFetcher{files: map[string][]project.RemoteFile{
		"octocat/vitae": {project.NewRemoteFile("main.go", source)},
	}}
	p := newPipeline(t, fetcher)
	ctx := context.Background()

	u := p.seedUser(t)
	proj := p.seedProject(t, u.ID(), "octocat/vitae")

	p.embedder.failFor = map[string]bool{"func b() {}": true}
	first := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, first.State())
	assert.Equal(t, 1, first.ChunksEmbedded())

	countVectors := func() int {
		query := make([]float64, 8)
		query[0] = 1
		results, err := p.vectors.Search(ctx, search.CollectionChunks, query, u.ID(), proj.ID(), 100)
		require.NoError(t, err)
		return len(results)
	}

	chunkCount, err := p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.EqualValues(t, 1, chunkCount)
	assert.Equal(t, 1, countVectors())

	// The failed chunk kept the old fingerprint, so the next run reprocesses
	// the file and repairs the missing chunk.
	p.embedder.failFor = nil
	second := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))
	require.Equal(t, run.StateDone, second.State())
	assert.Zero(t, second.FilesSkipped())

	chunkCount, err = p.chunks.Count(ctx, repository.WithProjectID(proj.ID()))
	require.NoError(t, err)
	assert.EqualValues(t, 2, chunkCount)
	assert.Equal(t, 2, countVectors())
}

func TestProcessRunFetchFailureFailsRun(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{"octocat/vitae": assert.AnError}}
	p := newPipeline(t, fetcher)

	u := p.seedUser(t)
	proj := p.seedProject(t, u.ID(), "octocat/vitae")
	finished := p.execute(t, p.trigger(t, u.ID(), []int64{proj.ID()}))

	assert.Equal(t, run.StateError, finished.State())
	assert.Equal(t, 1, finished.ProjectsFailed())
	assert.NotEmpty(t, finished.Error())
}

func TestProcessRunPartialFailureCompletes(t *testing.T) {
	fetcher := &fakeFetcher{
		files: map[string][]project.RemoteFile{
			"octocat/good": {project.NewRemoteFile("main.go", "package main\n")},
		},
		errs: map[string]error{"octocat/bad": assert.AnError},
	}
	p := newPipeline(t, fetcher)

	u := p.seedUser(t)
	good := p.seedProject(t, u.ID(), "octocat/good")
	bad := p.seedProject(t, u.ID(), "octocat/bad")
	finished := p.execute(t, p.trigger(t, u.ID(), []int64{good.ID(), bad.ID()}))

	assert.Equal(t, run.StateDone, finished.State())
	assert.Equal(t, 1, finished.ProjectsProcessed())
	assert.Equal(t, 1, finished.ProjectsFailed())
	assert.Contains(t, finished.Message(), "1 failed")
}

func TestProcessRunMissingReference(t *testing.T) {
	p := newPipeline(t, &fakeFetcher{})
	err := p.handler.Execute(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestProcessRunAlreadyFinishedIsNoop(t *testing.T) {
	p := newPipeline(t, &fakeFetcher{})
	ctx := context.Background()

	u := p.seedUser(t)
	r := p.trigger(t, u.ID(), nil)
	started, err := r.Start()
	require.NoError(t, err)
	done, err := started.Complete("done")
	require.NoError(t, err)
	done, err = p.runs.Save(ctx, done)
	require.NoError(t, err)

	embedCalls := p.embedder.calls
	err = p.handler.Execute(ctx, map[string]any{task.PayloadRunReference: done.Reference()})
	require.NoError(t, err)
	assert.Equal(t, embedCalls, p.embedder.calls)
}
