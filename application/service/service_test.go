package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitae-dev/vitae/application/service"
	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/resume"
	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/infrastructure/enricher"
	"github.com/vitae-dev/vitae/infrastructure/persistence"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"
	"github.com/vitae-dev/vitae/internal/testdb"
)

type fakeFetcher struct {
	repos []project.RemoteRepo
	files map[string][]project.RemoteFile
	err   error
}

func (f *fakeFetcher) ListRepositories(_ context.Context, _ string) ([]project.RemoteRepo, error) {
	return f.repos, f.err
}

func (f *fakeFetcher) FetchFiles(_ context.Context, _, fullName string) ([]project.RemoteFile, error) {
	return f.files[fullName], f.err
}

func newTestUser(t *testing.T, users user.Store, login string) user.User {
	t.Helper()
	u, err := user.NewUser(login, "key-"+login, "gh-token")
	require.NoError(t, err)
	saved, err := users.Save(context.Background(), u)
	require.NoError(t, err)
	return saved
}

func TestUserServiceProvision(t *testing.T) {
	db := testdb.New(t)
	users := persistence.NewUserStore(db)
	svc := service.NewUserService(users, log.NewTestLogger())
	ctx := context.Background()

	u, err := svc.Provision(ctx, "octocat", "gh-token")
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login())
	assert.True(t, strings.HasPrefix(u.APIKey(), "vitae_"))
	assert.NotZero(t, u.ID())

	// Re-provisioning replaces the token and keeps the key.
	again, err := svc.Provision(ctx, "octocat", "new-token")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), again.ID())
	assert.Equal(t, u.APIKey(), again.APIKey())
	assert.Equal(t, "new-token", again.GitHubToken())
}

func TestUserServiceAuthenticate(t *testing.T) {
	db := testdb.New(t)
	users := persistence.NewUserStore(db)
	svc := service.NewUserService(users, log.NewTestLogger())
	ctx := context.Background()

	u, err := svc.Provision(ctx, "octocat", "")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, u.APIKey())
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())

	_, err = svc.Authenticate(ctx, "bogus")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func newProjectService(t *testing.T, fetcher project.Fetcher) (*service.ProjectService, user.Store, project.Store) {
	t.Helper()
	db := testdb.New(t)
	users := persistence.NewUserStore(db)
	projects := persistence.NewProjectStore(db)
	files := persistence.NewFileStore(db)
	chunks := persistence.NewChunkStore(db)
	svc := service.NewProjectService(projects, files, chunks, fetcher, log.NewTestLogger())
	return svc, users, projects
}

func TestProjectServiceSync(t *testing.T) {
	fetcher := &fakeFetcher{repos: []project.RemoteRepo{
		project.NewRemoteRepo("octocat/vitae", "resume tool", "https://github.com/octocat/vitae"),
		project.NewRemoteRepo("octocat/dotfiles", "", "https://github.com/octocat/dotfiles"),
	}}
	svc, users, projects := newProjectService(t, fetcher)
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	synced, err := svc.Sync(ctx, u)
	require.NoError(t, err)
	require.Len(t, synced, 2)
	assert.Equal(t, "octocat/vitae", synced[0].FullName())
	assert.Equal(t, "resume tool", synced[0].Description())

	// A second sync updates in place rather than duplicating.
	_, err = svc.Sync(ctx, u)
	require.NoError(t, err)
	count, err := projects.Count(ctx, repository.WithUserID(u.ID()))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestProjectServiceSetRamble(t *testing.T) {
	svc, users, projects := newProjectService(t, &fakeFetcher{})
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	p, err := project.NewProject(u.ID(), "octocat/vitae", "", "")
	require.NoError(t, err)
	p, err = projects.Save(ctx, p)
	require.NoError(t, err)

	updated, err := svc.SetRamble(ctx, u.ID(), p.ID(), "built this over a weekend")
	require.NoError(t, err)
	assert.Equal(t, "built this over a weekend", updated.Ramble())
	assert.True(t, updated.RambleChanged())

	other := newTestUser(t, users, "other")
	_, err = svc.SetRamble(ctx, other.ID(), p.ID(), "not mine")
	assert.ErrorIs(t, err, service.ErrProjectNotFound)
}

func TestProjectServiceSelect(t *testing.T) {
	svc, users, projects := newProjectService(t, &fakeFetcher{})
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	var ids []int64
	for _, name := range []string{"octocat/a", "octocat/b", "octocat/c"} {
		p, err := project.NewProject(u.ID(), name, "", "")
		require.NoError(t, err)
		p, err = projects.Save(ctx, p)
		require.NoError(t, err)
		ids = append(ids, p.ID())
	}

	selected, err := svc.Select(ctx, u.ID(), ids[:2])
	require.NoError(t, err)
	assert.Len(t, selected, 2)

	// Selecting a different set deselects the rest.
	selected, err = svc.Select(ctx, u.ID(), ids[2:])
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, ids[2], selected[0].ID())

	remaining, err := projects.FindSelected(ctx, u.ID())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	_, err = svc.Select(ctx, u.ID(), []int64{9999})
	assert.ErrorIs(t, err, service.ErrProjectNotFound)
}

func TestProjectServiceListCounts(t *testing.T) {
	svc, users, projects := newProjectService(t, &fakeFetcher{})
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	p, err := project.NewProject(u.ID(), "octocat/vitae", "", "")
	require.NoError(t, err)
	p, err = projects.Save(ctx, p)
	require.NoError(t, err)

	infos, err := svc.List(ctx, u.ID())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, p.ID(), infos[0].Project.ID())
	assert.Zero(t, infos[0].FileCount)
	assert.Zero(t, infos[0].ChunkCount)
}

func TestRunServiceTriggerRejectsConcurrent(t *testing.T) {
	db := testdb.New(t)
	runs := persistence.NewRunStore(db)
	tasks := persistence.NewTaskStore(db)
	queue := service.NewQueue(tasks, log.NewTestLogger())
	svc := service.NewRunService(runs, queue, log.NewTestLogger())
	ctx := context.Background()

	first, err := svc.Trigger(ctx, 1, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, run.StatePending, first.State())
	assert.NotEmpty(t, first.Reference())

	_, err = svc.Trigger(ctx, 1, []int64{10})
	assert.ErrorIs(t, err, service.ErrRunActive)

	// Another user is unaffected.
	_, err = svc.Trigger(ctx, 2, []int64{20})
	require.NoError(t, err)

	pending, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending)
}

func TestRunServiceGetScopedToUser(t *testing.T) {
	db := testdb.New(t)
	runs := persistence.NewRunStore(db)
	queue := service.NewQueue(persistence.NewTaskStore(db), log.NewTestLogger())
	svc := service.NewRunService(runs, queue, log.NewTestLogger())
	ctx := context.Background()

	r, err := svc.Trigger(ctx, 1, []int64{10})
	require.NoError(t, err)

	got, err := svc.Get(ctx, 1, r.Reference())
	require.NoError(t, err)
	assert.Equal(t, r.Reference(), got.Reference())

	_, err = svc.Get(ctx, 2, r.Reference())
	assert.ErrorIs(t, err, service.ErrRunNotFound)

	_, err = svc.Get(ctx, 1, "no-such-reference")
	assert.ErrorIs(t, err, service.ErrRunNotFound)
}

type fakeEmbedder struct {
	vector []float64
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type fakeVectorStore struct {
	projectResults []search.Result
	chunkResults   map[int64][]search.Result
}

func (f *fakeVectorStore) Index(context.Context, search.Collection, []search.Document, [][]float64) error {
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, collection search.Collection, _ []float64, _, projectID int64, topK int) ([]search.Result, error) {
	if collection == search.CollectionProjects {
		if topK < len(f.projectResults) {
			return f.projectResults[:topK], nil
		}
		return f.projectResults, nil
	}
	return f.chunkResults[projectID], nil
}

func (f *fakeVectorStore) Delete(context.Context, search.Collection, []int64) error { return nil }

func (f *fakeVectorStore) DeleteByProject(context.Context, search.Collection, int64) error {
	return nil
}

type fakeWriter struct {
	failFor map[string]bool
}

func (f *fakeWriter) Write(_ context.Context, _, summary string, _ []string) (enricher.EntryDraft, error) {
	if f.failFor[summary] {
		return enricher.EntryDraft{}, assert.AnError
	}
	return enricher.NewEntryDraft("Engineer on "+summary, []string{"did the thing"}, []string{"Go"}), nil
}

func TestResumeServiceGenerate(t *testing.T) {
	db := testdb.New(t)
	users := persistence.NewUserStore(db)
	projects := persistence.NewProjectStore(db)
	chunks := persistence.NewChunkStore(db)
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	var projectIDs []int64
	for _, name := range []string{"octocat/a", "octocat/b"} {
		p, err := project.NewProject(u.ID(), name, "", "https://github.com/"+name)
		require.NoError(t, err)
		p, err = projects.Save(ctx, p.WithSummary("summary of "+name).WithSelected(true))
		require.NoError(t, err)
		projectIDs = append(projectIDs, p.ID())
	}

	f, err := project.NewRepositoryFile(projectIDs[0], "main.go", "package main")
	require.NoError(t, err)
	file, err := persistence.NewFileStore(db).Save(ctx, f)
	require.NoError(t, err)
	c, err := project.NewFileChunk(projectIDs[0], file.ID(), 0, project.ClassCode, "package main")
	require.NoError(t, err)
	saved, err := chunks.SaveAll(ctx, []project.Chunk{c})
	require.NoError(t, err)

	vectors := &fakeVectorStore{
		// Second project scores lower at stage 1 but has no chunk evidence.
		projectResults: []search.Result{
			search.NewResult(projectIDs[0], projectIDs[0], 0.9),
			search.NewResult(projectIDs[1], projectIDs[1], 0.5),
		},
		chunkResults: map[int64][]search.Result{
			projectIDs[0]: {search.NewResult(saved[0].ID(), projectIDs[0], 0.8)},
		},
	}

	svc := service.NewResumeService(
		projects, chunks, vectors, &fakeEmbedder{vector: []float64{1, 0}},
		&fakeWriter{}, config.NewResumeConfig(), log.NewTestLogger(),
	)

	req, err := resume.NewRequest("Go backend engineer", 5)
	require.NoError(t, err)
	entries, err := svc.Generate(ctx, u.ID(), req)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, projectIDs[0], entries[0].ProjectID())
	assert.GreaterOrEqual(t, entries[0].Score(), entries[1].Score())
	assert.Equal(t, "https://github.com/octocat/a", entries[0].RepoURL())
	assert.NotEmpty(t, entries[0].Bullets())

	// 0.7*0.9 + 0.3*0.8 = 0.87 -> round(93.5) = 94
	assert.Equal(t, 94, entries[0].Score())
}

func TestResumeServiceExcludesDeselected(t *testing.T) {
	db := testdb.New(t)
	users := persistence.NewUserStore(db)
	projects := persistence.NewProjectStore(db)
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	selected, err := project.NewProject(u.ID(), "octocat/selected", "", "")
	require.NoError(t, err)
	selected, err = projects.Save(ctx, selected.WithSummary("octocat/selected").WithSelected(true))
	require.NoError(t, err)

	// The deselected project keeps its summary vector in the index.
	deselected, err := project.NewProject(u.ID(), "octocat/deselected", "", "")
	require.NoError(t, err)
	deselected, err = projects.Save(ctx, deselected.WithSummary("octocat/deselected"))
	require.NoError(t, err)

	vectors := &fakeVectorStore{projectResults: []search.Result{
		search.NewResult(deselected.ID(), deselected.ID(), 0.95),
		search.NewResult(selected.ID(), selected.ID(), 0.6),
	}}
	svc := service.NewResumeService(
		projects, persistence.NewChunkStore(db), vectors,
		&fakeEmbedder{vector: []float64{1}},
		&fakeWriter{},
		config.NewResumeConfig(), log.NewTestLogger(),
	)

	req, err := resume.NewRequest("any job", 1)
	require.NoError(t, err)
	entries, err := svc.Generate(ctx, u.ID(), req)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, selected.ID(), entries[0].ProjectID())
}

func TestResumeServiceNoCandidates(t *testing.T) {
	db := testdb.New(t)
	svc := service.NewResumeService(
		persistence.NewProjectStore(db),
		persistence.NewChunkStore(db),
		&fakeVectorStore{},
		&fakeEmbedder{vector: []float64{1}},
		&fakeWriter{},
		config.NewResumeConfig(),
		log.NewTestLogger(),
	)

	req, err := resume.NewRequest("any job", 3)
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), 1, req)
	assert.ErrorIs(t, err, resume.ErrNoCandidates)
}

func TestResumeServiceOmitsFailedGeneration(t *testing.T) {
	db := testdb.New(t)
	users := persistence.NewUserStore(db)
	projects := persistence.NewProjectStore(db)
	ctx := context.Background()
	u := newTestUser(t, users, "octocat")

	var projectIDs []int64
	for _, name := range []string{"octocat/good", "octocat/bad"} {
		p, err := project.NewProject(u.ID(), name, "", "")
		require.NoError(t, err)
		p, err = projects.Save(ctx, p.WithSummary(name).WithSelected(true))
		require.NoError(t, err)
		projectIDs = append(projectIDs, p.ID())
	}

	vectors := &fakeVectorStore{projectResults: []search.Result{
		search.NewResult(projectIDs[0], projectIDs[0], 0.9),
		search.NewResult(projectIDs[1], projectIDs[1], 0.8),
	}}
	svc := service.NewResumeService(
		projects, persistence.NewChunkStore(db), vectors,
		&fakeEmbedder{vector: []float64{1}},
		&fakeWriter{failFor: map[string]bool{"octocat/bad": true}},
		config.NewResumeConfig(), log.NewTestLogger(),
	)

	req, err := resume.NewRequest("any job", 5)
	require.NoError(t, err)
	entries, err := svc.Generate(ctx, u.ID(), req)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, projectIDs[0], entries[0].ProjectID())
}
