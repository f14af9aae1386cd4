package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
)

// ErrProjectNotFound indicates the project does not exist or belongs to
// another user.
var ErrProjectNotFound = errors.New("project not found")

// ProjectInfo is a project with its ingestion counts, as listed to callers.
type ProjectInfo struct {
	Project    project.Project
	FileCount  int64
	ChunkCount int64
}

// ProjectService syncs repository metadata from the code host and manages
// per-project user state: rambles and the selected set.
type ProjectService struct {
	projects project.Store
	files    project.FileStore
	chunks   project.ChunkStore
	fetcher  project.Fetcher
	logger   *log.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(
	projects project.Store,
	files project.FileStore,
	chunks project.ChunkStore,
	fetcher project.Fetcher,
	logger *log.Logger,
) *ProjectService {
	return &ProjectService{
		projects: projects,
		files:    files,
		chunks:   chunks,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Sync fetches the user's repositories from the code host and upserts a
// project row per repository. Metadata only; file content is not fetched
// until a processing run. Rambles, summaries, and selection survive a sync.
func (s *ProjectService) Sync(ctx context.Context, u user.User) ([]project.Project, error) {
	repos, err := s.fetcher.ListRepositories(ctx, u.GitHubToken())
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	synced := make([]project.Project, 0, len(repos))
	for _, repo := range repos {
		p, err := project.NewProject(u.ID(), repo.FullName(), "", repo.HTMLURL())
		if err != nil {
			return nil, err
		}
		saved, err := s.projects.Upsert(ctx, p.WithDescription(repo.Description()))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert project %s: %w", repo.FullName(), err)
		}
		synced = append(synced, saved)
	}

	s.logger.Info("projects synced", "user_id", u.ID(), "count", len(synced))
	return synced, nil
}

// List returns the user's projects with their file and chunk counts.
func (s *ProjectService) List(ctx context.Context, userID int64) ([]ProjectInfo, error) {
	projects, err := s.projects.Find(ctx,
		repository.WithUserID(userID),
		repository.WithOrderAsc("full_name"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, p := range projects {
		fileCount, err := s.files.Count(ctx, repository.WithProjectID(p.ID()))
		if err != nil {
			return nil, fmt.Errorf("failed to count files: %w", err)
		}
		chunkCount, err := s.chunks.Count(ctx, repository.WithProjectID(p.ID()))
		if err != nil {
			return nil, fmt.Errorf("failed to count chunks: %w", err)
		}
		infos = append(infos, ProjectInfo{Project: p, FileCount: fileCount, ChunkCount: chunkCount})
	}
	return infos, nil
}

// Get returns one of the user's projects.
func (s *ProjectService) Get(ctx context.Context, userID, projectID int64) (project.Project, error) {
	p, err := s.projects.FindOne(ctx,
		repository.WithID(projectID),
		repository.WithUserID(userID),
	)
	if errors.Is(err, database.ErrNotFound) {
		return project.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return project.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// SetRamble replaces the project's ramble text. The stored fingerprint is
// untouched so the next processing run sees the edit.
func (s *ProjectService) SetRamble(ctx context.Context, userID, projectID int64, ramble string) (project.Project, error) {
	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return project.Project{}, err
	}
	saved, err := s.projects.Save(ctx, p.WithRamble(ramble))
	if err != nil {
		return project.Project{}, fmt.Errorf("failed to save ramble: %w", err)
	}
	return saved, nil
}

// Select marks the given projects selected and deselects every other
// project of the user. All IDs must belong to the user.
func (s *ProjectService) Select(ctx context.Context, userID int64, projectIDs []int64) ([]project.Project, error) {
	wanted := make(map[int64]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}

	all, err := s.projects.Find(ctx, repository.WithUserID(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	for id := range wanted {
		found := false
		for _, p := range all {
			if p.ID() == id {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
		}
	}

	selected := make([]project.Project, 0, len(projectIDs))
	for _, p := range all {
		if p.Selected() == wanted[p.ID()] {
			if p.Selected() {
				selected = append(selected, p)
			}
			continue
		}
		saved, err := s.projects.Save(ctx, p.WithSelected(wanted[p.ID()]))
		if err != nil {
			return nil, fmt.Errorf("failed to update selection: %w", err)
		}
		if saved.Selected() {
			selected = append(selected, saved)
		}
	}

	s.logger.Info("project selection updated", "user_id", userID, "selected", len(selected))
	return selected, nil
}
