package persistence

import (
	"context"
	"errors"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/internal/database"
)

// ProjectStore implements project.Store using GORM.
type ProjectStore struct {
	database.Repository[project.Project, ProjectModel]
}

// NewProjectStore creates a ProjectStore.
func NewProjectStore(db database.Database) ProjectStore {
	return ProjectStore{
		Repository: database.NewRepository[project.Project, ProjectModel](db, ProjectMapper{}, "project"),
	}
}

// GetByFullName resolves a project by its (user, full name) identity.
func (s ProjectStore) GetByFullName(ctx context.Context, userID int64, fullName string) (project.Project, error) {
	return s.FindOne(ctx, repository.WithUserID(userID), project.WithFullName(fullName))
}

// Upsert creates the project or updates the row matching its (user, full
// name) identity. Remote metadata (title, description, repo URL) follows
// the incoming value; the user's ramble, the generated summary, the
// selection flag, and processing state survive the update.
func (s ProjectStore) Upsert(ctx context.Context, p project.Project) (project.Project, error) {
	existing, err := s.GetByFullName(ctx, p.UserID(), p.FullName())
	if errors.Is(err, database.ErrNotFound) {
		return s.Create(ctx, p)
	}
	if err != nil {
		return project.Project{}, err
	}

	merged := project.NewProjectFull(
		existing.ID(),
		existing.UserID(),
		existing.FullName(),
		p.Title(),
		p.RepoURL(),
		p.Description(),
		existing.Ramble(),
		existing.RambleFingerprint(),
		existing.Summary(),
		existing.Selected(),
		existing.LastProcessedAt(),
		existing.CreatedAt(),
		existing.UpdatedAt(),
	)
	return s.Save(ctx, merged)
}

// FindSelected returns the user's projects with the selected flag set.
func (s ProjectStore) FindSelected(ctx context.Context, userID int64) ([]project.Project, error) {
	return s.Find(ctx, repository.WithUserID(userID), project.WithSelected(true))
}

var _ project.Store = ProjectStore{}
