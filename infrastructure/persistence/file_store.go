package persistence

import (
	"context"
	"errors"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/internal/database"
)

// FileStore implements project.FileStore using GORM.
type FileStore struct {
	database.Repository[project.RepositoryFile, FileModel]
}

// NewFileStore creates a FileStore.
func NewFileStore(db database.Database) FileStore {
	return FileStore{
		Repository: database.NewRepository[project.RepositoryFile, FileModel](db, FileMapper{}, "file"),
	}
}

// GetByPath resolves a file by its (project, path) identity.
func (s FileStore) GetByPath(ctx context.Context, projectID int64, path string) (project.RepositoryFile, error) {
	return s.FindOne(ctx, repository.WithProjectID(projectID), project.WithPath(path))
}

// Upsert creates the file or updates the row matching its (project, path)
// identity with the incoming content and fingerprint.
func (s FileStore) Upsert(ctx context.Context, f project.RepositoryFile) (project.RepositoryFile, error) {
	existing, err := s.GetByPath(ctx, f.ProjectID(), f.Path())
	if errors.Is(err, database.ErrNotFound) {
		return s.Create(ctx, f)
	}
	if err != nil {
		return project.RepositoryFile{}, err
	}

	merged := project.NewRepositoryFileFull(
		existing.ID(),
		f.ProjectID(),
		f.Path(),
		f.Language(),
		f.Class(),
		f.Fingerprint(),
		f.Size(),
		f.Content(),
		existing.CreatedAt(),
		existing.UpdatedAt(),
	)
	return s.Save(ctx, merged)
}

var _ project.FileStore = FileStore{}
