package project

import (
	"context"

	"github.com/vitae-dev/vitae/domain/repository"
)

// Store defines persistence for projects.
type Store interface {
	repository.Store[Project]

	// GetByFullName resolves a project by its (user, full name) identity.
	GetByFullName(ctx context.Context, userID int64, fullName string) (Project, error)

	// Upsert creates the project or updates the existing row matching its
	// (user, full name) identity, preserving ramble, summary, and selection
	// on update.
	Upsert(ctx context.Context, p Project) (Project, error)

	// FindSelected returns the user's projects with the selected flag set.
	FindSelected(ctx context.Context, userID int64) ([]Project, error)
}

// FileStore defines persistence for repository files.
type FileStore interface {
	repository.Store[RepositoryFile]

	// GetByPath resolves a file by its (project, path) identity.
	GetByPath(ctx context.Context, projectID int64, path string) (RepositoryFile, error)

	// Upsert creates the file or updates the row matching its
	// (project, path) identity.
	Upsert(ctx context.Context, f RepositoryFile) (RepositoryFile, error)
}

// ChunkStore defines persistence for chunks.
type ChunkStore interface {
	repository.Store[Chunk]

	// SaveAll persists chunks in one transaction.
	SaveAll(ctx context.Context, chunks []Chunk) ([]Chunk, error)

	// ReplaceForFile atomically deletes a file's chunks and inserts the
	// replacements, preserving ordinal uniqueness.
	ReplaceForFile(ctx context.Context, fileID int64, chunks []Chunk) ([]Chunk, error)

	// ReplaceRamble atomically replaces the project's single ramble chunk.
	ReplaceRamble(ctx context.Context, projectID int64, chunk Chunk) (Chunk, error)
}

// WithFullName filters by the "full_name" column.
func WithFullName(fullName string) repository.Option {
	return repository.WithCondition("full_name", fullName)
}

// WithSelected filters by the "selected" column.
func WithSelected(selected bool) repository.Option {
	return repository.WithCondition("selected", selected)
}

// WithPath filters by the "path" column.
func WithPath(path string) repository.Option {
	return repository.WithCondition("path", path)
}

// WithFileID filters by the "file_id" column.
func WithFileID(fileID int64) repository.Option {
	return repository.WithCondition("file_id", fileID)
}

// WithClass filters by the "class" column.
func WithClass(class ContentClass) repository.Option {
	return repository.WithCondition("class", string(class))
}
