package persistence

import (
	"fmt"

	"context"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/internal/database"
	"gorm.io/gorm"
)

// ChunkStore implements project.ChunkStore using GORM.
type ChunkStore struct {
	database.Repository[project.Chunk, ChunkModel]
}

// NewChunkStore creates a ChunkStore.
func NewChunkStore(db database.Database) ChunkStore {
	return ChunkStore{
		Repository: database.NewRepository[project.Chunk, ChunkModel](db, ChunkMapper{}, "chunk"),
	}
}

// SaveAll persists chunks in one transaction and returns them with IDs.
func (s ChunkStore) SaveAll(ctx context.Context, chunks []project.Chunk) ([]project.Chunk, error) {
	return database.WithTransactionResult(ctx, s.Database(), func(tx *gorm.DB) ([]project.Chunk, error) {
		return s.insert(tx, chunks)
	})
}

// ReplaceForFile atomically deletes a file's chunks and inserts the
// replacements.
func (s ChunkStore) ReplaceForFile(ctx context.Context, fileID int64, chunks []project.Chunk) ([]project.Chunk, error) {
	return database.WithTransactionResult(ctx, s.Database(), func(tx *gorm.DB) ([]project.Chunk, error) {
		if result := tx.Where("file_id = ?", fileID).Delete(&ChunkModel{}); result.Error != nil {
			return nil, fmt.Errorf("delete chunks for file %d: %w", fileID, result.Error)
		}
		return s.insert(tx, chunks)
	})
}

// ReplaceRamble atomically replaces the project's single ramble chunk.
func (s ChunkStore) ReplaceRamble(ctx context.Context, projectID int64, chunk project.Chunk) (project.Chunk, error) {
	return database.WithTransactionResult(ctx, s.Database(), func(tx *gorm.DB) (project.Chunk, error) {
		result := tx.
			Where("project_id = ? AND class = ?", projectID, string(project.ClassRamble)).
			Delete(&ChunkModel{})
		if result.Error != nil {
			return project.Chunk{}, fmt.Errorf("delete ramble chunk for project %d: %w", projectID, result.Error)
		}

		inserted, err := s.insert(tx, []project.Chunk{chunk})
		if err != nil {
			return project.Chunk{}, err
		}
		return inserted[0], nil
	})
}

func (s ChunkStore) insert(tx *gorm.DB, chunks []project.Chunk) ([]project.Chunk, error) {
	saved := make([]project.Chunk, 0, len(chunks))
	for _, c := range chunks {
		model := s.Mapper().ToModel(c)
		if result := tx.Create(&model); result.Error != nil {
			return nil, fmt.Errorf("create chunk: %w", result.Error)
		}
		saved = append(saved, s.Mapper().ToDomain(model))
	}
	return saved, nil
}

var _ project.ChunkStore = ChunkStore{}
