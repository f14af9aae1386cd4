package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

// Cosine search templates. pgvector defines `a <=> b` as cosine distance,
// so similarity is 1 - score.
const (
	pgCosineSearchTemplate = `
SELECT id, project_id, embedding <=> ? as score
FROM %s
WHERE user_id = ?
ORDER BY score ASC
LIMIT ?`

	pgCosineSearchWithProjectTemplate = `
SELECT id, project_id, embedding <=> ? as score
FROM %s
WHERE user_id = ? AND project_id = ?
ORDER BY score ASC
LIMIT ?`
)

const pgCreateIndexTemplate = `
CREATE INDEX IF NOT EXISTS %s_embedding_idx
ON %s
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = 100)`

// ErrPgvectorInitializationFailed indicates pgvector setup failed.
var ErrPgvectorInitializationFailed = errors.New("failed to initialize pgvector store")

// pgEmbeddingRow is the row shape shared by both pgvector collection
// tables. The row ID is the document ID.
type pgEmbeddingRow struct {
	ID        int64             `gorm:"column:id;primaryKey"`
	UserID    int64             `gorm:"column:user_id"`
	ProjectID int64             `gorm:"column:project_id"`
	Embedding database.PgVector `gorm:"column:embedding;type:vector"`
}

// PostgresVectorStore implements search.VectorStore using the pgvector
// extension; nearest-neighbor ranking happens in the database with the
// cosine distance operator.
type PostgresVectorStore struct {
	db     database.Database
	logger *log.Logger
}

// NewPostgresVectorStore creates the store, the vector extension, and both
// collection tables with the configured dimension.
func NewPostgresVectorStore(ctx context.Context, db database.Database, dimension int, logger *log.Logger) (*PostgresVectorStore, error) {
	s := &PostgresVectorStore{db: db, logger: logger}

	if err := db.Session(ctx).Exec(pgCreateExtension).Error; err != nil {
		return nil, errors.Join(ErrPgvectorInitializationFailed, err)
	}

	for _, table := range []string{projectTable, chunkTable} {
		createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id BIGINT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    project_id BIGINT NOT NULL,
    embedding VECTOR(%d) NOT NULL
)`, table, dimension)
		if err := db.Session(ctx).Exec(createSQL).Error; err != nil {
			return nil, errors.Join(ErrPgvectorInitializationFailed, err)
		}

		scopeIndexSQL := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_user_project ON %s (user_id, project_id)`,
			table, table,
		)
		if err := db.Session(ctx).Exec(scopeIndexSQL).Error; err != nil {
			return nil, errors.Join(ErrPgvectorInitializationFailed, err)
		}

		// An ivfflat index needs rows to train on; creation can fail on an
		// empty table on some pgvector versions. Ranking still works
		// without it, just sequentially.
		indexSQL := fmt.Sprintf(pgCreateIndexTemplate, table, table)
		if err := db.Session(ctx).Exec(indexSQL).Error; err != nil {
			logger.Warn("failed to create ivfflat index", "table", table, "error", err)
		}
	}

	return s, nil
}

// Index writes documents with their vectors, replacing any existing vector
// per document ID.
func (s *PostgresVectorStore) Index(ctx context.Context, collection search.Collection, docs []search.Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("%w: %d documents, %d vectors", ErrVectorCountMismatch, len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	rows := make([]pgEmbeddingRow, len(docs))
	for i, doc := range docs {
		rows[i] = pgEmbeddingRow{
			ID:        doc.ID(),
			UserID:    doc.UserID(),
			ProjectID: doc.ProjectID(),
			Embedding: database.NewPgVector(vectors[i]),
		}
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Table(table).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "project_id", "embedding"}),
		}).Create(&rows).Error; err != nil {
			return fmt.Errorf("index into %s: %w", table, err)
		}
		return nil
	})
}

// Search ranks with the cosine distance operator in the database.
func (s *PostgresVectorStore) Search(ctx context.Context, collection search.Collection, query []float64, userID, projectID int64, topK int) ([]search.Result, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 || topK <= 0 {
		return []search.Result{}, nil
	}

	queryVec := database.NewPgVector(query)

	var rows []struct {
		ID        int64   `gorm:"column:id"`
		ProjectID int64   `gorm:"column:project_id"`
		Score     float64 `gorm:"column:score"`
	}

	var result *gorm.DB
	if projectID != 0 {
		searchSQL := fmt.Sprintf(pgCosineSearchWithProjectTemplate, table)
		result = s.db.Session(ctx).Raw(searchSQL, queryVec, userID, projectID, topK).Scan(&rows)
	} else {
		searchSQL := fmt.Sprintf(pgCosineSearchTemplate, table)
		result = s.db.Session(ctx).Raw(searchSQL, queryVec, userID, topK).Scan(&rows)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("search %s: %w", table, result.Error)
	}

	results := make([]search.Result, len(rows))
	for i, row := range rows {
		results[i] = search.NewResult(row.ID, row.ProjectID, 1-row.Score)
	}
	return results, nil
}

// Delete removes vectors by document ID.
func (s *PostgresVectorStore) Delete(ctx context.Context, collection search.Collection, ids []int64) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if result := s.db.Session(ctx).Table(table).Where("id IN ?", ids).Delete(&pgEmbeddingRow{}); result.Error != nil {
		return fmt.Errorf("delete from %s: %w", table, result.Error)
	}
	return nil
}

// DeleteByProject removes all of a project's vectors from a collection.
func (s *PostgresVectorStore) DeleteByProject(ctx context.Context, collection search.Collection, projectID int64) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	if result := s.db.Session(ctx).Table(table).Where("project_id = ?", projectID).Delete(&pgEmbeddingRow{}); result.Error != nil {
		return fmt.Errorf("delete project %d from %s: %w", projectID, table, result.Error)
	}
	return nil
}

var _ search.VectorStore = (*PostgresVectorStore)(nil)
