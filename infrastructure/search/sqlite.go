package search

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Float64Slice stores a vector as a JSON array in a text column.
type Float64Slice []float64

// Value implements driver.Valuer.
func (f Float64Slice) Value() (driver.Value, error) {
	return json.Marshal([]float64(f))
}

// Scan implements sql.Scanner.
func (f *Float64Slice) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Float64Slice", value)
	}
	return json.Unmarshal(data, (*[]float64)(f))
}

// sqliteEmbeddingRow is the row shape shared by both collection tables.
// The row ID is the document ID (project or chunk), not a surrogate key,
// so indexing the same document replaces its vector.
type sqliteEmbeddingRow struct {
	ID        int64        `gorm:"column:id;primaryKey"`
	UserID    int64        `gorm:"column:user_id;index;not null"`
	ProjectID int64        `gorm:"column:project_id;index;not null"`
	Embedding Float64Slice `gorm:"column:embedding;type:json;not null"`
}

// SQLiteVectorStore implements search.VectorStore on SQLite. Vectors live
// in JSON columns; ranking happens in process, which is fine at the scale
// of one user's projects.
type SQLiteVectorStore struct {
	db     database.Database
	logger *log.Logger
}

// NewSQLiteVectorStore creates the store and both collection tables.
func NewSQLiteVectorStore(ctx context.Context, db database.Database, logger *log.Logger) (*SQLiteVectorStore, error) {
	s := &SQLiteVectorStore{db: db, logger: logger}

	for _, table := range []string{projectTable, chunkTable} {
		createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL,
    project_id INTEGER NOT NULL,
    embedding JSON NOT NULL
)`, table)
		if err := db.Session(ctx).Exec(createSQL).Error; err != nil {
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}

		indexSQL := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_user_project ON %s (user_id, project_id)`,
			table, table,
		)
		if err := db.Session(ctx).Exec(indexSQL).Error; err != nil {
			return nil, fmt.Errorf("create index on %s: %w", table, err)
		}
	}

	return s, nil
}

// Index writes documents with their vectors, replacing any existing vector
// per document ID.
func (s *SQLiteVectorStore) Index(ctx context.Context, collection search.Collection, docs []search.Document, vectors [][]float64) error {
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

	rows := make([]sqliteEmbeddingRow, len(docs))
	for i, doc := range docs {
		rows[i] = sqliteEmbeddingRow{
			ID:        doc.ID(),
			UserID:    doc.UserID(),
			ProjectID: doc.ProjectID(),
			Embedding: Float64Slice(vectors[i]),
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

// Search loads the user's candidate vectors and ranks them in process.
func (s *SQLiteVectorStore) Search(ctx context.Context, collection search.Collection, query []float64, userID, projectID int64, topK int) ([]search.Result, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 || topK <= 0 {
		return []search.Result{}, nil
	}

	db := s.db.Session(ctx).Table(table).Where("user_id = ?", userID)
	if projectID != 0 {
		db = db.Where("project_id = ?", projectID)
	}

	var rows []sqliteEmbeddingRow
	if result := db.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("load vectors from %s: %w", table, result.Error)
	}

	vectors := make([]storedVector, len(rows))
	for i, row := range rows {
		vectors[i] = storedVector{id: row.ID, projectID: row.ProjectID, embedding: row.Embedding}
	}

	s.logger.Debug("ranking vectors in process", "table", table, "candidates", len(vectors), "top_k", topK)
	return topKSimilar(query, vectors, topK), nil
}

// Delete removes vectors by document ID.
func (s *SQLiteVectorStore) Delete(ctx context.Context, collection search.Collection, ids []int64) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if result := s.db.Session(ctx).Table(table).Where("id IN ?", ids).Delete(&sqliteEmbeddingRow{}); result.Error != nil {
		return fmt.Errorf("delete from %s: %w", table, result.Error)
	}
	return nil
}

// DeleteByProject removes all of a project's vectors from a collection.
func (s *SQLiteVectorStore) DeleteByProject(ctx context.Context, collection search.Collection, projectID int64) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	if result := s.db.Session(ctx).Table(table).Where("project_id = ?", projectID).Delete(&sqliteEmbeddingRow{}); result.Error != nil {
		return fmt.Errorf("delete project %d from %s: %w", projectID, table, result.Error)
	}
	return nil
}

var _ search.VectorStore = (*SQLiteVectorStore)(nil)
