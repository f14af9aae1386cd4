package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
)

// Table names for the two vector collections.
const (
	projectTable = "vitae_project_embeddings"
	chunkTable   = "vitae_chunk_embeddings"
)

// ErrVectorCountMismatch indicates Index was called with a different number
// of vectors than documents.
var ErrVectorCountMismatch = errors.New("document and vector counts differ")

// ErrUnknownCollection indicates an unrecognized collection name.
var ErrUnknownCollection = errors.New("unknown collection")

func tableFor(collection search.Collection) (string, error) {
	switch collection {
	case search.CollectionProjects:
		return projectTable, nil
	case search.CollectionChunks:
		return chunkTable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
}

// NewVectorStore creates the vector store matching the database driver:
// pgvector-backed on PostgreSQL, JSON columns with in-process cosine
// ranking on SQLite. The dimension only constrains the pgvector column
// type; SQLite stores vectors of any length.
func NewVectorStore(ctx context.Context, db database.Database, dimension int, logger *log.Logger) (search.VectorStore, error) {
	if db.IsPostgres() {
		return NewPostgresVectorStore(ctx, db, dimension, logger)
	}
	return NewSQLiteVectorStore(ctx, db, logger)
}
