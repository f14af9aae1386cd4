// Package search defines the vector-index domain: documents, results, the
// two-granularity store interface, and the embedder abstraction.
package search

import "context"

// Collection names one of the two vector granularities in the hybrid index.
type Collection string

// Collection values. Project summaries form the coarse stage-1 collection
// (few vectors per user); chunks form the fine stage-2 collection (many
// vectors, always queried scoped to one project).
const (
	CollectionProjects Collection = "projects"
	CollectionChunks   Collection = "chunks"
)

// IsValid reports whether the collection is known.
func (c Collection) IsValid() bool {
	return c == CollectionProjects || c == CollectionChunks
}

// String returns the collection name.
func (c Collection) String() string { return string(c) }

// Document is one unit to be indexed: a project summary or a chunk.
type Document struct {
	id        int64
	userID    int64
	projectID int64
	text      string
}

// NewDocument creates a Document. For the projects collection, id and
// projectID are the same value.
func NewDocument(id, userID, projectID int64, text string) Document {
	return Document{id: id, userID: userID, projectID: projectID, text: text}
}

// ID returns the document ID (project ID or chunk ID by collection).
func (d Document) ID() int64 { return d.id }

// UserID returns the owning user's ID.
func (d Document) UserID() int64 { return d.userID }

// ProjectID returns the owning project's ID.
func (d Document) ProjectID() int64 { return d.projectID }

// Text returns the text to embed.
func (d Document) Text() string { return d.text }

// Result is one nearest-neighbor match.
type Result struct {
	id        int64
	projectID int64
	score     float64
}

// NewResult creates a Result. Score is cosine similarity in [-1, 1].
func NewResult(id, projectID int64, score float64) Result {
	return Result{id: id, projectID: projectID, score: score}
}

// ID returns the matched document's ID.
func (r Result) ID() int64 { return r.id }

// ProjectID returns the owning project's ID.
func (r Result) ProjectID() int64 { return r.projectID }

// Score returns the similarity score.
func (r Result) Score() float64 { return r.score }

// Embedder converts text into embedding vectors, one per input, in order.
// A position may carry a nil vector when its text could not be embedded;
// such partial failures are also reported through the returned error.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore persists embeddings at both granularities and answers
// nearest-neighbor queries.
type VectorStore interface {
	// Index writes documents with their pre-computed vectors into a
	// collection, replacing any existing vector per document ID.
	Index(ctx context.Context, collection Collection, docs []Document, vectors [][]float64) error

	// Search returns the top-k nearest documents to the query vector.
	// A zero projectID searches the whole collection scoped to the user;
	// a non-zero projectID restricts stage-2 queries to one project.
	Search(ctx context.Context, collection Collection, query []float64, userID, projectID int64, topK int) ([]Result, error)

	// Delete removes vectors by document ID.
	Delete(ctx context.Context, collection Collection, ids []int64) error

	// DeleteByProject removes all of a project's vectors from a collection.
	DeleteByProject(ctx context.Context, collection Collection, projectID int64) error
}
