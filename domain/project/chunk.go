package project

import (
	"errors"
	"time"
)

// Chunk is a bounded span of content derived from a repository file or from
// a project's ramble. Chunks are the unit of embedding and retrieval.
// Invariants: ordinal indices are unique within their source, and a project
// carries at most one ramble chunk at any time.
type Chunk struct {
	id        int64
	projectID int64
	fileID    int64 // zero for ramble chunks
	index     int
	class     ContentClass
	content   string
	createdAt time.Time
	updatedAt time.Time
}

// NewFileChunk creates a chunk derived from a repository file.
func NewFileChunk(projectID, fileID int64, index int, class ContentClass, content string) (Chunk, error) {
	if projectID == 0 || fileID == 0 {
		return Chunk{}, errors.New("project id and file id are required")
	}
	if content == "" {
		return Chunk{}, errors.New("chunk content is required")
	}
	if !class.IsValid() || class == ClassRamble {
		return Chunk{}, errors.New("file chunks must be code or informational")
	}
	return Chunk{
		projectID: projectID,
		fileID:    fileID,
		index:     index,
		class:     class,
		content:   content,
	}, nil
}

// NewRambleChunk creates the single ramble chunk for a project. Ramble
// chunks have no owning file and always use index zero.
func NewRambleChunk(projectID int64, content string) (Chunk, error) {
	if projectID == 0 {
		return Chunk{}, errors.New("project id is required")
	}
	if content == "" {
		return Chunk{}, errors.New("chunk content is required")
	}
	return Chunk{
		projectID: projectID,
		class:     ClassRamble,
		content:   content,
	}, nil
}

// NewChunkFull creates a Chunk with all fields (used by persistence).
func NewChunkFull(id, projectID, fileID int64, index int, class ContentClass, content string, createdAt, updatedAt time.Time) Chunk {
	return Chunk{
		id:        id,
		projectID: projectID,
		fileID:    fileID,
		index:     index,
		class:     class,
		content:   content,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the chunk ID.
func (c Chunk) ID() int64 { return c.id }

// ProjectID returns the owning project's ID.
func (c Chunk) ProjectID() int64 { return c.projectID }

// FileID returns the owning file's ID, or zero for ramble chunks.
func (c Chunk) FileID() int64 { return c.fileID }

// Index returns the ordinal position within the chunk's source.
func (c Chunk) Index() int { return c.index }

// Class returns the chunk type (code, informational, or ramble).
func (c Chunk) Class() ContentClass { return c.class }

// Content returns the chunk text.
func (c Chunk) Content() string { return c.content }

// CreatedAt returns when the chunk was created.
func (c Chunk) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the chunk was last updated.
func (c Chunk) UpdatedAt() time.Time { return c.updatedAt }

// IsRamble reports whether this is the project's ramble chunk.
func (c Chunk) IsRamble() bool { return c.class == ClassRamble }

// WithID returns a copy with the ID set.
func (c Chunk) WithID(id int64) Chunk {
	c.id = id
	return c
}
