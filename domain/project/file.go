package project

import (
	"errors"
	"strings"
	"time"
)

// RepositoryFile represents one file within a project that passed the
// fetch-time extension and size filters. Unique per (project, path).
type RepositoryFile struct {
	id          int64
	projectID   int64
	path        string
	language    string
	class       ContentClass
	fingerprint Fingerprint
	size        int
	content     string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewRepositoryFile creates a RepositoryFile from fetched content. The
// language and classification are derived from the path; the fingerprint
// from the content.
func NewRepositoryFile(projectID int64, path, content string) (RepositoryFile, error) {
	path = strings.TrimSpace(path)
	if projectID == 0 {
		return RepositoryFile{}, errors.New("project id is required")
	}
	if path == "" {
		return RepositoryFile{}, errors.New("file path is required")
	}
	return RepositoryFile{
		projectID:   projectID,
		path:        path,
		language:    LanguageForPath(path),
		class:       Classify(path),
		fingerprint: NewFingerprint(content),
		size:        len(content),
		content:     content,
	}, nil
}

// NewRepositoryFileFull creates a RepositoryFile with all fields (used by
// persistence).
func NewRepositoryFileFull(
	id, projectID int64,
	path, language string,
	class ContentClass,
	fingerprint Fingerprint,
	size int,
	content string,
	createdAt, updatedAt time.Time,
) RepositoryFile {
	return RepositoryFile{
		id:          id,
		projectID:   projectID,
		path:        path,
		language:    language,
		class:       class,
		fingerprint: fingerprint,
		size:        size,
		content:     content,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the file ID.
func (f RepositoryFile) ID() int64 { return f.id }

// ProjectID returns the owning project's ID.
func (f RepositoryFile) ProjectID() int64 { return f.projectID }

// Path returns the repository-relative path.
func (f RepositoryFile) Path() string { return f.path }

// Language returns the detected language, or "" when unknown.
func (f RepositoryFile) Language() string { return f.language }

// Class returns the content classification bucket.
func (f RepositoryFile) Class() ContentClass { return f.class }

// Fingerprint returns the content fingerprint.
func (f RepositoryFile) Fingerprint() Fingerprint { return f.fingerprint }

// Size returns the content length in bytes at fetch time.
func (f RepositoryFile) Size() int { return f.size }

// Content returns the file content.
func (f RepositoryFile) Content() string { return f.content }

// CreatedAt returns when the file row was created.
func (f RepositoryFile) CreatedAt() time.Time { return f.createdAt }

// UpdatedAt returns when the file row was last updated.
func (f RepositoryFile) UpdatedAt() time.Time { return f.updatedAt }

// Extension returns the lowercase path extension without the dot.
func (f RepositoryFile) Extension() string { return extensionOf(f.path) }

// WithID returns a copy with the ID set.
func (f RepositoryFile) WithID(id int64) RepositoryFile {
	f.id = id
	return f
}

// WithFingerprint returns a copy with the fingerprint replaced.
func (f RepositoryFile) WithFingerprint(fp Fingerprint) RepositoryFile {
	f.fingerprint = fp
	return f
}

// WithContent returns a copy with content, size, and fingerprint replaced.
func (f RepositoryFile) WithContent(content string) RepositoryFile {
	f.content = content
	f.size = len(content)
	f.fingerprint = NewFingerprint(content)
	return f
}

func extensionOf(path string) string {
	base := path
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
