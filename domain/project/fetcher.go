package project

import "context"

// RemoteRepo is repository metadata as reported by the code host.
type RemoteRepo struct {
	fullName    string
	description string
	htmlURL     string
}

// NewRemoteRepo creates a RemoteRepo.
func NewRemoteRepo(fullName, description, htmlURL string) RemoteRepo {
	return RemoteRepo{fullName: fullName, description: description, htmlURL: htmlURL}
}

// FullName returns the "owner/name" identity.
func (r RemoteRepo) FullName() string { return r.fullName }

// Description returns the code-host description.
func (r RemoteRepo) Description() string { return r.description }

// HTMLURL returns the repository's web URL.
func (r RemoteRepo) HTMLURL() string { return r.htmlURL }

// RemoteFile is one fetched file: a repository-relative path and its
// decoded content.
type RemoteFile struct {
	path    string
	content string
}

// NewRemoteFile creates a RemoteFile.
func NewRemoteFile(path, content string) RemoteFile {
	return RemoteFile{path: path, content: content}
}

// Path returns the repository-relative path.
func (f RemoteFile) Path() string { return f.path }

// Content returns the decoded file content.
func (f RemoteFile) Content() string { return f.content }

// Fetcher retrieves repository metadata and file contents from the code
// host on behalf of a user. Implementations apply the extension allow-list,
// the excluded-directory prefixes, and the file size cap before returning.
type Fetcher interface {
	// ListRepositories returns the repositories visible to the token.
	ListRepositories(ctx context.Context, token string) ([]RemoteRepo, error)

	// FetchFiles walks a repository tree and returns every file passing
	// the fetch filters, with content decoded.
	FetchFiles(ctx context.Context, token, fullName string) ([]RemoteFile, error)
}
