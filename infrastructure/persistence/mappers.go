package persistence

import (
	"encoding/json"
	"time"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/domain/user"
)

// UserMapper maps between domain User and UserModel.
type UserMapper struct{}

// ToDomain converts a UserModel to a domain User.
func (m UserMapper) ToDomain(e UserModel) user.User {
	return user.NewUserFull(e.ID, e.Login, e.APIKey, e.GitHubToken, e.CreatedAt, e.UpdatedAt)
}

// ToModel converts a domain User to a UserModel.
func (m UserMapper) ToModel(u user.User) UserModel {
	return UserModel{
		ID:          u.ID(),
		Login:       u.Login(),
		APIKey:      u.APIKey(),
		GitHubToken: u.GitHubToken(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	}
}

// ProjectMapper maps between domain Project and ProjectModel.
type ProjectMapper struct{}

// ToDomain converts a ProjectModel to a domain Project.
func (m ProjectMapper) ToDomain(e ProjectModel) project.Project {
	return project.NewProjectFull(
		e.ID,
		e.UserID,
		e.FullName,
		e.Title,
		e.RepoURL,
		e.Description,
		e.Ramble,
		project.Fingerprint(e.RambleFingerprint),
		e.Summary,
		e.Selected,
		timeFromPtr(e.LastProcessedAt),
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Project to a ProjectModel.
func (m ProjectMapper) ToModel(p project.Project) ProjectModel {
	return ProjectModel{
		ID:                p.ID(),
		UserID:            p.UserID(),
		FullName:          p.FullName(),
		Title:             p.Title(),
		RepoURL:           p.RepoURL(),
		Description:       p.Description(),
		Ramble:            p.Ramble(),
		RambleFingerprint: string(p.RambleFingerprint()),
		Summary:           p.Summary(),
		Selected:          p.Selected(),
		LastProcessedAt:   timeToPtr(p.LastProcessedAt()),
		CreatedAt:         p.CreatedAt(),
		UpdatedAt:         p.UpdatedAt(),
	}
}

// FileMapper maps between domain RepositoryFile and FileModel.
type FileMapper struct{}

// ToDomain converts a FileModel to a domain RepositoryFile.
func (m FileMapper) ToDomain(e FileModel) project.RepositoryFile {
	return project.NewRepositoryFileFull(
		e.ID,
		e.ProjectID,
		e.Path,
		e.Language,
		project.ContentClass(e.Class),
		project.Fingerprint(e.Fingerprint),
		e.Size,
		e.Content,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain RepositoryFile to a FileModel.
func (m FileMapper) ToModel(f project.RepositoryFile) FileModel {
	return FileModel{
		ID:          f.ID(),
		ProjectID:   f.ProjectID(),
		Path:        f.Path(),
		Language:    f.Language(),
		Class:       string(f.Class()),
		Fingerprint: string(f.Fingerprint()),
		Size:        f.Size(),
		Content:     f.Content(),
		CreatedAt:   f.CreatedAt(),
		UpdatedAt:   f.UpdatedAt(),
	}
}

// ChunkMapper maps between domain Chunk and ChunkModel.
type ChunkMapper struct{}

// ToDomain converts a ChunkModel to a domain Chunk.
func (m ChunkMapper) ToDomain(e ChunkModel) project.Chunk {
	return project.NewChunkFull(
		e.ID,
		e.ProjectID,
		e.FileID,
		e.ChunkIndex,
		project.ContentClass(e.Class),
		e.Content,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Chunk to a ChunkModel.
func (m ChunkMapper) ToModel(c project.Chunk) ChunkModel {
	return ChunkModel{
		ID:         c.ID(),
		ProjectID:  c.ProjectID(),
		FileID:     c.FileID(),
		ChunkIndex: c.Index(),
		Class:      string(c.Class()),
		Content:    c.Content(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
}

// RunMapper maps between domain ProcessingRun and RunModel.
type RunMapper struct{}

// ToDomain converts a RunModel to a domain ProcessingRun.
func (m RunMapper) ToDomain(e RunModel) run.ProcessingRun {
	var projectIDs []int64
	if len(e.ProjectIDs) > 0 {
		// A row written by this package always holds a valid JSON array.
		_ = json.Unmarshal(e.ProjectIDs, &projectIDs)
	}

	return run.NewProcessingRunFull(
		e.ID,
		e.Reference,
		e.UserID,
		run.State(e.State),
		e.Message,
		e.Error,
		projectIDs,
		e.ProjectsTotal,
		e.ProjectsProcessed,
		e.ProjectsFailed,
		e.FilesSkipped,
		e.ChunksEmbedded,
		timeFromPtr(e.StartedAt),
		timeFromPtr(e.FinishedAt),
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain ProcessingRun to a RunModel.
func (m RunMapper) ToModel(r run.ProcessingRun) RunModel {
	projectIDs, err := json.Marshal(r.ProjectIDs())
	if err != nil {
		projectIDs = []byte("[]")
	}

	return RunModel{
		ID:                r.ID(),
		Reference:         r.Reference(),
		UserID:            r.UserID(),
		State:             string(r.State()),
		Message:           r.Message(),
		Error:             r.Error(),
		ProjectIDs:        projectIDs,
		ProjectsTotal:     r.ProjectsTotal(),
		ProjectsProcessed: r.ProjectsProcessed(),
		ProjectsFailed:    r.ProjectsFailed(),
		FilesSkipped:      r.FilesSkipped(),
		ChunksEmbedded:    r.ChunksEmbedded(),
		StartedAt:         timeToPtr(r.StartedAt()),
		FinishedAt:        timeToPtr(r.FinishedAt()),
		CreatedAt:         r.CreatedAt(),
		UpdatedAt:         r.UpdatedAt(),
	}
}

// TaskMapper maps between domain Task and TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (m TaskMapper) ToDomain(e TaskModel) task.Task {
	var payload map[string]any
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &payload)
	}

	return task.NewTaskFull(
		e.ID,
		e.DedupKey,
		task.Operation(e.Operation),
		e.Priority,
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	)
}

// ToModel converts a domain Task to a TaskModel.
func (m TaskMapper) ToModel(t task.Task) TaskModel {
	payload, err := t.PayloadJSON()
	if err != nil {
		payload = []byte("{}")
	}

	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Operation: string(t.Operation()),
		Payload:   payload,
		Priority:  t.Priority(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

func timeToPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeFromPtr(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
