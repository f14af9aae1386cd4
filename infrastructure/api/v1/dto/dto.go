// Package dto defines the request and response bodies for the v1 API.
package dto

import "github.com/vitae-dev/vitae/infrastructure/api/jsonapi"

// ProvisionUserRequest is the POST /users body.
type ProvisionUserRequest struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

// UserAttributes is the user resource body.
type UserAttributes struct {
	Login     string           `json:"login"`
	APIKey    string           `json:"api_key,omitempty"`
	CreatedAt jsonapi.DateTime `json:"created_at"`
}

// ProjectAttributes is the project resource body.
type ProjectAttributes struct {
	FullName        string           `json:"full_name"`
	Title           string           `json:"title"`
	RepoURL         string           `json:"repo_url"`
	Description     string           `json:"description,omitempty"`
	Ramble          string           `json:"ramble,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	Selected        bool             `json:"selected"`
	FileCount       int64            `json:"file_count"`
	ChunkCount      int64            `json:"chunk_count"`
	LastProcessedAt jsonapi.DateTime `json:"last_processed_at"`
}

// SetRambleRequest is the PUT /projects/{id}/ramble body.
type SetRambleRequest struct {
	Ramble string `json:"ramble"`
}

// ProcessRequest is the POST /projects/process body.
type ProcessRequest struct {
	ProjectIDs []int64 `json:"project_ids"`
}

// RunAttributes is the processing-run resource body.
type RunAttributes struct {
	Status            string           `json:"status"`
	Message           string           `json:"message,omitempty"`
	Error             string           `json:"error,omitempty"`
	ProjectsTotal     int              `json:"projects_total"`
	ProjectsProcessed int              `json:"projects_processed"`
	ProjectsFailed    int              `json:"projects_failed"`
	FilesSkipped      int              `json:"files_skipped"`
	ChunksEmbedded    int              `json:"chunks_embedded"`
	StartedAt         jsonapi.DateTime `json:"started_at"`
	FinishedAt        jsonapi.DateTime `json:"finished_at"`
}

// ResumeRequest is the POST /resume body.
type ResumeRequest struct {
	JobDescription string `json:"job_description"`
	NProjects      int    `json:"n_projects"`
}

// ResumeEntryAttributes is one ranked entry in the resume response.
type ResumeEntryAttributes struct {
	Title          string   `json:"title"`
	RepoURL        string   `json:"repo_url"`
	Bullets        []string `json:"bullets"`
	Technologies   []string `json:"technologies"`
	AlignmentScore int      `json:"alignment_score"`
}
