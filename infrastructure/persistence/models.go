// Package persistence provides GORM-backed implementations of the domain
// store interfaces.
package persistence

import (
	"encoding/json"
	"time"
)

// UserModel represents a user in the database.
type UserModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Login       string    `gorm:"column:login;uniqueIndex;size:255;not null"`
	APIKey      string    `gorm:"column:api_key;uniqueIndex;size:255;not null"`
	GitHubToken string    `gorm:"column:github_token;size:512"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (UserModel) TableName() string {
	return "users"
}

// ProjectModel represents a tracked repository in the database.
type ProjectModel struct {
	ID                int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID            int64      `gorm:"column:user_id;index;uniqueIndex:idx_projects_user_full_name;not null"`
	FullName          string     `gorm:"column:full_name;uniqueIndex:idx_projects_user_full_name;size:512;not null"`
	Title             string     `gorm:"column:title;size:255"`
	RepoURL           string     `gorm:"column:repo_url;size:1024"`
	Description       string     `gorm:"column:description;type:text"`
	Ramble            string     `gorm:"column:ramble;type:text"`
	RambleFingerprint string     `gorm:"column:ramble_fingerprint;size:64"`
	Summary           string     `gorm:"column:summary;type:text"`
	Selected          bool       `gorm:"column:selected;index;default:false"`
	LastProcessedAt   *time.Time `gorm:"column:last_processed_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (ProjectModel) TableName() string {
	return "projects"
}

// FileModel represents an ingested repository file in the database.
type FileModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID   int64     `gorm:"column:project_id;index;uniqueIndex:idx_files_project_path;not null"`
	Path        string    `gorm:"column:path;uniqueIndex:idx_files_project_path;size:1024;not null"`
	Language    string    `gorm:"column:language;index;size:64"`
	Class       string    `gorm:"column:class;index;size:32"`
	Fingerprint string    `gorm:"column:fingerprint;size:64"`
	Size        int       `gorm:"column:size"`
	Content     string    `gorm:"column:content;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (FileModel) TableName() string {
	return "repository_files"
}

// ChunkModel represents one embeddable unit in the database. A ramble
// chunk carries file_id 0 and chunk_index 0, so the uniqueness constraint
// also holds one ramble chunk per project.
type ChunkModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID  int64     `gorm:"column:project_id;index;uniqueIndex:idx_chunks_project_file_index;not null"`
	FileID     int64     `gorm:"column:file_id;index;uniqueIndex:idx_chunks_project_file_index"`
	ChunkIndex int       `gorm:"column:chunk_index;uniqueIndex:idx_chunks_project_file_index"`
	Class      string    `gorm:"column:class;index;size:32;not null"`
	Content    string    `gorm:"column:content;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (ChunkModel) TableName() string {
	return "chunks"
}

// RunModel represents a processing run in the database.
type RunModel struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Reference         string          `gorm:"column:reference;uniqueIndex;size:64;not null"`
	UserID            int64           `gorm:"column:user_id;index;not null"`
	State             string          `gorm:"column:state;index;size:32;not null"`
	Message           string          `gorm:"column:message;type:text"`
	Error             string          `gorm:"column:error;type:text"`
	ProjectIDs        json.RawMessage `gorm:"column:project_ids;type:json"`
	ProjectsTotal     int             `gorm:"column:projects_total;default:0"`
	ProjectsProcessed int             `gorm:"column:projects_processed;default:0"`
	ProjectsFailed    int             `gorm:"column:projects_failed;default:0"`
	FilesSkipped      int             `gorm:"column:files_skipped;default:0"`
	ChunksEmbedded    int             `gorm:"column:chunks_embedded;default:0"`
	StartedAt         *time.Time      `gorm:"column:started_at"`
	FinishedAt        *time.Time      `gorm:"column:finished_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (RunModel) TableName() string {
	return "processing_runs"
}

// TaskModel represents a queued task in the database.
type TaskModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string          `gorm:"column:dedup_key;uniqueIndex;size:255;not null"`
	Operation string          `gorm:"column:operation;index;size:255;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:json"`
	Priority  int             `gorm:"column:priority;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}
