// Package project provides the domain types for ingested repositories:
// projects, their files, derived chunks, content classification, and
// fingerprint-based change detection.
package project

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidProject indicates missing required project fields.
var ErrInvalidProject = errors.New("invalid project")

// Project represents one ingested repository belonging to one user.
// A project is unique per (user, full repository name) and is updated in
// place on re-processing, never duplicated.
type Project struct {
	id                int64
	userID            int64
	fullName          string
	title             string
	repoURL           string
	description       string
	ramble            string
	rambleFingerprint Fingerprint
	summary           string
	selected          bool
	lastProcessedAt   time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewProject creates a Project for a user from repository identity fields.
func NewProject(userID int64, fullName, title, repoURL string) (Project, error) {
	fullName = strings.TrimSpace(fullName)
	if userID == 0 {
		return Project{}, errors.New("user id is required")
	}
	if fullName == "" {
		return Project{}, errors.New("repository full name is required")
	}
	if title == "" {
		title = fullName
		if i := strings.LastIndex(fullName, "/"); i >= 0 {
			title = fullName[i+1:]
		}
	}
	return Project{
		userID:   userID,
		fullName: fullName,
		title:    title,
		repoURL:  repoURL,
	}, nil
}

// NewProjectFull creates a Project with all fields (used by persistence).
func NewProjectFull(
	id, userID int64,
	fullName, title, repoURL, description string,
	ramble string,
	rambleFingerprint Fingerprint,
	summary string,
	selected bool,
	lastProcessedAt, createdAt, updatedAt time.Time,
) Project {
	return Project{
		id:                id,
		userID:            userID,
		fullName:          fullName,
		title:             title,
		repoURL:           repoURL,
		description:       description,
		ramble:            ramble,
		rambleFingerprint: rambleFingerprint,
		summary:           summary,
		selected:          selected,
		lastProcessedAt:   lastProcessedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the project ID.
func (p Project) ID() int64 { return p.id }

// UserID returns the owning user's ID.
func (p Project) UserID() int64 { return p.userID }

// FullName returns the "owner/name" repository identity.
func (p Project) FullName() string { return p.fullName }

// Title returns the display title.
func (p Project) Title() string { return p.title }

// RepoURL returns the external repository URL.
func (p Project) RepoURL() string { return p.repoURL }

// Description returns the code-host description, if any.
func (p Project) Description() string { return p.description }

// Ramble returns the user-authored narrative for the project.
func (p Project) Ramble() string { return p.ramble }

// RambleFingerprint returns the fingerprint of the ramble text at the time
// it was last processed. An empty fingerprint means the ramble has never
// been processed.
func (p Project) RambleFingerprint() Fingerprint { return p.rambleFingerprint }

// Summary returns the generated project summary, if any.
func (p Project) Summary() string { return p.summary }

// Selected reports whether the project participates in processing and
// retrieval.
func (p Project) Selected() bool { return p.selected }

// LastProcessedAt returns when the project last completed processing.
func (p Project) LastProcessedAt() time.Time { return p.lastProcessedAt }

// CreatedAt returns when the project was created.
func (p Project) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns when the project was last updated.
func (p Project) UpdatedAt() time.Time { return p.updatedAt }

// HasSummary reports whether a summary has been generated.
func (p Project) HasSummary() bool { return strings.TrimSpace(p.summary) != "" }

// HasRamble reports whether the user has written a ramble.
func (p Project) HasRamble() bool { return strings.TrimSpace(p.ramble) != "" }

// RambleChanged reports whether the current ramble text differs from the
// ramble processed last run. An edited ramble forces re-summarization even
// when every file is unchanged.
func (p Project) RambleChanged() bool {
	if !p.HasRamble() {
		return false
	}
	return NewFingerprint(p.ramble) != p.rambleFingerprint
}

// WithID returns a copy with the ID set.
func (p Project) WithID(id int64) Project {
	p.id = id
	return p
}

// WithDescription returns a copy with the description replaced.
func (p Project) WithDescription(description string) Project {
	p.description = description
	return p
}

// WithRamble returns a copy with the ramble text replaced. The stored
// fingerprint is left alone so the edit is visible to RambleChanged.
func (p Project) WithRamble(ramble string) Project {
	p.ramble = ramble
	return p
}

// WithRambleFingerprint returns a copy with the processed-ramble
// fingerprint replaced.
func (p Project) WithRambleFingerprint(fp Fingerprint) Project {
	p.rambleFingerprint = fp
	return p
}

// WithSummary returns a copy with the generated summary replaced.
func (p Project) WithSummary(summary string) Project {
	p.summary = summary
	return p
}

// WithSelected returns a copy with the selected flag set.
func (p Project) WithSelected(selected bool) Project {
	p.selected = selected
	return p
}

// WithLastProcessedAt returns a copy with the processing timestamp set.
func (p Project) WithLastProcessedAt(t time.Time) Project {
	p.lastProcessedAt = t
	return p
}
