// Package run provides the processing-run domain type: the pollable record
// of one asynchronous ingestion request and its state machine.
package run

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a processing run.
type State string

// State values. Runs move pending -> running -> done|error and never
// backwards. Partial per-project failures still end in done; error is
// reserved for failures that prevented any progress.
const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

// ErrInvalidTransition indicates a disallowed state change.
var ErrInvalidTransition = errors.New("invalid run state transition")

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateError
}

// CanTransitionTo reports whether the state machine allows moving to next.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StatePending:
		return next == StateRunning || next == StateError
	case StateRunning:
		return next == StateDone || next == StateError
	default:
		return false
	}
}

// ProcessingRun tracks one asynchronous processing request for a user.
type ProcessingRun struct {
	id                int64
	reference         string
	userID            int64
	state             State
	message           string
	errorMessage      string
	projectIDs        []int64
	projectsTotal     int
	projectsProcessed int
	projectsFailed    int
	filesSkipped      int
	chunksEmbedded    int
	startedAt         time.Time
	finishedAt        time.Time
	createdAt         time.Time
	updatedAt         time.Time
}

// NewProcessingRun creates a pending run for the given user and project
// set. The reference is the opaque identifier callers poll with.
func NewProcessingRun(userID int64, projectIDs []int64) (ProcessingRun, error) {
	if userID == 0 {
		return ProcessingRun{}, errors.New("user id is required")
	}
	ids := make([]int64, len(projectIDs))
	copy(ids, projectIDs)
	return ProcessingRun{
		reference:     uuid.New().String(),
		userID:        userID,
		state:         StatePending,
		projectIDs:    ids,
		projectsTotal: len(ids),
	}, nil
}

// NewProcessingRunFull creates a ProcessingRun with all fields (used by
// persistence).
func NewProcessingRunFull(
	id int64,
	reference string,
	userID int64,
	state State,
	message, errorMessage string,
	projectIDs []int64,
	projectsTotal, projectsProcessed, projectsFailed, filesSkipped, chunksEmbedded int,
	startedAt, finishedAt, createdAt, updatedAt time.Time,
) ProcessingRun {
	ids := make([]int64, len(projectIDs))
	copy(ids, projectIDs)
	return ProcessingRun{
		id:                id,
		reference:         reference,
		userID:            userID,
		state:             state,
		message:           message,
		errorMessage:      errorMessage,
		projectIDs:        ids,
		projectsTotal:     projectsTotal,
		projectsProcessed: projectsProcessed,
		projectsFailed:    projectsFailed,
		filesSkipped:      filesSkipped,
		chunksEmbedded:    chunksEmbedded,
		startedAt:         startedAt,
		finishedAt:        finishedAt,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the run's database ID.
func (r ProcessingRun) ID() int64 { return r.id }

// Reference returns the opaque identifier used in status polling.
func (r ProcessingRun) Reference() string { return r.reference }

// UserID returns the requesting user's ID.
func (r ProcessingRun) UserID() int64 { return r.userID }

// State returns the current lifecycle state.
func (r ProcessingRun) State() State { return r.state }

// Message returns the human-readable progress message.
func (r ProcessingRun) Message() string { return r.message }

// Error returns the run-fatal error message, if any.
func (r ProcessingRun) Error() string { return r.errorMessage }

// ProjectIDs returns the projects the run covers.
func (r ProcessingRun) ProjectIDs() []int64 {
	ids := make([]int64, len(r.projectIDs))
	copy(ids, r.projectIDs)
	return ids
}

// ProjectsTotal returns how many projects the run covers.
func (r ProcessingRun) ProjectsTotal() int { return r.projectsTotal }

// ProjectsProcessed returns how many projects completed.
func (r ProcessingRun) ProjectsProcessed() int { return r.projectsProcessed }

// ProjectsFailed returns how many projects failed entirely.
func (r ProcessingRun) ProjectsFailed() int { return r.projectsFailed }

// FilesSkipped returns how many files were skipped as unchanged.
func (r ProcessingRun) FilesSkipped() int { return r.filesSkipped }

// ChunksEmbedded returns how many chunk embeddings were written.
func (r ProcessingRun) ChunksEmbedded() int { return r.chunksEmbedded }

// StartedAt returns when processing began.
func (r ProcessingRun) StartedAt() time.Time { return r.startedAt }

// FinishedAt returns when the run reached a terminal state.
func (r ProcessingRun) FinishedAt() time.Time { return r.finishedAt }

// CreatedAt returns when the run was requested.
func (r ProcessingRun) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the run was last updated.
func (r ProcessingRun) UpdatedAt() time.Time { return r.updatedAt }

// IsActive reports whether the run is pending or running.
func (r ProcessingRun) IsActive() bool { return !r.state.IsTerminal() }

// WithID returns a copy with the database ID set.
func (r ProcessingRun) WithID(id int64) ProcessingRun {
	r.id = id
	return r
}

// Start transitions the run to running.
func (r ProcessingRun) Start() (ProcessingRun, error) {
	if !r.state.CanTransitionTo(StateRunning) {
		return r, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, StateRunning)
	}
	r.state = StateRunning
	r.startedAt = time.Now().UTC()
	r.updatedAt = r.startedAt
	return r, nil
}

// Complete transitions the run to done with a final summary message.
// Partial per-project failures still complete: they are reported in the
// message and counters, not as a run-level error.
func (r ProcessingRun) Complete(message string) (ProcessingRun, error) {
	if !r.state.CanTransitionTo(StateDone) {
		return r, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, StateDone)
	}
	r.state = StateDone
	r.message = message
	r.finishedAt = time.Now().UTC()
	r.updatedAt = r.finishedAt
	return r, nil
}

// Fail transitions the run to error with a human-readable cause.
func (r ProcessingRun) Fail(errorMessage string) (ProcessingRun, error) {
	if !r.state.CanTransitionTo(StateError) {
		return r, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, StateError)
	}
	r.state = StateError
	r.errorMessage = errorMessage
	r.finishedAt = time.Now().UTC()
	r.updatedAt = r.finishedAt
	return r, nil
}

// WithProgress returns a copy with the progress message replaced.
func (r ProcessingRun) WithProgress(message string) ProcessingRun {
	r.message = message
	r.updatedAt = time.Now().UTC()
	return r
}

// RecordProject accumulates one finished project into the counters.
func (r ProcessingRun) RecordProject(failed bool, filesSkipped, chunksEmbedded int) ProcessingRun {
	if failed {
		r.projectsFailed++
	} else {
		r.projectsProcessed++
	}
	r.filesSkipped += filesSkipped
	r.chunksEmbedded += chunksEmbedded
	r.updatedAt = time.Now().UTC()
	return r
}
