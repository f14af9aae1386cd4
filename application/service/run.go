package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
)

// ErrRunActive indicates the user already has a pending or running
// processing run. Concurrent runs for one user are rejected, not queued.
var ErrRunActive = errors.New("a processing run is already active for this user")

// ErrRunNotFound indicates no run matches the reference for this user.
var ErrRunNotFound = errors.New("processing run not found")

// RunService creates pollable processing runs and enqueues the work that
// executes them.
type RunService struct {
	runs   run.Store
	queue  *Queue
	logger *log.Logger
}

// NewRunService creates a RunService.
func NewRunService(runs run.Store, queue *Queue, logger *log.Logger) *RunService {
	return &RunService{runs: runs, queue: queue, logger: logger}
}

// Trigger creates a pending run over the given projects and enqueues its
// processing task. At most one run per user may be active.
func (s *RunService) Trigger(ctx context.Context, userID int64, projectIDs []int64) (run.ProcessingRun, error) {
	active, err := s.runs.FindActive(ctx, userID)
	if err != nil {
		return run.ProcessingRun{}, fmt.Errorf("failed to check active runs: %w", err)
	}
	if len(active) > 0 {
		return run.ProcessingRun{}, fmt.Errorf("%w: %s", ErrRunActive, active[0].Reference())
	}

	r, err := run.NewProcessingRun(userID, projectIDs)
	if err != nil {
		return run.ProcessingRun{}, err
	}
	saved, err := s.runs.Save(ctx, r)
	if err != nil {
		return run.ProcessingRun{}, fmt.Errorf("failed to create run: %w", err)
	}

	t := task.NewTask(task.OperationProcessRun, task.PriorityUserInitiated, map[string]any{
		task.PayloadRunReference: saved.Reference(),
		task.PayloadUserID:       userID,
	})
	if _, err := s.queue.Enqueue(ctx, t); err != nil {
		return run.ProcessingRun{}, fmt.Errorf("failed to enqueue run: %w", err)
	}

	s.logger.Info("processing run triggered",
		"user_id", userID, "run_reference", saved.Reference(), "projects", len(projectIDs))
	return saved, nil
}

// Get returns the user's run for a polling reference.
func (s *RunService) Get(ctx context.Context, userID int64, reference string) (run.ProcessingRun, error) {
	r, err := s.runs.GetByReference(ctx, reference)
	if errors.Is(err, database.ErrNotFound) {
		return run.ProcessingRun{}, ErrRunNotFound
	}
	if err != nil {
		return run.ProcessingRun{}, fmt.Errorf("failed to get run: %w", err)
	}
	if r.UserID() != userID {
		return run.ProcessingRun{}, ErrRunNotFound
	}
	return r, nil
}
