// Package service provides the application services that sit between the
// HTTP surface and the domain: user provisioning, project sync, run
// orchestration, the task queue worker, and resume generation.
package service

import (
	"context"

	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/internal/log"
)

// Queue enqueues background tasks.
type Queue struct {
	store  task.Store
	logger *log.Logger
}

// NewQueue creates a Queue.
func NewQueue(store task.Store, logger *log.Logger) *Queue {
	return &Queue{store: store, logger: logger}
}

// Enqueue adds a task to the queue. A task with the same dedup key
// collapses onto the already queued one.
func (q *Queue) Enqueue(ctx context.Context, t task.Task) (task.Task, error) {
	queued, err := q.store.Enqueue(ctx, t)
	if err != nil {
		return task.Task{}, err
	}

	q.logger.Debug("task enqueued",
		"task_id", queued.ID(),
		"dedup_key", queued.DedupKey(),
		"operation", queued.Operation().String(),
	)
	return queued, nil
}

// Count returns the number of queued tasks.
func (q *Queue) Count(ctx context.Context) (int64, error) {
	return q.store.Count(ctx)
}
