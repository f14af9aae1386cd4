package task

import (
	"context"
	"errors"

	"github.com/vitae-dev/vitae/domain/repository"
)

// ErrEmpty indicates the queue has no tasks.
var ErrEmpty = errors.New("task queue is empty")

// Store defines persistence for queued tasks.
type Store interface {
	// Enqueue inserts the task unless one with the same dedup key exists.
	Enqueue(ctx context.Context, t Task) (Task, error)

	// Next returns the highest-priority oldest task, or ErrEmpty.
	Next(ctx context.Context) (Task, error)

	// Claim removes the task so exactly one caller executes it. Reports
	// false when another caller already claimed it.
	Claim(ctx context.Context, id int64) (bool, error)

	// Delete removes a task after processing.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of queued tasks matching the options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

// WithOperation filters by the "operation" column.
func WithOperation(op Operation) repository.Option {
	return repository.WithCondition("operation", string(op))
}
