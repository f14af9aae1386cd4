package run

import (
	"context"

	"github.com/vitae-dev/vitae/domain/repository"
)

// Store defines persistence for processing runs.
type Store interface {
	repository.Store[ProcessingRun]

	// GetByReference resolves a run from its polling identifier.
	GetByReference(ctx context.Context, reference string) (ProcessingRun, error)

	// FindActive returns the user's pending or running runs.
	FindActive(ctx context.Context, userID int64) ([]ProcessingRun, error)
}

// WithReference filters by the "reference" column.
func WithReference(reference string) repository.Option {
	return repository.WithCondition("reference", reference)
}

// WithState filters by the "state" column.
func WithState(state State) repository.Option {
	return repository.WithCondition("state", string(state))
}

// WithStateIn filters by the "state" column using IN.
func WithStateIn(states []State) repository.Option {
	values := make([]string, len(states))
	for i, s := range states {
		values[i] = string(s)
	}
	return repository.WithConditionIn("state", values)
}
