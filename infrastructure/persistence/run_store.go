package persistence

import (
	"context"

	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/internal/database"
)

// RunStore implements run.Store using GORM.
type RunStore struct {
	database.Repository[run.ProcessingRun, RunModel]
}

// NewRunStore creates a RunStore.
func NewRunStore(db database.Database) RunStore {
	return RunStore{
		Repository: database.NewRepository[run.ProcessingRun, RunModel](db, RunMapper{}, "run"),
	}
}

// GetByReference resolves a run from its polling identifier.
func (s RunStore) GetByReference(ctx context.Context, reference string) (run.ProcessingRun, error) {
	return s.FindOne(ctx, run.WithReference(reference))
}

// FindActive returns the user's pending or running runs.
func (s RunStore) FindActive(ctx context.Context, userID int64) ([]run.ProcessingRun, error) {
	return s.Find(ctx,
		repository.WithUserID(userID),
		run.WithStateIn([]run.State{run.StatePending, run.StateRunning}),
	)
}

var _ run.Store = RunStore{}
