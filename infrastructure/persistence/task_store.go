package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore implements task.Store using GORM.
type TaskStore struct {
	database.Repository[task.Task, TaskModel]
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(db database.Database) TaskStore {
	return TaskStore{
		Repository: database.NewRepository[task.Task, TaskModel](db, TaskMapper{}, "task"),
	}
}

// Enqueue inserts the task unless one with the same dedup key is already
// queued, in which case the queued task is returned unchanged.
func (s TaskStore) Enqueue(ctx context.Context, t task.Task) (task.Task, error) {
	model := s.Mapper().ToModel(t)

	result := s.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return task.Task{}, fmt.Errorf("enqueue task: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return s.FindOne(ctx, repository.WithCondition("dedup_key", t.DedupKey()))
	}
	return s.Mapper().ToDomain(model), nil
}

// Next returns the highest-priority oldest task, or task.ErrEmpty.
func (s TaskStore) Next(ctx context.Context) (task.Task, error) {
	var model TaskModel
	result := s.DB(ctx).
		Order("priority DESC").
		Order("created_at ASC").
		Order("id ASC").
		First(&model)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return task.Task{}, task.ErrEmpty
	}
	if result.Error != nil {
		return task.Task{}, fmt.Errorf("next task: %w", result.Error)
	}
	return s.Mapper().ToDomain(model), nil
}

// Claim atomically removes the task so exactly one worker executes it. The
// rows-affected check is what arbitrates between concurrent pollers that
// both saw the task from Next.
func (s TaskStore) Claim(ctx context.Context, id int64) (bool, error) {
	result := s.DB(ctx).Where("id = ?", id).Delete(&TaskModel{})
	if result.Error != nil {
		return false, fmt.Errorf("claim task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a task after processing.
func (s TaskStore) Delete(ctx context.Context, id int64) error {
	return s.DeleteBy(ctx, repository.WithID(id))
}

var _ task.Store = TaskStore{}
