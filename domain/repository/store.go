package repository

import "context"

// Store is the generic persistence surface shared by domain stores.
// Implementations live in infrastructure/persistence and wrap the generic
// database repository; domain store interfaces embed Store and add their
// entity-specific operations.
type Store[T any] interface {
	Find(ctx context.Context, options ...Option) ([]T, error)
	FindOne(ctx context.Context, options ...Option) (T, error)
	Exists(ctx context.Context, options ...Option) (bool, error)
	Count(ctx context.Context, options ...Option) (int64, error)
	Save(ctx context.Context, entity T) (T, error)
	DeleteBy(ctx context.Context, options ...Option) error
}
