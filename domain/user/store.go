package user

import (
	"context"

	"github.com/vitae-dev/vitae/domain/repository"
)

// Store defines persistence for users.
type Store interface {
	repository.Store[User]

	// GetByAPIKey resolves a user from a request API key.
	GetByAPIKey(ctx context.Context, apiKey string) (User, error)

	// GetByLogin resolves a user from a GitHub login.
	GetByLogin(ctx context.Context, login string) (User, error)
}

// WithLogin filters by the "login" column.
func WithLogin(login string) repository.Option {
	return repository.WithCondition("login", login)
}
