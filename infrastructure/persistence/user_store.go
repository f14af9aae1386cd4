package persistence

import (
	"context"

	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/internal/database"
)

// UserStore implements user.Store using GORM.
type UserStore struct {
	database.Repository[user.User, UserModel]
}

// NewUserStore creates a UserStore.
func NewUserStore(db database.Database) UserStore {
	return UserStore{
		Repository: database.NewRepository[user.User, UserModel](db, UserMapper{}, "user"),
	}
}

// GetByAPIKey resolves a user from a request API key.
func (s UserStore) GetByAPIKey(ctx context.Context, apiKey string) (user.User, error) {
	return s.FindOne(ctx, repository.WithCondition("api_key", apiKey))
}

// GetByLogin resolves a user from a GitHub login.
func (s UserStore) GetByLogin(ctx context.Context, login string) (user.User, error) {
	return s.FindOne(ctx, user.WithLogin(login))
}

var _ user.Store = UserStore{}
