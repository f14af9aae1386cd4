package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/internal/database"
	"github.com/vitae-dev/vitae/internal/log"
)

// ErrUnauthorized indicates the presented API key matches no user.
var ErrUnauthorized = errors.New("unknown api key")

// UserService provisions accounts and authenticates requests.
type UserService struct {
	users  user.Store
	logger *log.Logger
}

// NewUserService creates a UserService.
func NewUserService(users user.Store, logger *log.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Provision creates an account for a GitHub login with a freshly generated
// API key. Provisioning an existing login replaces its GitHub token and
// keeps the original key.
func (s *UserService) Provision(ctx context.Context, login, githubToken string) (user.User, error) {
	existing, err := s.users.GetByLogin(ctx, login)
	if err == nil {
		updated, err := s.users.Save(ctx, existing.WithGitHubToken(githubToken))
		if err != nil {
			return user.User{}, fmt.Errorf("failed to update user: %w", err)
		}
		s.logger.Info("user re-provisioned", "login", login, "user_id", updated.ID())
		return updated, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return user.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return user.User{}, err
	}
	u, err := user.NewUser(login, apiKey, githubToken)
	if err != nil {
		return user.User{}, err
	}
	created, err := s.users.Save(ctx, u)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user provisioned", "login", login, "user_id", created.ID())
	return created, nil
}

// Authenticate resolves a user from a request API key.
func (s *UserService) Authenticate(ctx context.Context, apiKey string) (user.User, error) {
	if apiKey == "" {
		return user.User{}, ErrUnauthorized
	}
	u, err := s.users.GetByAPIKey(ctx, apiKey)
	if errors.Is(err, database.ErrNotFound) {
		return user.User{}, ErrUnauthorized
	}
	if err != nil {
		return user.User{}, fmt.Errorf("failed to authenticate: %w", err)
	}
	return u, nil
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return "vitae_" + hex.EncodeToString(buf), nil
}
