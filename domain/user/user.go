// Package user provides the account domain type and its persistence
// interface. Users own projects and authenticate requests with an API key.
package user

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidUser indicates missing required user fields.
var ErrInvalidUser = errors.New("invalid user")

// User represents an account that owns projects and processing runs.
type User struct {
	id          int64
	login       string
	apiKey      string
	githubToken string
	createdAt   time.Time
	updatedAt   time.Time
}

// NewUser creates a User with a login and API key. The GitHub token is
// optional; without it only public repositories can be synced.
func NewUser(login, apiKey, githubToken string) (User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return User{}, errors.New("login is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return User{}, errors.New("api key is required")
	}
	return User{
		login:       login,
		apiKey:      apiKey,
		githubToken: githubToken,
	}, nil
}

// NewUserFull creates a User with all fields (used by persistence).
func NewUserFull(id int64, login, apiKey, githubToken string, createdAt, updatedAt time.Time) User {
	return User{
		id:          id,
		login:       login,
		apiKey:      apiKey,
		githubToken: githubToken,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the user ID.
func (u User) ID() int64 { return u.id }

// Login returns the GitHub login the user's repositories belong to.
func (u User) Login() string { return u.login }

// APIKey returns the request authentication key.
func (u User) APIKey() string { return u.apiKey }

// GitHubToken returns the token used for code host API calls, if any.
func (u User) GitHubToken() string { return u.githubToken }

// CreatedAt returns when the user was created.
func (u User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns when the user was last updated.
func (u User) UpdatedAt() time.Time { return u.updatedAt }

// WithGitHubToken returns a copy with the token replaced.
func (u User) WithGitHubToken(token string) User {
	u.githubToken = token
	return u
}
