package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitae-dev/vitae/application/service"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/internal/log"
)

// SyncProjects refreshes a user's project list from the code host in the
// background. Metadata only; no content is fetched or embedded.
type SyncProjects struct {
	users    user.Store
	projects *service.ProjectService
	logger   *log.Logger
}

// NewSyncProjects creates the background sync handler.
func NewSyncProjects(users user.Store, projects *service.ProjectService, logger *log.Logger) *SyncProjects {
	return &SyncProjects{users: users, projects: projects, logger: logger}
}

// Execute implements the task handler for project syncing.
func (h *SyncProjects) Execute(ctx context.Context, payload map[string]any) error {
	userID, ok := payloadInt64(payload, task.PayloadUserID)
	if !ok {
		return errors.New("payload is missing the user id")
	}

	u, err := h.users.FindOne(ctx, repository.WithID(userID))
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	synced, err := h.projects.Sync(ctx, u)
	if err != nil {
		return err
	}
	h.logger.Info("background sync finished", "user_id", userID, "projects", len(synced))
	return nil
}

// payloadInt64 reads an integer payload value. JSON round-tripping turns
// integers into float64, so both forms are accepted.
func payloadInt64(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
