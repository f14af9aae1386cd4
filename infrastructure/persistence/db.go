package persistence

import (
	"context"
	"fmt"

	"github.com/vitae-dev/vitae/internal/database"
)

// AutoMigrate runs GORM auto migration for all models owned by this
// package. Vector collections migrate separately in the search package.
func AutoMigrate(ctx context.Context, db database.Database) error {
	if err := db.Session(ctx).AutoMigrate(
		&UserModel{},
		&ProjectModel{},
		&FileModel{},
		&ChunkModel{},
		&RunModel{},
		&TaskModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
