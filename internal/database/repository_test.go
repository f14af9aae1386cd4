package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitae-dev/vitae/domain/repository"
)

type widget struct {
	ID   int64
	Name string
	Rank int
}

type widgetRow struct {
	ID   int64 `gorm:"primaryKey;autoIncrement"`
	Name string
	Rank int
}

func (widgetRow) TableName() string { return "widgets" }

type widgetMapper struct{}

func (widgetMapper) ToDomain(e widgetRow) widget { return widget{ID: e.ID, Name: e.Name, Rank: e.Rank} }
func (widgetMapper) ToModel(d widget) widgetRow  { return widgetRow{ID: d.ID, Name: d.Name, Rank: d.Rank} }

func newWidgetRepo(t *testing.T) (Repository[widget, widgetRow], Database) {
	t.Helper()
	ctx := context.Background()
	db, err := NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Session(ctx).AutoMigrate(&widgetRow{}))
	return NewRepository[widget, widgetRow](db, widgetMapper{}, "widget"), db
}

func TestRepositoryCreateAndFindOne(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	created, err := repo.Create(ctx, widget{Name: "alpha", Rank: 1})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := repo.FindOne(ctx, repository.WithID(created.ID))
	require.NoError(t, err)
	assert.Equal(t, "alpha", found.Name)
}

func TestRepositoryFindOneNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	_, err := repo.FindOne(ctx, repository.WithID(999))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryFindWithOptions(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	for _, w := range []widget{{Name: "a", Rank: 3}, {Name: "b", Rank: 1}, {Name: "c", Rank: 2}} {
		_, err := repo.Create(ctx, w)
		require.NoError(t, err)
	}

	got, err := repo.Find(ctx, repository.WithOrderAsc("rank"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "a", got[2].Name)

	limited, err := repo.Find(ctx, repository.WithOrderDesc("rank"), repository.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a", limited[0].Name)

	in, err := repo.Find(ctx, repository.WithConditionIn("name", []string{"a", "c"}))
	require.NoError(t, err)
	assert.Len(t, in, 2)
}

func TestRepositoryCountAndExists(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	_, err := repo.Create(ctx, widget{Name: "a", Rank: 1})
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, repository.WithCondition("name", "a"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, repository.WithCondition("name", "zzz"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositorySaveUpdates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	created, err := repo.Create(ctx, widget{Name: "before", Rank: 1})
	require.NoError(t, err)

	created.Name = "after"
	_, err = repo.Save(ctx, created)
	require.NoError(t, err)

	found, err := repo.FindOne(ctx, repository.WithID(created.ID))
	require.NoError(t, err)
	assert.Equal(t, "after", found.Name)
}

func TestRepositoryDeleteBy(t *testing.T) {
	ctx := context.Background()
	repo, _ := newWidgetRepo(t)

	_, err := repo.Create(ctx, widget{Name: "doomed", Rank: 1})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBy(ctx, repository.WithCondition("name", "doomed")))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
