package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/infrastructure/search"
	"github.com/vitae-dev/vitae/internal/log"
	"github.com/vitae-dev/vitae/internal/testdb"
)

func newStore(t *testing.T) *search.SQLiteVectorStore {
	t.Helper()
	store, err := search.NewSQLiteVectorStore(context.Background(), testdb.NewPlain(t), log.NewTestLogger())
	require.NoError(t, err)
	return store
}

func TestSQLiteVectorStore_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	docs := []domainsearch.Document{
		domainsearch.NewDocument(1, 10, 1, "project one"),
		domainsearch.NewDocument(2, 10, 2, "project two"),
		domainsearch.NewDocument(3, 10, 3, "project three"),
	}
	vectors := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	require.NoError(t, store.Index(ctx, domainsearch.CollectionProjects, docs, vectors))

	results, err := store.Search(ctx, domainsearch.CollectionProjects, []float64{1, 0, 0}, 10, 0, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID())
	assert.InDelta(t, 1.0, results[0].Score(), 0.001)
	assert.Equal(t, int64(3), results[1].ID())
	assert.Greater(t, results[0].Score(), results[1].Score())
}

func TestSQLiteVectorStore_ScopesToUser(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Index(ctx, domainsearch.CollectionProjects,
		[]domainsearch.Document{
			domainsearch.NewDocument(1, 10, 1, "mine"),
			domainsearch.NewDocument(2, 20, 2, "theirs"),
		},
		[][]float64{{1, 0}, {1, 0}},
	))

	results, err := store.Search(ctx, domainsearch.CollectionProjects, []float64{1, 0}, 10, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID())
}

func TestSQLiteVectorStore_ScopesToProject(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Index(ctx, domainsearch.CollectionChunks,
		[]domainsearch.Document{
			domainsearch.NewDocument(100, 10, 1, "chunk in project 1"),
			domainsearch.NewDocument(200, 10, 2, "chunk in project 2"),
		},
		[][]float64{{1, 0}, {1, 0}},
	))

	results, err := store.Search(ctx, domainsearch.CollectionChunks, []float64{1, 0}, 10, 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(200), results[0].ID())
	assert.Equal(t, int64(2), results[0].ProjectID())
}

func TestSQLiteVectorStore_IndexReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	doc := []domainsearch.Document{domainsearch.NewDocument(1, 10, 1, "v1")}
	require.NoError(t, store.Index(ctx, domainsearch.CollectionChunks, doc, [][]float64{{1, 0}}))
	require.NoError(t, store.Index(ctx, domainsearch.CollectionChunks, doc, [][]float64{{0, 1}}))

	results, err := store.Search(ctx, domainsearch.CollectionChunks, []float64{0, 1}, 10, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score(), 0.001)
}

func TestSQLiteVectorStore_CollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Index(ctx, domainsearch.CollectionProjects,
		[]domainsearch.Document{domainsearch.NewDocument(1, 10, 1, "summary")},
		[][]float64{{1, 0}},
	))

	results, err := store.Search(ctx, domainsearch.CollectionChunks, []float64{1, 0}, 10, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteVectorStore_VectorCountMismatch(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	err := store.Index(ctx, domainsearch.CollectionProjects,
		[]domainsearch.Document{domainsearch.NewDocument(1, 10, 1, "doc")},
		[][]float64{{1, 0}, {0, 1}},
	)
	require.ErrorIs(t, err, search.ErrVectorCountMismatch)
}

func TestSQLiteVectorStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Index(ctx, domainsearch.CollectionChunks,
		[]domainsearch.Document{
			domainsearch.NewDocument(1, 10, 1, "a"),
			domainsearch.NewDocument(2, 10, 1, "b"),
		},
		[][]float64{{1, 0}, {0, 1}},
	))

	require.NoError(t, store.Delete(ctx, domainsearch.CollectionChunks, []int64{1}))

	results, err := store.Search(ctx, domainsearch.CollectionChunks, []float64{1, 0}, 10, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID())
}

func TestSQLiteVectorStore_DeleteByProject(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Index(ctx, domainsearch.CollectionChunks,
		[]domainsearch.Document{
			domainsearch.NewDocument(1, 10, 1, "a"),
			domainsearch.NewDocument(2, 10, 1, "b"),
			domainsearch.NewDocument(3, 10, 2, "c"),
		},
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
	))

	require.NoError(t, store.DeleteByProject(ctx, domainsearch.CollectionChunks, 1))

	results, err := store.Search(ctx, domainsearch.CollectionChunks, []float64{1, 0}, 10, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].ID())
}

func TestSQLiteVectorStore_EmptyQuery(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	results, err := store.Search(ctx, domainsearch.CollectionProjects, nil, 10, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
