package docstore_test

import (
	"context"
	"testing"

	"cognify-data/internal/docstore"

	"github.com/stretchr/testify/require"
)

func TestValidatePaths(t *testing.T) {
	require.NoError(t, docstore.ValidateDocumentPath("users/u1"))
	require.NoError(t, docstore.ValidateDocumentPath("users/u1/dailyReports/02-01-2025/games/processQuest"))
	require.ErrorIs(t, docstore.ValidateDocumentPath("users"), docstore.ErrInvalidPath)
	require.ErrorIs(t, docstore.ValidateDocumentPath("users/u1/dailyReports"), docstore.ErrInvalidPath)
	require.ErrorIs(t, docstore.ValidateDocumentPath(""), docstore.ErrInvalidPath)
	require.ErrorIs(t, docstore.ValidateDocumentPath("users//x"), docstore.ErrInvalidPath)

	require.NoError(t, docstore.ValidateCollectionPath("users/u1/dailyReports"))
	require.ErrorIs(t, docstore.ValidateCollectionPath("users/u1"), docstore.ErrInvalidPath)
}

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	snap, err := store.GetDocument(ctx, "users/u1")
	require.NoError(t, err)
	require.False(t, snap.Exists)

	require.NoError(t, store.SetDocument(ctx, "users/u1", map[string]any{"firstName": "Ada"}))

	snap, err = store.GetDocument(ctx, "users/u1")
	require.NoError(t, err)
	require.True(t, snap.Exists)
	require.Equal(t, "Ada", snap.Data["firstName"])
}

func TestMemoryStore_UpdateRequiresExistence(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	err := store.UpdateDocument(ctx, "users/u1", map[string]any{"playCount": 1})
	require.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, store.SetDocument(ctx, "users/u1", map[string]any{"firstName": "Ada", "playCount": 0}))
	require.NoError(t, store.UpdateDocument(ctx, "users/u1", map[string]any{"playCount": 3}))

	snap, err := store.GetDocument(ctx, "users/u1")
	require.NoError(t, err)
	require.Equal(t, 3, snap.Data["playCount"])
	require.Equal(t, "Ada", snap.Data["firstName"], "merge keeps unrelated fields")
}

func TestMemoryStore_EnsureDocumentIdempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	require.NoError(t, store.SetDocument(ctx, "users/u1/dailyReports/02-01-2025", map[string]any{"seed": true}))
	require.NoError(t, store.EnsureDocument(ctx, "users/u1/dailyReports/02-01-2025"))

	snap, err := store.GetDocument(ctx, "users/u1/dailyReports/02-01-2025")
	require.NoError(t, err)
	require.Equal(t, true, snap.Data["seed"], "ensure must not clobber existing data")

	require.NoError(t, store.EnsureDocument(ctx, "users/u1/dailyReports/02-02-2025"))
	snap, err = store.GetDocument(ctx, "users/u1/dailyReports/02-02-2025")
	require.NoError(t, err)
	require.True(t, snap.Exists)
	require.Empty(t, snap.Data)
}

func TestMemoryStore_ListCollectionDirectChildrenOnly(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()

	require.NoError(t, store.SetDocument(ctx, "users/u1/dailyReports/02-01-2025", map[string]any{}))
	require.NoError(t, store.SetDocument(ctx, "users/u1/dailyReports/02-02-2025", map[string]any{}))
	require.NoError(t, store.SetDocument(ctx, "users/u1/dailyReports/02-01-2025/games/processQuest", map[string]any{"WordsPerMin": 110.0}))

	entries, err := store.ListCollection(ctx, "users/u1/dailyReports")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "02-01-2025", entries[0].ID)
	require.Equal(t, "02-02-2025", entries[1].ID)
}
