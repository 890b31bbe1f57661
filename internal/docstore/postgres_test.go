package docstore_test

import (
	"context"
	"testing"

	"cognify-data/internal/docstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresStore_GetDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := docstore.NewPostgresStore(db, zap.NewNop())

	mock.ExpectQuery(`SELECT data FROM documents WHERE path = \$1`).
		WithArgs("users/u1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"firstName":"Ada","playCount":3}`)))

	snap, err := store.GetDocument(context.Background(), "users/u1")
	require.NoError(t, err)
	require.True(t, snap.Exists)
	require.Equal(t, "Ada", snap.Data["firstName"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument_Absent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := docstore.NewPostgresStore(db, zap.NewNop())

	mock.ExpectQuery(`SELECT data FROM documents`).
		WithArgs("users/missing").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	snap, err := store.GetDocument(context.Background(), "users/missing")
	require.NoError(t, err)
	require.False(t, snap.Exists)
}

func TestPostgresStore_SetDocument_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := docstore.NewPostgresStore(db, zap.NewNop())

	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("users/u1/dailyReports/02-01-2025", "users/u1/dailyReports", "02-01-2025", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.SetDocument(context.Background(), "users/u1/dailyReports/02-01-2025", map[string]any{"seed": true})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateDocument_MergeAndNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := docstore.NewPostgresStore(db, zap.NewNop())

	mock.ExpectExec(`UPDATE documents SET data = data \|\| \$2::jsonb`).
		WithArgs("users/u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.UpdateDocument(context.Background(), "users/u1", map[string]any{"playCount": 4}))

	mock.ExpectExec(`UPDATE documents`).
		WithArgs("users/gone", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = store.UpdateDocument(context.Background(), "users/gone", map[string]any{"playCount": 4})
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestPostgresStore_ListCollection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := docstore.NewPostgresStore(db, zap.NewNop())

	mock.ExpectQuery(`SELECT doc_id, data FROM documents WHERE parent_path = \$1`).
		WithArgs("users/u1/dailyReports").
		WillReturnRows(sqlmock.NewRows([]string{"doc_id", "data"}).
			AddRow("02-01-2025", []byte(`{}`)).
			AddRow("02-02-2025", []byte(`{}`)))

	entries, err := store.ListCollection(context.Background(), "users/u1/dailyReports")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "02-01-2025", entries[0].ID)
}
