package entries

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/dmitrijs2005/twosync/internal/common"
	"github.com/dmitrijs2005/twosync/internal/dbx"
	"github.com/dmitrijs2005/twosync/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE entries (
  id            TEXT PRIMARY KEY,
  title         TEXT NOT NULL DEFAULT '',
  last_modified INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)
	return db
}

func TestInsert_AndGetByID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := &models.Entry{ID: "e1", Title: "Groceries", LastModified: timex.FromMillis(1709289000000)}
	require.NoError(t, r.Insert(ctx, e))

	var title string
	var lm int64
	require.NoError(t, db.QueryRow(`SELECT title, last_modified FROM entries WHERE id=?`, "e1").Scan(&title, &lm))
	assert.Equal(t, "Groceries", title)
	assert.Equal(t, int64(1709289000000), lm)

	got, err := r.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "Groceries", got.Title)
	assert.True(t, e.LastModified.Equal(got.LastModified.Time))
}

func TestInsert_DuplicateIDFails(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, &models.Entry{ID: "dup"}))
	err := r.Insert(ctx, &models.Entry{ID: "dup"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to insert entry dup")
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestAll_InsertionOrder(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, r.Insert(ctx, &models.Entry{ID: id, Title: "t-" + id}))
	}

	got, err := dbx.Collect(r.All(ctx))
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}

func TestClear_AndCount(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, &models.Entry{ID: "a"}))
	require.NoError(t, r.Insert(ctx, &models.Entry{ID: "b"}))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Clear(ctx))

	n, err = r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	require.ErrorContains(t, r.Clear(ctx), "failed to clear entries")
	require.ErrorContains(t, r.Insert(ctx, &models.Entry{ID: "x"}), "failed to insert entry x")
	_, err := r.Count(ctx)
	require.ErrorContains(t, err, "failed to count entries")
	_, err = dbx.Collect(r.All(ctx))
	require.Error(t, err)
}
