package sessions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/dbx"
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
CREATE TABLE session (
  id       INTEGER PRIMARY KEY CHECK (id = 1),
  token    TEXT NOT NULL,
  saved_at TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestLoad_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	tok, err := r.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestSaveThenLoad(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "t1"))

	tok, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", tok)

	var savedAt string
	require.NoError(t, db.QueryRow(`SELECT saved_at FROM session`).Scan(&savedAt))
	assert.Equal(t, "2026-01-02T03:04:05Z", savedAt)
}

func TestSave_Replaces(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "old"))
	require.NoError(t, r.Save(ctx, "new"))

	tok, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", tok)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM session`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestClear_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "t"))
	require.NoError(t, r.Clear(ctx))
	require.NoError(t, r.Clear(ctx))

	tok, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSave_InsideRolledBackTx_LeavesNothing(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx).Save(ctx, "t"); err != nil {
			return err
		}
		return sql.ErrTxDone
	})
	require.ErrorIs(t, err, sql.ErrTxDone)

	tok, err := NewSQLiteRepository(db).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestLoad_ClosedDB(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	_, err := NewSQLiteRepository(db).Load(context.Background())
	require.Error(t, err)
}
