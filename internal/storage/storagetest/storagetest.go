// Package storagetest opens throwaway migrated databases for tests.
package storagetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/bookshop/internal/storage"
)

// Open returns a migrated SQLite database in t's temp dir, closed on cleanup.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := storage.Open("sqlite", filepath.Join(t.TempDir(), "bookshop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(context.Background(), db))
	return db
}
