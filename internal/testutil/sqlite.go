// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/library/library-go/internal/repository"
)

// NewSQLiteDB opens a migrated SQLite database in a temporary directory.
// The database is closed when the test ends.
func NewSQLiteDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := repository.NewDB(repository.DriverSQLite, filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.Migrate(context.Background(), db))
	return db
}

// NewSQLiteStore returns a store over a fresh SQLite database.
func NewSQLiteStore(t testing.TB) *repository.SQLStore {
	t.Helper()
	return repository.NewStore(NewSQLiteDB(t))
}
