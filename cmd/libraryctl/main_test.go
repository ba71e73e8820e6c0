package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/library/library-go/internal/repository"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestAdminCommands(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	dsn := filepath.Join(dir, "library.db")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_DSN", dsn)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	out, err = run(t, "create-admin", "root@example.com", "--generate", "--name", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin root@example.com")
	assert.Contains(t, out, "password: ")

	db, err := repository.NewDB(repository.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := repository.NewStore(db).Users()

	user, err := users.GetByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "Root", user.Name)

	_, err = run(t, "demote", "root@example.com")
	require.NoError(t, err)
	user, err = users.GetByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)

	_, err = run(t, "promote", "nobody@example.com")
	assert.Error(t, err)

	_, err = run(t, "create-admin", "root@example.com", "--generate")
	assert.Error(t, err)
}
