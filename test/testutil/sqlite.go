package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/stretchr/testify/require"
)

// CreateTempSQLiteDB opens a SQLite database in a per-test temporary directory.
// The connection is closed when the test finishes.
func CreateTempSQLiteDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sqlx.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		db.Close()
	})

	return db, dbPath
}
