package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	return openSQLiteAt(t, filepath.Join(t.TempDir(), "test.db"))
}

func openSQLiteAt(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'nodes'").Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestSQLiteUpDown(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Up(db, SQLite))
	assert.True(t, tableExists(t, db))

	// Applying again is a no-op
	require.NoError(t, Up(db, SQLite))

	require.NoError(t, Down(db, SQLite))
	assert.False(t, tableExists(t, db))
}

func TestSQLiteSchemaConstraints(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Up(db, SQLite))

	_, err := db.Exec("INSERT INTO nodes (label) VALUES ('  ')")
	assert.Error(t, err, "blank labels must be rejected")

	_, err = db.Exec("INSERT INTO nodes (label, parent_id) VALUES ('orphan', 42)")
	assert.Error(t, err, "parent must exist")

	res, err := db.Exec("INSERT INTO nodes (label) VALUES ('root')")
	require.NoError(t, err)
	rootID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO nodes (label, parent_id) VALUES ('child', ?)", rootID)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM nodes WHERE id = ?", rootID)
	require.NoError(t, err)

	var remaining int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM nodes").Scan(&remaining))
	assert.Zero(t, remaining)
}

func TestUnsupportedDialect(t *testing.T) {
	db := openSQLite(t)
	assert.Error(t, Up(db, Dialect("oracle")))
}

func TestUpAndCloseReleasesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db := openSQLiteAt(t, path)

	require.NoError(t, UpAndClose(db, SQLite))
	assert.Error(t, db.Ping(), "database should be closed after migrating")

	// The schema was committed before closing
	reopened := openSQLiteAt(t, path)
	assert.True(t, tableExists(t, reopened))
}
