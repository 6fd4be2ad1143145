package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/upf/internal/db"
)

// NewTestDB opens a migrated in-memory history database that lives until
// the test ends.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	handle, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("open history db: %v", err)
	}
	t.Cleanup(func() { _ = handle.Close() })
	return handle
}

// NewTestUoW wraps database in the production unit of work.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
