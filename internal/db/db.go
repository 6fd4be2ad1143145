package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// dsnPragmas are applied by the driver to every pooled connection.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// OpenDB opens the conversion history at path and brings its schema up to
// date. The parent directory is created when missing.
func OpenDB(path string) (*sql.DB, error) {
	dsn := path + dsnPragmas
	if path == MemoryPath {
		// WAL does not apply to memory databases.
		dsn = path + "?_pragma=foreign_keys(1)"
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if path == MemoryPath {
		// Each connection to :memory: would see its own empty database.
		handle.SetMaxOpenConns(1)
	}
	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := Migrate(handle); err != nil {
		handle.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return handle, nil
}
