package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS conversions (
		id             TEXT PRIMARY KEY,
		filename       TEXT NOT NULL DEFAULT '',
		format         TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL CHECK(status IN ('succeeded','failed')),
		stage          TEXT NOT NULL DEFAULT '',
		kind           TEXT NOT NULL DEFAULT '',
		message        TEXT NOT NULL DEFAULT '',
		task_count     INTEGER NOT NULL DEFAULT 0,
		resource_count INTEGER NOT NULL DEFAULT 0,
		calendar_count INTEGER NOT NULL DEFAULT 0,
		note_count     INTEGER NOT NULL DEFAULT 0,
		elapsed_ms     INTEGER NOT NULL DEFAULT 0,
		input_bytes    INTEGER NOT NULL DEFAULT 0,
		output_bytes   INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
	`CREATE TABLE IF NOT EXISTS conversion_notes (
		conversion_id TEXT NOT NULL REFERENCES conversions(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		code          TEXT NOT NULL,
		message       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (conversion_id, seq)
	)`,
	`ALTER TABLE conversions ADD COLUMN content_type TEXT NOT NULL DEFAULT ''`,
}

// Migrate runs all schema migrations. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE statements re-run on every start.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillNoteCounts(db); err != nil {
		return fmt.Errorf("backfilling note counts: %w", err)
	}
	return nil
}

// migrateBackfillNoteCounts sets note_count on rows written before the
// column was maintained. Rows that already carry a count are left alone.
func migrateBackfillNoteCounts(db *sql.DB) error {
	ctx := context.Background()
	query := `UPDATE conversions
		SET note_count = (SELECT COUNT(*) FROM conversion_notes n WHERE n.conversion_id = conversions.id)
		WHERE note_count = 0
		  AND EXISTS (SELECT 1 FROM conversion_notes n WHERE n.conversion_id = conversions.id)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("updating note counts: %w", err)
	}
	return nil
}
