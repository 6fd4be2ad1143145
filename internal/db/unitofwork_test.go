package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/upf/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) (*sql.DB, *db.SQLiteUnitOfWork) {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, db.NewSQLiteUnitOfWork(database)
}

func insertConversion(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO conversions (id, status, created_at) VALUES (?, 'succeeded', '2024-01-01T00:00:00Z')`, id)
	return err
}

func countConversions(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM conversions`).Scan(&n))
	return n
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insertConversion(ctx, tx, "k1")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countConversions(t, database))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertConversion(ctx, tx, "k2"); err != nil {
			return err
		}
		return errors.New("deliberate failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")
	assert.Equal(t, 0, countConversions(t, database))
}

func TestWithinTx_RollbackOnConstraintViolation(t *testing.T) {
	database, uow := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertConversion(ctx, tx, "k3"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO conversion_notes (conversion_id, seq, code) VALUES ('missing', 1, 'self_loop')`)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, 0, countConversions(t, database))
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	database, uow := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertConversion(ctx, tx, "k4")
			panic("boom")
		})
	})
	assert.Equal(t, 0, countConversions(t, database))
}

func TestWithinTx_PreservesCallbackError(t *testing.T) {
	_, uow := openUoW(t)
	sentinel := errors.New("stop")

	err := uow.WithinTx(context.Background(), func(context.Context, db.DBTX) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestWithinTx_CancelledContext(t *testing.T) {
	_, uow := openUoW(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.WithinTx(ctx, func(context.Context, db.DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
