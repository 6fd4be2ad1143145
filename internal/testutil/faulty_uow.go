package testutil

import (
	"context"
	"database/sql"
	"strings"

	"github.com/alexanderramin/upf/internal/db"
)

// FaultyUoW wraps a real UnitOfWork and makes every ExecContext whose
// statement mentions Table fail with Err. Reads and other writes in the
// same transaction pass through, so callers can check that a partial
// write rolls back as a whole.
type FaultyUoW struct {
	Inner db.UnitOfWork
	Table string
	Err   error
}

// FailWritesTo returns a FaultyUoW over a fresh SQLite unit of work.
func FailWritesTo(database *sql.DB, table string, err error) *FaultyUoW {
	return &FaultyUoW{Inner: db.NewSQLiteUnitOfWork(database), Table: table, Err: err}
}

func (u *FaultyUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.Inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, faultyTx{DBTX: tx, table: u.Table, err: u.Err})
	})
}

type faultyTx struct {
	db.DBTX
	table string
	err   error
}

func (f faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.table) {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
