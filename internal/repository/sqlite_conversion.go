package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/upf/internal/db"
	"github.com/alexanderramin/upf/internal/domain"
)

const conversionColumns = `id, filename, format, content_type, status, stage, kind, message,
	task_count, resource_count, calendar_count, note_count,
	elapsed_ms, input_bytes, output_bytes, created_at`

// SQLiteConversionRepo implements ConversionRepo using a SQLite database.
type SQLiteConversionRepo struct {
	db db.DBTX
}

func NewSQLiteConversionRepo(conn db.DBTX) *SQLiteConversionRepo {
	return &SQLiteConversionRepo{db: conn}
}

func (r *SQLiteConversionRepo) Create(ctx context.Context, rec *domain.ConversionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = nowUTC()
	}
	query := `INSERT INTO conversions (` + conversionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Filename,
		rec.Format,
		rec.ContentType,
		string(rec.Status),
		rec.Stage,
		rec.Kind,
		rec.Message,
		rec.TaskCount,
		rec.ResourceCount,
		rec.CalendarCount,
		rec.NoteCount,
		rec.ElapsedMs,
		rec.InputBytes,
		rec.OutputBytes,
		formatTimestamp(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting conversion: %w", err)
	}
	return nil
}

func (r *SQLiteConversionRepo) GetByID(ctx context.Context, id string) (*domain.ConversionRecord, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE id = ?`
	rec, err := scanConversion(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversion %s: %w", id, ErrNotFound)
	}
	return rec, err
}

func (r *SQLiteConversionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ConversionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT ` + conversionColumns + ` FROM conversions
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	defer rows.Close()

	var out []*domain.ConversionRecord
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversions: %w", err)
	}
	return out, nil
}

func (r *SQLiteConversionRepo) CountByStatus(ctx context.Context) (map[domain.ConversionStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM conversions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting conversions: %w", err)
	}
	defer rows.Close()

	counts := map[domain.ConversionStatus]int{
		domain.ConversionSucceeded: 0,
		domain.ConversionFailed:    0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning conversion count: %w", err)
		}
		counts[domain.ConversionStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversion counts: %w", err)
	}
	return counts, nil
}

func (r *SQLiteConversionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversion: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("conversion %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversion(row rowScanner) (*domain.ConversionRecord, error) {
	var rec domain.ConversionRecord
	var status, createdAt string
	err := row.Scan(
		&rec.ID, &rec.Filename, &rec.Format, &rec.ContentType, &status,
		&rec.Stage, &rec.Kind, &rec.Message,
		&rec.TaskCount, &rec.ResourceCount, &rec.CalendarCount, &rec.NoteCount,
		&rec.ElapsedMs, &rec.InputBytes, &rec.OutputBytes, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning conversion: %w", err)
	}
	rec.Status = domain.ConversionStatus(status)
	if rec.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	return &rec, nil
}
