package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/upf/internal/db"
	"github.com/alexanderramin/upf/internal/domain"
)

type SQLiteConversionNoteRepo struct {
	db db.DBTX
}

func NewSQLiteConversionNoteRepo(conn db.DBTX) *SQLiteConversionNoteRepo {
	return &SQLiteConversionNoteRepo{db: conn}
}

func (r *SQLiteConversionNoteRepo) CreateBatch(ctx context.Context, conversionID string, notes []domain.Note) error {
	for i, n := range notes {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO conversion_notes (conversion_id, seq, code, message) VALUES (?, ?, ?, ?)`,
			conversionID, i+1, string(n.Code), n.Message)
		if err != nil {
			return fmt.Errorf("inserting note %d for conversion %s: %w", i+1, conversionID, err)
		}
	}
	return nil
}

func (r *SQLiteConversionNoteRepo) ListByConversion(ctx context.Context, conversionID string) ([]domain.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, message FROM conversion_notes WHERE conversion_id = ? ORDER BY seq`, conversionID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var out []domain.Note
	for rows.Next() {
		var code, msg string
		if err := rows.Scan(&code, &msg); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		out = append(out, domain.Note{Code: domain.NoteCode(code), Message: msg})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return out, nil
}
