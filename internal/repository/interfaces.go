package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/upf/internal/domain"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

type ConversionRepo interface {
	Create(ctx context.Context, r *domain.ConversionRecord) error
	GetByID(ctx context.Context, id string) (*domain.ConversionRecord, error)
	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.ConversionRecord, error)
	CountByStatus(ctx context.Context) (map[domain.ConversionStatus]int, error)
	Delete(ctx context.Context, id string) error
}

type ConversionNoteRepo interface {
	// CreateBatch stores notes for a conversion in their given order.
	CreateBatch(ctx context.Context, conversionID string, notes []domain.Note) error
	ListByConversion(ctx context.Context, conversionID string) ([]domain.Note, error)
}
