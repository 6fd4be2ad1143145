package service

import (
	"context"
	"io"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/domain"
)

// Converter is the core conversion engine. *pipeline.Pipeline satisfies it.
type Converter interface {
	Convert(in io.Reader, filenameHint string) (*contract.ConvertResult, error)
	Inspect(in io.Reader, filenameHint string) (*contract.ProjectInfo, error)
}

// Upload is one source document handed to the service by an adapter.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ConvertOutcome is a successful conversion plus adapter-facing metadata.
type ConvertOutcome struct {
	*contract.ConvertResult

	// RecordID is the history row ID; empty when history is disabled or
	// the write failed.
	RecordID       string
	OutputFilename string
	ContentType    string
	InputBytes     int64
}

type InspectOutcome struct {
	*contract.ProjectInfo

	ContentType string
	InputBytes  int64
}

// HistoryEntry is a stored conversion together with its advisory notes.
type HistoryEntry struct {
	Record *domain.ConversionRecord
	Notes  []domain.Note
}

type ConversionService interface {
	Convert(ctx context.Context, up Upload) (*ConvertOutcome, error)
	Inspect(ctx context.Context, up Upload) (*InspectOutcome, error)
	Recent(ctx context.Context, limit int) ([]*domain.ConversionRecord, error)
	Get(ctx context.Context, id string) (*HistoryEntry, error)
	Totals(ctx context.Context) (map[domain.ConversionStatus]int, error)
}
