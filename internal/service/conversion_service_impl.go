package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/db"
	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
	"github.com/alexanderramin/upf/internal/repository"
)

// ErrHistoryDisabled is returned by history reads when no store is wired.
var ErrHistoryDisabled = errors.New("conversion history is disabled")

type conversionService struct {
	conv        Converter
	uow         db.UnitOfWork
	conversions repository.ConversionRepo
	logger      *slog.Logger
	observer    Observer
	now         func() time.Time
}

type Option func(*conversionService)

// WithHistory records every Convert call. Writes go through uow so a record
// and its notes commit together; reads use conversions.
func WithHistory(uow db.UnitOfWork, conversions repository.ConversionRepo) Option {
	return func(s *conversionService) {
		s.uow = uow
		s.conversions = conversions
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *conversionService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver reports every Convert and Inspect call to observers.
func WithObserver(observers ...Observer) Option {
	return func(s *conversionService) { s.observer = combineObservers(observers) }
}

func WithClock(now func() time.Time) Option {
	return func(s *conversionService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewConversionService(conv Converter, opts ...Option) ConversionService {
	s := &conversionService{
		conv:     conv,
		logger:   slog.New(slog.DiscardHandler),
		observer: noopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *conversionService) historyEnabled() bool {
	return s.uow != nil && s.conversions != nil
}

func (s *conversionService) Convert(ctx context.Context, up Upload) (*ConvertOutcome, error) {
	startedAt := s.now()
	body, meter := meter(up.Body)
	res, err := s.conv.Convert(body, up.Filename)
	drain(meter)

	rec := &domain.ConversionRecord{
		ID:          uuid.NewString(),
		Filename:    up.Filename,
		ContentType: meter.ContentType(),
		InputBytes:  meter.n,
		CreatedAt:   startedAt.UTC(),
	}
	var notes []domain.Note
	if err != nil {
		ce, ok := contract.AsConversionError(err)
		if !ok {
			ce = contract.NewConversionError(contract.StageDecode, err)
		}
		rec.Status = domain.ConversionFailed
		rec.Format = string(ce.Format)
		rec.Stage = string(ce.Stage)
		rec.Kind = string(ce.Kind)
		rec.Message = ce.Message
		rec.ElapsedMs = s.now().Sub(startedAt).Milliseconds()
	} else {
		rec.Status = domain.ConversionSucceeded
		rec.Format = string(res.Format)
		rec.TaskCount = res.Stats.TaskCount
		rec.ResourceCount = res.Stats.ResourceCount
		rec.CalendarCount = res.Stats.CalendarCount
		rec.NoteCount = len(res.Notes)
		rec.ElapsedMs = res.Stats.ElapsedMillis
		rec.OutputBytes = int64(len(res.XML))
		notes = res.Notes
	}
	var recordID string
	if s.record(ctx, rec, notes) {
		recordID = rec.ID
	}

	s.observer.ObserveConversion(ctx, ConversionEvent{
		Op:         OpConvert,
		Filename:   up.Filename,
		Format:     format.Format(rec.Format),
		InputBytes: rec.InputBytes,
		Tasks:      rec.TaskCount,
		Notes:      rec.NoteCount,
		RecordID:   recordID,
		Elapsed:    s.now().Sub(startedAt),
		Err:        err,
	})
	if err != nil {
		return nil, err
	}
	return &ConvertOutcome{
		ConvertResult:  res,
		RecordID:       recordID,
		OutputFilename: OutputFilename(up.Filename),
		ContentType:    rec.ContentType,
		InputBytes:     rec.InputBytes,
	}, nil
}

// record stores rec and its notes in one transaction. Failures are logged
// and never change the conversion outcome.
func (s *conversionService) record(ctx context.Context, rec *domain.ConversionRecord, notes []domain.Note) bool {
	if !s.historyEnabled() {
		return false
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteConversionRepo(tx).Create(ctx, rec); err != nil {
			return err
		}
		return repository.NewSQLiteConversionNoteRepo(tx).CreateBatch(ctx, rec.ID, notes)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "recording conversion history failed",
			"filename", rec.Filename,
			"status", string(rec.Status),
			"error", err,
		)
		return false
	}
	return true
}

func (s *conversionService) Inspect(ctx context.Context, up Upload) (*InspectOutcome, error) {
	startedAt := s.now()
	body, meter := meter(up.Body)
	info, err := s.conv.Inspect(body, up.Filename)
	drain(meter)

	ev := ConversionEvent{
		Op:         OpInspect,
		Filename:   up.Filename,
		InputBytes: meter.n,
		Elapsed:    s.now().Sub(startedAt),
		Err:        err,
	}
	if info != nil {
		ev.Format = info.Format
		ev.Tasks = info.Stats.TaskCount
		ev.Notes = len(info.Notes)
	} else if ce, ok := contract.AsConversionError(err); ok {
		ev.Format = ce.Format
	}
	s.observer.ObserveConversion(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &InspectOutcome{
		ProjectInfo: info,
		ContentType: meter.ContentType(),
		InputBytes:  meter.n,
	}, nil
}

func (s *conversionService) Recent(ctx context.Context, limit int) ([]*domain.ConversionRecord, error) {
	if !s.historyEnabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.conversions.ListRecent(ctx, min(limit, MaxHistoryLimit))
}

func (s *conversionService) Get(ctx context.Context, id string) (*HistoryEntry, error) {
	if !s.historyEnabled() {
		return nil, ErrHistoryDisabled
	}
	var entry HistoryEntry
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		rec, err := repository.NewSQLiteConversionRepo(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		notes, err := repository.NewSQLiteConversionNoteRepo(tx).ListByConversion(ctx, id)
		if err != nil {
			return err
		}
		entry = HistoryEntry{Record: rec, Notes: notes}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *conversionService) Totals(ctx context.Context) (map[domain.ConversionStatus]int, error) {
	if !s.historyEnabled() {
		return nil, ErrHistoryDisabled
	}
	return s.conversions.CountByStatus(ctx)
}

// History listing bounds.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 500
)

// meter wraps body for byte counting. A nil body stays nil so the
// converter reports it as an IO failure.
func meter(body io.Reader) (io.Reader, *meteredReader) {
	if body == nil {
		return nil, newMeteredReader(eofReader{})
	}
	m := newMeteredReader(body)
	return m, m
}

// drain consumes input the decoder left unread so InputBytes covers the
// whole upload.
func drain(m *meteredReader) {
	_, _ = io.Copy(io.Discard, m)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
