package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexanderramin/upf/internal/format"
)

// Operation names what a ConversionEvent reports on.
type Operation string

const (
	OpConvert Operation = "convert"
	OpInspect Operation = "inspect"
)

// ConversionEvent is emitted once per Convert or Inspect call, after the
// upload has been fully read.
type ConversionEvent struct {
	Op         Operation
	Filename   string
	Format     format.Format // empty when detection failed
	InputBytes int64
	Tasks      int
	Notes      int
	RecordID   string // empty unless the outcome was stored
	Elapsed    time.Duration
	Err        error
}

// Observer receives conversion events. Implementations must not block.
type Observer interface {
	ObserveConversion(ctx context.Context, ev ConversionEvent)
}

type noopObserver struct{}

func (noopObserver) ObserveConversion(context.Context, ConversionEvent) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver reports events as one structured line each: info for
// successes, warn for failures.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return noopObserver{}
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveConversion(ctx context.Context, ev ConversionEvent) {
	attrs := []slog.Attr{
		slog.String("op", string(ev.Op)),
		slog.String("filename", ev.Filename),
		slog.Int64("bytes", ev.InputBytes),
		slog.Int64("elapsed_ms", ev.Elapsed.Milliseconds()),
	}
	if ev.Format != "" {
		attrs = append(attrs, slog.String("format", string(ev.Format)))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
		o.logger.LogAttrs(ctx, slog.LevelWarn, "conversion failed", attrs...)
		return
	}
	attrs = append(attrs, slog.Int("tasks", ev.Tasks), slog.Int("notes", ev.Notes))
	if ev.RecordID != "" {
		attrs = append(attrs, slog.String("record_id", ev.RecordID))
	}
	o.logger.LogAttrs(ctx, slog.LevelInfo, "conversion finished", attrs...)
}

// fanOut delivers each event to every non-nil observer in order.
type fanOut []Observer

func (f fanOut) ObserveConversion(ctx context.Context, ev ConversionEvent) {
	for _, o := range f {
		o.ObserveConversion(ctx, ev)
	}
}

func combineObservers(observers []Observer) Observer {
	var live fanOut
	for _, o := range observers {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return noopObserver{}
	case 1:
		return live[0]
	}
	return live
}
