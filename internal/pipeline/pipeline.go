// Package pipeline runs one conversion end to end: sniff the format, decode
// it into a domain.Project, validate the model and encode MSPDI XML. A
// Pipeline holds only immutable configuration and is safe for concurrent
// use; every call builds and discards its own model.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/domain"
	"github.com/alexanderramin/upf/internal/format"
	"github.com/alexanderramin/upf/internal/importer"
	"github.com/alexanderramin/upf/internal/mspdi"
	"github.com/alexanderramin/upf/internal/stats"
)

type Pipeline struct {
	sink      stats.Sink
	logger    *slog.Logger
	decoding  importer.Options
	encoder   *mspdi.Encoder
	sniffer   *format.Sniffer
	now       func() time.Time
	stateHook StateHook
}

type Option func(*Pipeline)

func WithSink(s stats.Sink) Option {
	return func(p *Pipeline) { p.sink = stats.OrNoop(s) }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithDecoderOptions(o importer.Options) Option {
	return func(p *Pipeline) { p.decoding = o }
}

func WithEncoder(e *mspdi.Encoder) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.encoder = e
		}
	}
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func WithStateHook(h StateHook) Option {
	return func(p *Pipeline) { p.stateHook = h }
}

// WithSniffPrefix bounds the bytes inspected during format detection.
func WithSniffPrefix(n int) Option {
	return func(p *Pipeline) { p.sniffer = format.NewSniffer(n) }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:    stats.Noop{},
		logger:  slog.New(slog.DiscardHandler),
		encoder: mspdi.NewEncoder(),
		sniffer: format.NewSniffer(format.DefaultPrefixSize),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run tracks the state of one call.
type run struct {
	p       *Pipeline
	state   State
	started time.Time
	format  format.Format
	hint    string
}

func (p *Pipeline) begin(hint string) *run {
	return &run{p: p, state: StateReceived, started: p.now(), hint: hint}
}

func (r *run) advance(to State) {
	r.move(Transition{From: r.state, To: to})
}

func (r *run) move(t Transition) {
	if !CanTransition(t.From, t.To) {
		panic(fmt.Sprintf("pipeline: illegal transition %s", t))
	}
	r.state = t.To
	r.p.logger.Debug("conversion state", "transition", t.String(), "filename", r.hint)
	if r.p.stateHook != nil {
		r.p.stateHook(t)
	}
}

func (r *run) elapsed() time.Duration {
	return r.p.now().Sub(r.started)
}

// fail moves the run to Failed, reports the outcome and returns the
// boundary error.
func (r *run) fail(stage contract.Stage, err error) error {
	ce := contract.NewConversionError(stage, err)
	ce.Format = r.format
	r.move(Transition{From: r.state, To: StateFailed, Stage: string(stage)})
	elapsed := r.elapsed()
	r.p.sink.ObserveConversion(stats.Outcome{
		Format:  r.format,
		Stage:   ce.Stage,
		Kind:    ce.Kind,
		Elapsed: elapsed,
	})
	r.p.logger.Error("conversion failed",
		"filename", r.hint,
		"format", string(r.format),
		"stage", string(ce.Stage),
		"kind", string(ce.Kind),
		"elapsed_ms", elapsed.Milliseconds(),
		"error", ce.Message,
	)
	return ce
}

func (r *run) succeed(s contract.Stats, notes int) {
	r.advance(StateDone)
	r.p.sink.ObserveConversion(stats.Outcome{
		Format:  r.format,
		Success: true,
		Elapsed: time.Duration(s.ElapsedMillis) * time.Millisecond,
	})
	r.p.logger.Info("conversion succeeded",
		"filename", r.hint,
		"format", string(r.format),
		"tasks", s.TaskCount,
		"resources", s.ResourceCount,
		"calendars", s.CalendarCount,
		"notes", notes,
		"elapsed_ms", s.ElapsedMillis,
	)
}

// decode covers Received -> Sniffed -> Decoded.
func (r *run) decode(in io.Reader) (*importer.Result, error) {
	if in == nil {
		return nil, r.fail(contract.StageSniff, fmt.Errorf("%w: no input stream", domain.ErrIOFailure))
	}
	f, replay, err := r.p.sniffer.Sniff(in)
	if err != nil {
		return nil, r.fail(contract.StageSniff, err)
	}
	r.format = f
	r.advance(StateSniffed)

	res, err := importer.Decode(f, replay, r.p.decoding)
	if err != nil {
		return nil, r.fail(contract.StageDecode, err)
	}
	if err := res.Project.Validate(); err != nil {
		return nil, r.fail(contract.StageDecode, err)
	}
	r.advance(StateDecoded)
	return res, nil
}

// Convert reads a full source document from in and returns the MSPDI
// encoding. On failure the error is a *contract.ConversionError and no
// partial output is returned. filenameHint is used for logging only.
func (p *Pipeline) Convert(in io.Reader, filenameHint string) (*contract.ConvertResult, error) {
	r := p.begin(filenameHint)
	res, err := r.decode(in)
	if err != nil {
		return nil, err
	}

	out, err := p.encoder.Encode(res.Project)
	if err != nil {
		return nil, r.fail(contract.StageEncode, err)
	}
	r.advance(StateEncoded)

	s := contract.StatsFor(res.Project, r.elapsed())
	r.succeed(s, len(res.Notes))
	return &contract.ConvertResult{
		XML:    out,
		Format: r.format,
		Stats:  s,
		Notes:  res.Notes,
	}, nil
}

// ConvertRequest is Convert for a boundary request value.
func (p *Pipeline) ConvertRequest(req contract.ConvertRequest) (*contract.ConvertResult, error) {
	return p.Convert(req.Input, req.FilenameHint)
}

// Inspect decodes in and summarises the project without encoding it.
func (p *Pipeline) Inspect(in io.Reader, filenameHint string) (*contract.ProjectInfo, error) {
	r := p.begin(filenameHint)
	res, err := r.decode(in)
	if err != nil {
		return nil, err
	}

	s := contract.StatsFor(res.Project, r.elapsed())
	r.succeed(s, len(res.Notes))
	props := res.Project.Properties
	return &contract.ProjectInfo{
		Name:       props.Name,
		Format:     r.format,
		StartDate:  props.StartDate,
		FinishDate: props.FinishDate,
		Stats:      s,
		Notes:      res.Notes,
		Tasks:      contract.OutlineOf(res.Project),
	}, nil
}
