// Package stats receives one outcome per conversion. Sinks are injected into
// the pipeline; none of them may block or fail the conversion they observe.
package stats

import (
	"sync/atomic"
	"time"

	"github.com/alexanderramin/upf/internal/contract"
	"github.com/alexanderramin/upf/internal/format"
)

// Outcome describes one finished conversion. Format is empty when sniffing
// failed; Stage and Kind are empty on success.
type Outcome struct {
	Format  format.Format
	Success bool
	Stage   contract.Stage
	Kind    contract.ErrorKind
	Elapsed time.Duration
}

// Status is the label value used for Success.
func (o Outcome) Status() string {
	if o.Success {
		return "success"
	}
	return "failure"
}

// Sink receives conversion outcomes. Implementations must be safe for
// concurrent use.
type Sink interface {
	ObserveConversion(o Outcome)
}

// Noop discards every outcome.
type Noop struct{}

func (Noop) ObserveConversion(Outcome) {}

// Counters keeps process-local totals.
type Counters struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	elapsedMs atomic.Int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

func (s Snapshot) Total() int64 {
	return s.Succeeded + s.Failed
}

func (c *Counters) ObserveConversion(o Outcome) {
	if o.Success {
		c.succeeded.Add(1)
	} else {
		c.failed.Add(1)
	}
	c.elapsedMs.Add(o.Elapsed.Milliseconds())
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		ElapsedMs: c.elapsedMs.Load(),
	}
}

type multi []Sink

// Multi fans each outcome out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Noop{}
	case 1:
		return out[0]
	}
	return out
}

func (m multi) ObserveConversion(o Outcome) {
	for _, s := range m {
		s.ObserveConversion(o)
	}
}

// OrNoop returns s, or Noop when s is nil.
func OrNoop(s Sink) Sink {
	if s == nil {
		return Noop{}
	}
	return s
}
