package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/upf/internal/format"
)

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	obs.ObserveConversion(context.Background(), ConversionEvent{
		Op:       OpConvert,
		Filename: "plan.mpp",
		Format:   format.LegacyBinary,
		Tasks:    4,
		RecordID: "abc",
		Elapsed:  12 * time.Millisecond,
	})
	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "op=convert")
	assert.Contains(t, out, "elapsed_ms=12")
	assert.Contains(t, out, "format=legacy_binary")
	assert.Contains(t, out, "tasks=4")
	assert.Contains(t, out, "record_id=abc")

	buf.Reset()
	obs.ObserveConversion(context.Background(), ConversionEvent{Op: OpInspect, Err: errors.New("boom")})
	out = buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "format=")
	assert.NotContains(t, out, "tasks=")
}

func TestNewLogObserver_NilLogger(t *testing.T) {
	assert.IsType(t, noopObserver{}, NewLogObserver(nil))
}

func TestCombineObservers(t *testing.T) {
	assert.IsType(t, noopObserver{}, combineObservers(nil))
	assert.IsType(t, noopObserver{}, combineObservers([]Observer{nil}))

	a := &recordingObserver{}
	assert.Same(t, a, combineObservers([]Observer{nil, a}))

	b := &recordingObserver{}
	both := combineObservers([]Observer{a, nil, b})
	both.ObserveConversion(context.Background(), ConversionEvent{Op: OpConvert})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
