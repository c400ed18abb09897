package testutil

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log call. Attrs holds the logger's own
// attributes merged with the call's, groups flattened.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record in memory and echoes
// it to the test log. Loggers derived with With share one recorder.
type LogRecorder struct {
	t     *testing.T
	attrs []slog.Attr
	buf   *recordBuffer
}

type recordBuffer struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewTestLogger returns a logger that records at every level
func NewTestLogger(t *testing.T) (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{t: t, buf: &recordBuffer{}}
	return slog.New(rec), rec
}

func (h *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.buf.mu.Lock()
	h.buf.records = append(h.buf.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.buf.mu.Unlock()

	if h.t != nil {
		h.t.Logf("%s %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{t: h.t, attrs: slices.Concat(h.attrs, attrs), buf: h.buf}
}

func (h *LogRecorder) WithGroup(string) slog.Handler { return h }

// GetRecords returns a copy of everything recorded so far
func (h *LogRecorder) GetRecords() []LogRecord {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return slices.Clone(h.buf.records)
}

// FindMessage returns the first record whose message contains msg
func (h *LogRecorder) FindMessage(msg string) (LogRecord, bool) {
	i := slices.IndexFunc(h.GetRecords(), func(r LogRecord) bool {
		return strings.Contains(r.Message, msg)
	})
	if i < 0 {
		return LogRecord{}, false
	}
	return h.GetRecords()[i], true
}

func (h *LogRecorder) ContainsMessage(msg string) bool {
	_, ok := h.FindMessage(msg)
	return ok
}

// AssertLogContains fails t unless a record at level contains message
func AssertLogContains(t *testing.T, h *LogRecorder, level slog.Level, message string) {
	t.Helper()
	var seen []string
	for _, r := range h.GetRecords() {
		if r.Level != level {
			continue
		}
		if strings.Contains(r.Message, message) {
			return
		}
		seen = append(seen, r.Message)
	}
	t.Errorf("no %s record containing %q; %s records: %q", level, message, level, seen)
}
