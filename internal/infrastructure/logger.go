package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/AleksandrZin/google-election/internal/config"
)

// logging is the process-wide logger shared by the scraper, pipeline and web
// binaries, plus the log file it may hold open.
var logging struct {
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Once a logger exists later calls return it unchanged.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	logging.mu.Lock()
	defer logging.mu.Unlock()

	if logging.logger != nil {
		return logging.logger, nil
	}
	logger, err := NewLogger(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	logging.logger = logger
	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the process logger, or slog.Default before initialization
func GetLogger() *slog.Logger {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	if logging.logger == nil {
		return slog.Default()
	}
	return logging.logger
}

// NewLogger builds a JSON logger for cfg.Output: "console" writes to console,
// "file" to cfg.FilePath and "both" to the two at once. Records carry the
// trace ID of their context and a short file:line source.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	out, err := logSink(cfg, console)
	if err != nil {
		return nil, err
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource:   true,
		Level:       parseLogLevel(cfg.Level),
		ReplaceAttr: shortSource,
	})
	return slog.New(contextHandler{handler}), nil
}

func logSink(cfg config.LoggingConfig, console io.Writer) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return console, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", cfg.FilePath, err)
	}

	logging.file, f = f, logging.file
	if f != nil {
		_ = f.Close()
	}
	if mode == "file" {
		return logging.file, nil
	}
	return io.MultiWriter(console, logging.file), nil
}

// shortSource reduces the source attribute to file:line
func shortSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok {
		return slog.String(slog.SourceKey, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
	}
	return a
}

// contextHandler stamps each record with the trace ID carried by its context
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// parseLogLevel accepts slog level names plus "warning"; anything else is INFO
func parseLogLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	return closeLogFile()
}

func closeLogFile() error {
	if logging.file == nil {
		return nil
	}
	err := logging.file.Close()
	logging.file = nil
	return err
}

// ResetLoggerForTesting drops the process logger so a test can initialize
// a fresh one.
func ResetLoggerForTesting() {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	_ = closeLogFile()
	logging.logger = nil
}
