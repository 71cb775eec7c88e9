// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// ContextKey is the type of the context keys read by the log handler.
type ContextKey string

// Context keys for logging
const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	TraceIDKey   ContextKey = "trace_id"
)

// Logger is the process-wide structured logger. Replace it with SetLogger
// once configuration is loaded.
var Logger = slog.New(&ctxHandler{slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})})

// SetLogger installs l as the process logger and as the slog default.
func SetLogger(l *slog.Logger) {
	Logger = l
	slog.SetDefault(l)
}

// LogConfig selects the output format and the noise filter.
type LogConfig struct {
	Env            string
	Level          slog.Level
	FilterPatterns []string
}

// NewLogger builds a context-aware logger: JSON in production, text otherwise,
// with records matching cfg.FilterPatterns dropped.
func NewLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Env == "production" || cfg.Env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	if len(cfg.FilterPatterns) > 0 {
		handler = NewFilterHandler(handler, cfg.FilterPatterns)
	}
	return slog.New(&ctxHandler{handler})
}

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// FilterHandler drops log records whose message contains any of its
// patterns. It replaces the ad hoc console patching the web client used to
// silence known-noisy messages.
type FilterHandler struct {
	next     slog.Handler
	patterns []string
	dropped  func()
}

// NewFilterHandler wraps next, dropping records that match patterns
// (case-insensitive substring match).
func NewFilterHandler(next slog.Handler, patterns []string) *FilterHandler {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &FilterHandler{
		next:     next,
		patterns: lowered,
		dropped:  func() { LogRecordsFiltered.Inc() },
	}
}

// Enabled defers to the wrapped handler.
func (h *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle forwards r unless its message matches a pattern. Errors are never dropped.
func (h *FilterHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError && h.Matches(r.Message) {
		if h.dropped != nil {
			h.dropped()
		}
		return nil
	}
	return h.next.Handle(ctx, r)
}

// Matches reports whether msg contains one of the configured patterns.
func (h *FilterHandler) Matches(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range h.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (h *FilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FilterHandler{next: h.next.WithAttrs(attrs), patterns: h.patterns, dropped: h.dropped}
}

func (h *FilterHandler) WithGroup(name string) slog.Handler {
	return &FilterHandler{next: h.next.WithGroup(name), patterns: h.patterns, dropped: h.dropped}
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	table string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// LogWrite records a create, update or delete on the table.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, id uint) {
	Logger.DebugContext(ctx, "repository write",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.Uint64("id", uint64(id)),
	)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	Logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
