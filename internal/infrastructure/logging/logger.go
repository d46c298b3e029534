package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

type contextKey string

const (
	cycleIDKey   contextKey = "cycle_id"
	cycleKindKey contextKey = "cycle"
	ticketIDKey  contextKey = "ticket_id"
	requestIDKey contextKey = "request_id"
)

// contextAttrs lists the context values copied onto every record, in output
// order.
var contextAttrs = []contextKey{requestIDKey, cycleIDKey, cycleKindKey, ticketIDKey}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	Output      io.Writer
	AddSource   bool
	ServiceName string
	Environment string
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger. Records carry the service name and
// environment, plus whichever cycle, ticket or request ids the context holds.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: rfc3339Time,
	}

	var base slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Format == "text" {
		base = slog.NewTextHandler(out, opts)
	}

	var static []slog.Attr
	if cfg.ServiceName != "" {
		static = append(static, slog.String("service", cfg.ServiceName))
	}
	if cfg.Environment != "" {
		static = append(static, slog.String("environment", cfg.Environment))
	}
	if len(static) > 0 {
		base = base.WithAttrs(static)
	}

	return slog.New(contextHandler{next: base})
}

func rfc3339Time(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
	}
	return a
}

// contextHandler copies the ids carried by the context onto each record.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, key := range contextAttrs {
			if v := fromContext(ctx, key); v != "" {
				r.AddAttrs(slog.String(string(key), v))
			}
		}
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}

func fromContext(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithCycle tags the context with the id and kind of a sync cycle.
func WithCycle(ctx context.Context, cycleID, kind string) context.Context {
	ctx = context.WithValue(ctx, cycleIDKey, cycleID)
	return context.WithValue(ctx, cycleKindKey, kind)
}

// WithTicketID tags the context with the ticket being processed.
func WithTicketID(ctx context.Context, ticketID string) context.Context {
	return context.WithValue(ctx, ticketIDKey, ticketID)
}

// WithRequestID tags the context with the id of an admin API request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetCycleID returns the id of the running cycle, or "".
func GetCycleID(ctx context.Context) string { return fromContext(ctx, cycleIDKey) }

// GetRequestID returns the admin request id, or "".
func GetRequestID(ctx context.Context) string { return fromContext(ctx, requestIDKey) }

// LogPanic logs panic information and stack trace
func LogPanic(ctx context.Context, logger *slog.Logger, panicValue any) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)

	logger.ErrorContext(ctx, "panic recovered",
		"panic", panicValue,
		"stack_trace", string(buf[:n]),
	)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
