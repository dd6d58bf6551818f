package fluent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Tracer receives a record of every statement the facade executes.
// Implementations must not retain the args slice.
type Tracer interface {
	Trace(ctx context.Context, sql string, args []interface{}, elapsed time.Duration, err error)
}

// NopTracer discards everything.
type NopTracer struct{}

func (NopTracer) Trace(context.Context, string, []interface{}, time.Duration, error) {}

// SlogTracer reports executed statements through a slog.Logger, tagging
// each record with the facade session id so interleaved output from
// several facades stays attributable.
type SlogTracer struct {
	logger  *slog.Logger
	session string
}

// NewSlogTracer creates a tracer over logger; a nil logger uses the
// process default.
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracer{logger: logger, session: uuid.NewString()}
}

func (t *SlogTracer) Trace(ctx context.Context, sql string, args []interface{}, elapsed time.Duration, err error) {
	attrs := []interface{}{
		"session", t.session,
		"sql", sql,
		"args", args,
		"elapsed", elapsed,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
		t.logger.ErrorContext(ctx, "statement failed", attrs...)
		return
	}
	t.logger.DebugContext(ctx, "statement executed", attrs...)
}
