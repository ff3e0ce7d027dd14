package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for pipeline events

// LogRegionSkipped records a region whose discovery could not proceed
func (l *Logger) LogRegionSkipped(ctx context.Context, region, reason string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("region", region).
		Str("reason", reason).
		Msg("skipping region")
}

// LogFallback records a switch to the fallback discovery source
func (l *Logger) LogFallback(ctx context.Context, region string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("region", region).
		Msg("primary discovery unavailable, trying fallback")
}

// LogLookupFailed records a best-effort audit-trail lookup failure
func (l *Logger) LogLookupFailed(ctx context.Context, resourceName string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("resource_name", resourceName).
		Msg("audit-trail lookup failed, using sentinel")
}

// LogRecordDropped records a record excluded from grouping
func (l *Logger) LogRecordDropped(ctx context.Context, arn, reason string) {
	l.WithContext(ctx).Warn().
		Str("arn", arn).
		Str("reason", reason).
		Msg("record dropped from grouping")
}
