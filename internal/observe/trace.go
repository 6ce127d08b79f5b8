package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationScope names the tracer and meter of this module.
const instrumentationScope = "github.com/MrWong99/recruitgraph"

// querySpanPrefix prefixes the span name of every graph query.
const querySpanPrefix = "recruit."

// Tracer returns the module tracer from the global provider. It is looked up
// on every call so tests may swap the provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationScope)
}

// StartSpan starts a span on [Tracer]. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartQuerySpan starts the internal span of one graph query, named
// "recruit.<query>". End it with [EndSpan].
func StartQuerySpan(ctx context.Context, query string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("recruit.query", query))
	return StartSpan(ctx, querySpanPrefix+query,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan marks span failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID is the trace ID of the span in ctx, or "" outside a trace.
// HTTP responses carry it as X-Correlation-ID.
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id and span_id of the span
// in ctx attached. Outside a trace it is [slog.Default] unchanged.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
