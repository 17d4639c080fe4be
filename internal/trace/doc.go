// Package trace configures OpenTelemetry tracing.
//
// When tracing is disabled (or Init is never called) the global noop tracer
// provider stays installed and spans cost nothing. When enabled, spans are
// exported to stdout (or the configured writer) in batches.
//
// LogHandler decorates a slog.Handler so records logged with a span context
// carry trace_id and span_id.
package trace
