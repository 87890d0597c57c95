// Package observability is the parent of the logging, metrics and tracing
// packages that the server and the CLI share. logging wraps slog, metrics
// owns the Prometheus collectors, and tracing starts OpenTelemetry spans
// for requests and summarization phases.
package observability
