// Package logging configures log/slog for the service and the CLI.
//
// The service logs JSON to stdout via NewLogger; the CLI logs text to stderr
// via NewTextLogger. Both take the minimum level from LOG_LEVEL. Handlers store a logger in the request context with
// WithLogger; everything below them calls FromContext, which tags each line
// with the request ID when there is one:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("map phase started", slog.Int("inputs", 4))
package logging
