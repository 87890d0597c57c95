// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global otel tracer provider. Without a
// configured provider the calls are no-ops, so library code can always trace.
//
//   - Middleware traces inbound HTTP requests and propagates W3C trace context.
//   - StartSpan and EndSpan wrap internal operations such as generator calls.
//
// Example usage:
//
//	func generate(ctx context.Context, prompt string) (out string, err error) {
//	    ctx, span := tracing.StartSpan(ctx, "generator.generate",
//	        attribute.String("generator.phase", "map"))
//	    defer func() { tracing.EndSpan(span, err) }()
//	    // ... call backend ...
//	}
package tracing
