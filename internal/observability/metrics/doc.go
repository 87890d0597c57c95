// Package metrics holds the process-wide Prometheus collectors, registered
// on the default registry and served at /metrics.
//
// HTTP collectors are fed by the router middleware. Summarization
// collectors cover whole runs, map fan-out, collapse rounds and each
// generator call by phase:
//
//	start := time.Now()
//	summary, err := svc.Summarize(ctx, req)
//	metrics.RecordSummarization(err == nil, time.Since(start))
package metrics
