// Package resilience groups the failure handling wrapped around every
// generator backend and around remote content fetches.
//
// The retry loop sits outside the breaker so that each attempt is counted
// by it, and an open breaker ends the loop because its error is not
// retryable:
//
//	cb := circuitbreaker.New(circuitbreaker.GeneratorConfig("claude"))
//	out, err := retry.Do(ctx, retry.GeneratorConfig(), func() (string, error) {
//	    return circuitbreaker.Do(cb, func() (string, error) {
//	        return backend.Complete(ctx, prompt)
//	    })
//	})
package resilience
