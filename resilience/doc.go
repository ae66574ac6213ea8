// Package resilience retries operations that fail transiently, such as the
// first ping to a Docker daemon that is still coming up.
//
//	err := resilience.RetryFunc(ctx, resilience.RetryConfig{MaxAttempts: 3}, func() error {
//	    return client.Ping(ctx)
//	})
//
// Errors marked non-retryable through errors.AppError and context
// cancellation end the loop immediately.
package resilience
