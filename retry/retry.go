// Package retry provides bounded retry logic for contract reads: generic
// exponential backoff plus the read policy used by the binding layer, a
// bounded timeout per attempt with exactly one retry against a fallback
// endpoint. State-changing calls never go through this package.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts  int           // Maximum number of attempts (including initial attempt)
	InitialDelay time.Duration // Initial delay between retries
	MaxDelay     time.Duration // Maximum delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultConfig provides sensible defaults for read retries.
var DefaultConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
}

// DefaultReadTimeout bounds one read attempt against an RPC endpoint.
const DefaultReadTimeout = 10 * time.Second

// IsRetryable determines if an error should trigger a retry.
type IsRetryable func(error) bool

// WithRetry executes a function with exponential backoff. It respects context
// cancellation between attempts and during delays.
func WithRetry[T any](
	ctx context.Context,
	config Config,
	isRetryable IsRetryable,
	fn func() (T, error),
) (T, error) {
	var zero T
	var lastErr error
	delay := config.InitialDelay

	if config.MaxAttempts <= 0 {
		return zero, fmt.Errorf("retry config: MaxAttempts must be positive")
	}

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("context cancelled: %w", err)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return zero, err
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * config.Multiplier)
				if delay > config.MaxDelay {
					delay = config.MaxDelay
				}
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ReadFunc performs one read attempt. fallback is true on the second attempt,
// telling the caller to route the call through its fallback endpoint.
type ReadFunc[T any] func(ctx context.Context, fallback bool) (T, error)

// ReadWithFallback runs a read with a bounded timeout per attempt and one
// retry against the fallback endpoint. It is WithRetry specialized to two
// attempts: the second attempt routes through the fallback, and a failure
// caused by caller cancellation is not retried.
func ReadWithFallback[T any](ctx context.Context, timeout time.Duration, fn ReadFunc[T]) (T, error) {
	var zero T
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	cfg := Config{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}
	notCancelled := func(error) bool { return ctx.Err() == nil }

	attempts := 0
	var primaryErr error
	result, err := WithRetry(ctx, cfg, notCancelled, func() (T, error) {
		fallback := attempts > 0
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		res, err := fn(attemptCtx, fallback)
		if err != nil && !fallback {
			primaryErr = err
		}
		return res, err
	})
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return zero, ctx.Err()
	}

	// Report the primary failure; the fallback result only matters on success.
	return zero, fmt.Errorf("read failed on primary and fallback: %w", primaryErr)
}
