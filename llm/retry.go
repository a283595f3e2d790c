package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy governs how Complete reacts to retryable provider failures.
type RetryPolicy struct {
	MaxRetries int           // retries after the initial attempt
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // ceiling for any single delay
	Multiplier float64       // growth factor between consecutive delays
	Jitter     bool          // randomize each delay to spread contention
	OnRetry    func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the policy Client uses unless overridden.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   time.Minute,
		Multiplier: 2,
		Jitter:     true,
	}
}

// Delay returns the backoff before retry number attempt (0-indexed), capped
// at MaxDelay. With Jitter the result is spread over [d/2, 3d/2).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = d/2 + time.Duration(rand.Int63n(int64(d)))
	}
	return d
}

// retryAfterDelay extracts the server-requested wait from a rate limit
// error, if the provider sent one.
func retryAfterDelay(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter != nil {
		return time.Duration(*rl.RetryAfter * float64(time.Second)), true
	}
	return 0, false
}

// Retry runs fn until it succeeds, fails permanently, or the policy's
// attempts run out. A Retry-After longer than MaxDelay fails immediately
// rather than stalling the caller.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		delay := policy.Delay(attempt)
		if after, ok := retryAfterDelay(err); ok {
			if after > policy.MaxDelay {
				return zero, err
			}
			delay = after
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &AbortError{ClientError: ClientError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-timer.C:
		}
	}
}
