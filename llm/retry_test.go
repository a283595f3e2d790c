package llm

import (
	"context"
	"testing"
	"time"
)

func TestRetryPolicyDelay(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:  time.Second,
		Multiplier: 2,
		MaxDelay:   time.Minute,
		Jitter:     false,
	}

	delays := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}

	for i, expected := range delays {
		if got := policy.Delay(i); got != expected {
			t.Errorf("attempt %d: expected %v, got %v", i, expected, got)
		}
	}
}

func TestRetryPolicyDelayWithMaxCap(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:  time.Second,
		Multiplier: 2,
		MaxDelay:   5 * time.Second,
		Jitter:     false,
	}

	if got := policy.Delay(10); got != 5*time.Second {
		t.Errorf("expected 5s (capped), got %v", got)
	}
}

func TestRetryPolicyDelayWithJitter(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:  time.Second,
		Multiplier: 2,
		MaxDelay:   time.Minute,
		Jitter:     true,
	}

	for i := 0; i < 100; i++ {
		got := policy.Delay(0)
		if got < 500*time.Millisecond || got >= 1500*time.Millisecond {
			t.Errorf("jittered delay out of range: %v", got)
		}
	}
}

func TestRetrySuccessAfterRetryableErrors(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	callCount := 0
	result, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		callCount++
		if callCount < 3 {
			return "", &ServerError{ProviderError: ProviderError{
				ClientError: ClientError{Message: "server error"}, Retryable: true,
			}}
		}
		return "success", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "success" {
		t.Errorf("expected %q, got %q", "success", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	callCount := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		callCount++
		return "", &AuthenticationError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "invalid key"},
		}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	callCount := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		callCount++
		return 0, &ServerError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "still down"}, Retryable: true,
		}}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if callCount != 3 { // initial + 2 retries
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetryReportsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}

	var attempts []int
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		return "", &ServerError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "down"}, Retryable: true,
		}}
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry attempts [1 2], got %v", attempts)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: 10 * time.Second, Multiplier: 1, MaxDelay: 10 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, policy, func(ctx context.Context) (string, error) {
		return "", &ServerError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "down"}, Retryable: true,
		}}
	})
	if _, ok := err.(*AbortError); !ok {
		t.Errorf("expected AbortError, got %T", err)
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Second}

	after := 0.002
	var sawDelay time.Duration
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		sawDelay = delay
	}

	callCount := 0
	result, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		callCount++
		if callCount == 1 {
			return "", &RateLimitError{ProviderError: ProviderError{
				ClientError: ClientError{Message: "slow down"},
				Retryable:   true,
				RetryAfter:  &after,
			}}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected %q, got %q", "ok", result)
	}
	if sawDelay != 2*time.Millisecond {
		t.Errorf("expected Retry-After delay of 2ms, got %v", sawDelay)
	}
}

func TestRetryAfterExceedsMaxDelay(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Second}

	after := 30.0
	callCount := 0
	_, err := Retry(context.Background(), policy, func(ctx context.Context) (string, error) {
		callCount++
		return "", &RateLimitError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "slow down"},
			Retryable:   true,
			RetryAfter:  &after,
		}}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 1 {
		t.Errorf("Retry-After beyond MaxDelay should fail immediately; got %d calls", callCount)
	}
}
