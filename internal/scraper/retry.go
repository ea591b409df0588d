package scraper

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// RetryPolicy controls RetryWithBackoff.
//
// Backoff formula: delay = InitialDelay * 2^attempt ± 25% jitter, capped at
// MaxDelay when set. Example with InitialDelay=2s, MaxRetries=3:
//
//	attempt 0: immediate (first try)
//	attempt 1: ~2s (1.5s - 2.5s)
//	attempt 2: ~4s (3s - 5s)
//	attempt 3: ~8s (6s - 10s)
type RetryPolicy struct {
	MaxRetries   int // 0 = try once
	InitialDelay time.Duration
	MaxDelay     time.Duration // 0 = uncapped

	// OnRetry is called before sleeping for the next attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// RetryWithBackoff retries fn with exponential backoff and jitter.
// Stops retrying immediately if the error is a permanentError (e.g., 404/403/401)
// and returns the underlying error.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var permErr *permanentError
		if errors.As(err, &permErr) {
			return permErr.Unwrap()
		}

		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.backoff(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt+1, err, delay)
		}

		if err := Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(2, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	halfDelay := int64(delay) / 2
	if halfDelay <= 0 {
		halfDelay = 1
	}
	jitterBig, err := rand.Int(rand.Reader, big.NewInt(halfDelay))
	if err != nil {
		jitterBig = big.NewInt(0)
	}
	return delay - delay/4 + time.Duration(jitterBig.Int64())
}

// Sleep waits for the specified duration, respecting context cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
