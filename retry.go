package tabextract

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy bounds how often and how patiently a call is repeated.
// The wait before attempt n+1 is Multiplier·2^(n-1), clamped to
// [MinWait, MaxWait]. Only retryable errors (see IsRetryable) are repeated.
type RetryPolicy struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration
	Multiplier  time.Duration

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows three attempts with waits of 4s and 4s
// (exponential from 1s, floored at 4s, capped at 10s).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinWait:     4 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  time.Second,
	}
}

// NoRetry makes exactly one attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Wait returns the pause that follows failed attempt n (1-based).
func (p RetryPolicy) Wait(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := time.Duration(float64(p.Multiplier) * math.Pow(2, float64(n-1)))
	if d < p.MinWait {
		d = p.MinWait
	}
	if p.MaxWait > 0 && d > p.MaxWait {
		d = p.MaxWait
	}
	return d
}

// Do runs call until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. It reports how many attempts were made.
func (p RetryPolicy) Do(ctx context.Context, log *slog.Logger, call func(ctx context.Context) error) (int, error) {
	if log == nil {
		log = slog.Default()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = call(ctx); err == nil {
			if attempt > 1 {
				log.Debug("Attempt succeeded", "attempt", attempt)
			}
			return attempt, nil
		}
		if !IsRetryable(err) {
			log.Debug("Attempt failed, not retryable", "attempt", attempt, "error", err)
			return attempt, err
		}
		if attempt == maxAttempts {
			log.Debug("Final attempt failed", "attempt", attempt, "error", err)
			return attempt, err
		}
		delay := p.Wait(attempt)
		log.Debug("Attempt failed, retrying", "attempt", attempt, "error", err, "delay", delay)
		if serr := sleep(ctx, delay); serr != nil {
			return attempt, fmt.Errorf("%w (retry aborted: %v)", err, serr)
		}
	}
	return maxAttempts, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
