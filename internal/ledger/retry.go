package ledger

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a failed page fetch is reattempted and
// how long to back off between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per page, first attempt
	// included.
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration

	// Multiplier grows the delay after each failed attempt.
	Multiplier float64

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

// Delay returns the backoff after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	delay := time.Duration(d)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Clock abstracts waiting so retry behavior is testable without real
// sleeps.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns a Clock backed by the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
