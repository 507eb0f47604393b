package ledger

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces outbound API requests so a long pagination run stays
// under the ledger service's rate limit instead of tripping it and
// burning retry attempts.
type Pacer struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
	now         func() time.Time
}

// NewPacer creates a pacer allowing at most requestsPerMinute calls.
// A non-positive value disables pacing.
func NewPacer(requestsPerMinute int) *Pacer {
	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return &Pacer{
		minInterval: interval,
		now:         time.Now,
	}
}

// Wait blocks until the next request is allowed to go out.
func (p *Pacer) Wait(ctx context.Context, clock Clock) error {
	if p.minInterval <= 0 {
		return nil
	}

	p.mu.Lock()
	now := p.now()
	wait := p.minInterval - now.Sub(p.last)
	if wait < 0 {
		wait = 0
	}
	p.last = now.Add(wait)
	p.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return clock.Sleep(ctx, wait)
}
