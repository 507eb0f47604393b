package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ledgerdash/internal/log"
)

// PaginatorConfig holds pagination limits and the retry policy.
type PaginatorConfig struct {
	// PageSize is the fixed number of entries requested per page.
	PageSize int

	// MaxRecords caps the total fetch; 0 means no ceiling.
	MaxRecords int

	Retry RetryPolicy
}

// DefaultPaginatorConfig returns sensible defaults.
func DefaultPaginatorConfig() PaginatorConfig {
	return PaginatorConfig{
		PageSize: 100,
		Retry:    DefaultRetryPolicy(),
	}
}

// Paginator drives a full live fetch: pages are requested in sequence
// until a short page signals end of history or the record ceiling is
// reached. Any page that exhausts its retries aborts the whole fetch;
// a partial dataset is never returned.
type Paginator struct {
	source Source
	config PaginatorConfig
	clock  Clock
	pacer  *Pacer
	logger *log.Logger
}

// NewPaginator creates a paginator over the given source. pacer may be
// nil when no client-side request pacing is wanted.
func NewPaginator(source Source, config PaginatorConfig, pacer *Pacer, logger *log.Logger) *Paginator {
	if config.PageSize < 1 {
		config.PageSize = DefaultPaginatorConfig().PageSize
	}
	if config.Retry.MaxAttempts < 1 {
		config.Retry = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Paginator{
		source: source,
		config: config,
		clock:  RealClock(),
		pacer:  pacer,
		logger: logger.WithComponent(log.ComponentPaginator),
	}
}

// WithClock replaces the wall clock, for tests.
func (p *Paginator) WithClock(clock Clock) *Paginator {
	p.clock = clock
	return p
}

// FetchAll requests pages until exhaustion and returns every raw entry
// in page order. Duplicate ids across pages are left for the normalizer
// to resolve.
func (p *Paginator) FetchAll(ctx context.Context) ([]json.RawMessage, error) {
	var all []json.RawMessage
	offset := 0
	page := 0

	for {
		if p.pacer != nil {
			if err := p.pacer.Wait(ctx, p.clock); err != nil {
				return nil, err
			}
		}

		entries, hasMore, err := p.fetchPageWithRetry(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}

		all = append(all, entries...)
		page++
		p.logger.DebugContext(ctx, "Fetched page",
			log.FieldPage, page,
			log.FieldOffset, offset,
			log.FieldRecordCount, len(entries))

		if !hasMore || len(entries) < p.config.PageSize {
			break
		}
		if p.config.MaxRecords > 0 && len(all) >= p.config.MaxRecords {
			p.logger.InfoContext(ctx, "Record ceiling reached, stopping pagination",
				log.FieldRecordCount, len(all))
			break
		}
		offset += p.config.PageSize
	}

	p.logger.InfoContext(ctx, "Pagination complete",
		log.FieldPage, page,
		log.FieldRecordCount, len(all))
	return all, nil
}

func (p *Paginator) fetchPageWithRetry(ctx context.Context, offset int) ([]json.RawMessage, bool, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.Retry.MaxAttempts; attempt++ {
		entries, hasMore, err := p.source.FetchPage(ctx, offset, p.config.PageSize)
		if err == nil {
			return entries, hasMore, nil
		}
		if errors.Is(err, ErrAuth) || !IsTransient(err) {
			return nil, false, err
		}

		lastErr = err
		if attempt == p.config.Retry.MaxAttempts {
			break
		}

		delay := p.config.Retry.Delay(attempt)
		p.logger.WarnContext(ctx, "Page fetch failed, retrying",
			log.FieldOffset, offset,
			log.FieldAttempt, attempt,
			"delay", delay,
			log.FieldError, err)
		if err := p.clock.Sleep(ctx, delay); err != nil {
			return nil, false, err
		}
	}

	return nil, false, fmt.Errorf("exhausted %d attempts: %w", p.config.Retry.MaxAttempts, lastErr)
}
