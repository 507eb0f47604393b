// Package resolve decides which data source supplies the run's dataset:
// remote cache, local cache, or a live fetch, in that order.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ledgerdash/internal/core"
	"ledgerdash/internal/ledger"
	"ledgerdash/internal/log"
	"ledgerdash/internal/normalize"
	"ledgerdash/internal/snapshot"
)

// ErrNoLiveSource means a live fetch was required (cache disabled or
// every tier missed) but no ledger source was configured.
var ErrNoLiveSource = errors.New("live fetch required but no ledger source configured")

// Result is the resolved dataset plus per-record rejection warnings
// accumulated during normalization.
type Result struct {
	Dataset    core.Dataset
	Rejections []normalize.Rejection

	// RawEntries is the payload that produced the dataset, kept so the
	// pipeline can persist a fresh snapshot after a live fetch.
	RawEntries []json.RawMessage
}

// Resolver applies the cache-priority policy. Either store may be nil
// (tier absent); the paginator may be nil when a run is cache-only.
type Resolver struct {
	remote     snapshot.Store
	local      snapshot.Store
	paginator  *ledger.Paginator
	normalizer *normalize.Normalizer
	useCache   bool
	logger     *log.Logger
}

func New(remote, local snapshot.Store, paginator *ledger.Paginator, normalizer *normalize.Normalizer, useCache bool, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if normalizer == nil {
		normalizer = normalize.New(logger)
	}
	return &Resolver{
		remote:     remote,
		local:      local,
		paginator:  paginator,
		normalizer: normalizer,
		useCache:   useCache,
		logger:     logger.WithComponent(log.ComponentResolver),
	}
}

// Resolve produces the run's dataset. Cache tiers that are empty,
// unreadable, or unparsable fall through silently to the next tier;
// only a failed live fetch aborts.
func (r *Resolver) Resolve(ctx context.Context) (Result, error) {
	if r.useCache {
		tiers := []struct {
			store      snapshot.Store
			tier       string
			provenance core.Provenance
		}{
			{r.remote, "remote", core.RemoteCache},
			{r.local, "local", core.LocalCache},
		}
		for _, t := range tiers {
			if t.store == nil {
				continue
			}
			res, ok := r.tryTier(ctx, t.store, t.tier, t.provenance)
			if ok {
				return res, nil
			}
		}
		r.logger.InfoContext(ctx, "No usable cache snapshot, falling back to live fetch")
	}

	return r.liveFetch(ctx)
}

// tryTier loads and normalizes the newest snapshot at one tier. Any
// failure is a cache miss for that tier, never a run error.
func (r *Resolver) tryTier(ctx context.Context, store snapshot.Store, tier string, prov core.Provenance) (Result, bool) {
	refs, err := store.List(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Cache tier unavailable", log.FieldTier, tier, log.FieldError, err)
		return Result{}, false
	}
	ref, ok := snapshot.Latest(refs)
	if !ok {
		r.logger.DebugContext(ctx, "Cache tier empty", log.FieldTier, tier)
		return Result{}, false
	}

	data, err := store.Read(ctx, ref)
	if err != nil {
		r.logger.WarnContext(ctx, "Cache snapshot unreadable", log.FieldTier, tier, log.FieldSnapshot, ref.Name, log.FieldError, err)
		return Result{}, false
	}
	entries, err := snapshot.Decode(data)
	if err != nil {
		r.logger.WarnContext(ctx, "Cache snapshot unparsable, treating as miss", log.FieldTier, tier, log.FieldSnapshot, ref.Name, log.FieldError, err)
		return Result{}, false
	}

	ds, rejections := r.normalizer.Dataset(ctx, entries, prov)
	r.logger.InfoContext(ctx, "Loaded dataset from cache",
		log.FieldTier, tier,
		log.FieldSnapshot, ref.Name,
		log.FieldRecordCount, ds.Len(),
		log.FieldRejected, len(rejections))
	return Result{Dataset: ds, Rejections: rejections, RawEntries: entries}, true
}

func (r *Resolver) liveFetch(ctx context.Context) (Result, error) {
	if r.paginator == nil {
		return Result{}, ErrNoLiveSource
	}

	entries, err := r.paginator.FetchAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("live fetch: %w", err)
	}

	ds, rejections := r.normalizer.Dataset(ctx, entries, core.LiveFetch)
	r.logger.InfoContext(ctx, "Loaded dataset from live fetch",
		log.FieldRecordCount, ds.Len(),
		log.FieldRejected, len(rejections))
	return Result{Dataset: ds, Rejections: rejections, RawEntries: entries}, nil
}
