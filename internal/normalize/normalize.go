// Package normalize converts raw ledger payloads into typed records.
// It is the only place that touches the API's native shape; everything
// downstream works on core.Record.
package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

var (
	ErrMissingID = errors.New("entry has no id")
	ErrBadDate   = errors.New("malformed date")
	ErrBadCost   = errors.New("malformed cost")
)

// Rejection records one malformed entry that was excluded from the
// dataset. Rejections are warnings; the run continues.
type Rejection struct {
	Index  int
	ID     int64
	Reason error
}

func (r Rejection) Error() string {
	return fmt.Sprintf("entry %d (id %d): %v", r.Index, r.ID, r.Reason)
}

// entry mirrors the subset of the ledger payload the pipeline reads.
// Everything else rides along untouched in the raw bytes.
type entry struct {
	ID           int64        `json:"id"`
	Description  string       `json:"description"`
	Payment      bool         `json:"payment"`
	DeletedAt    *string      `json:"deleted_at"`
	Date         string       `json:"date"`
	Cost         string       `json:"cost"`
	CurrencyCode string       `json:"currency_code"`
	Category     *rawCategory `json:"category"`
}

type rawCategory struct {
	ID     int64        `json:"id"`
	Name   string       `json:"name"`
	Parent *rawCategory `json:"parent"`
}

// Normalizer parses raw entries, drops voided ones, dedups by id, and
// orders the result by date.
type Normalizer struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Normalizer{logger: logger.WithComponent(log.ComponentNormalize)}
}

// Dataset normalizes a full raw history into one dataset. Rejections
// are logged as warnings and returned for accounting; they never abort
// the run.
func (n *Normalizer) Dataset(ctx context.Context, raws []json.RawMessage, prov core.Provenance) (core.Dataset, []Rejection) {
	records := make([]core.Record, 0, len(raws))
	var rejections []Rejection
	seen := make(map[int64]struct{}, len(raws))

	for i, raw := range raws {
		rec, dropped, err := n.One(raw)
		if err != nil {
			rej := Rejection{Index: i, ID: rec.ID, Reason: err}
			rejections = append(rejections, rej)
			n.logger.WarnContext(ctx, "Rejected malformed entry",
				log.FieldRecordID, rec.ID,
				log.FieldError, err)
			continue
		}
		if dropped {
			continue
		}
		// Overlapping pages or cross-group views can repeat an id;
		// the first copy wins.
		if _, dup := seen[rec.ID]; dup {
			n.logger.DebugContext(ctx, "Skipping duplicate entry", log.FieldRecordID, rec.ID)
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return core.Dataset{Records: records, Provenance: prov}, rejections
}

// One normalizes a single raw entry. dropped is true for entries the
// source flags as deleted; they produce neither a record nor an error.
func (n *Normalizer) One(raw json.RawMessage) (core.Record, bool, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return core.Record{}, false, fmt.Errorf("decode entry: %w", err)
	}
	if e.ID == 0 {
		return core.Record{}, false, ErrMissingID
	}
	if e.DeletedAt != nil && *e.DeletedAt != "" {
		return core.Record{ID: e.ID}, true, nil
	}

	date, err := parseDate(e.Date)
	if err != nil {
		return core.Record{ID: e.ID}, false, err
	}

	cost := decimal.Zero
	if e.Cost != "" {
		cost, err = decimal.NewFromString(e.Cost)
		if err != nil {
			return core.Record{ID: e.ID}, false, fmt.Errorf("%w: %q", ErrBadCost, e.Cost)
		}
	}

	kind := core.KindExpense
	var category *core.Category
	if e.Payment {
		kind = core.KindSettlement
	} else if e.Category != nil {
		category = &core.Category{ID: e.Category.ID, Name: e.Category.Name}
		if e.Category.Parent != nil {
			category.Parent = e.Category.Parent.Name
		}
	}

	return core.Record{
		ID:           e.ID,
		Kind:         kind,
		Date:         date,
		Cost:         cost,
		CurrencyCode: e.CurrencyCode,
		Category:     category,
		Description:  e.Description,
		Raw:          raw,
	}, false, nil
}

// parseDate accepts the ledger's timestamp form and a bare date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrBadDate)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}
