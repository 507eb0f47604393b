package core

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind distinguishes real spending from settlement transfers.
type RecordKind string

const (
	KindExpense    RecordKind = "expense"
	KindSettlement RecordKind = "settlement"
)

// Provenance identifies which tier supplied the dataset for a run.
type Provenance string

const (
	RemoteCache Provenance = "remote_cache"
	LocalCache  Provenance = "local_cache"
	LiveFetch   Provenance = "live_fetch"
)

type (
	// Category is the ledger's category reference attached to an expense.
	// Settlements carry no category.
	Category struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Parent string `json:"parent,omitempty"`
	}

	// Record is one normalized ledger entry. Raw holds the original API
	// payload byte-for-byte so backups round-trip losslessly; statistics
	// only ever read the typed fields.
	Record struct {
		ID           int64
		Kind         RecordKind
		Date         time.Time
		Cost         decimal.Decimal
		CurrencyCode string
		Category     *Category
		Description  string
		Raw          json.RawMessage
	}

	// Dataset is the full history for one account, ordered by date,
	// rebuilt wholesale on every run.
	Dataset struct {
		Records    []Record
		Provenance Provenance
	}
)

// Countable reports whether the record participates in statistics:
// expense kind, positive cost, valid date. Zero-cost and settlement
// records stay in the dataset for backup fidelity only.
func (r Record) Countable() bool {
	return r.Kind == KindExpense && r.Cost.IsPositive() && !r.Date.IsZero()
}

// Month returns the calendar month the record falls in.
func (r Record) Month() Month {
	return MonthOf(r.Date)
}

// CategoryName returns the category name, or an empty string for
// uncategorized records and settlements.
func (r Record) CategoryName() string {
	if r.Category == nil {
		return ""
	}
	return r.Category.Name
}

// Countable returns the records that participate in statistics.
func (d Dataset) Countable() []Record {
	out := make([]Record, 0, len(d.Records))
	for _, r := range d.Records {
		if r.Countable() {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records, settlements included.
func (d Dataset) Len() int { return len(d.Records) }

func (d Dataset) IsEmpty() bool { return len(d.Records) == 0 }
