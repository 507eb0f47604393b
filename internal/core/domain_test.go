package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func expenseRecord(id int64, date time.Time, cost string) Record {
	return Record{
		ID:   id,
		Kind: KindExpense,
		Date: date,
		Cost: decimal.RequireFromString(cost),
	}
}

func TestRecordCountable(t *testing.T) {
	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"expense with cost", expenseRecord(1, date, "50.00"), true},
		{"zero cost expense", expenseRecord(2, date, "0"), false},
		{"negative cost expense", expenseRecord(3, date, "-10.00"), false},
		{"zero date", expenseRecord(4, time.Time{}, "10.00"), false},
		{"settlement", Record{ID: 5, Kind: KindSettlement, Date: date, Cost: decimal.RequireFromString("30.00")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Countable(); got != tt.want {
				t.Errorf("Countable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDatasetCountable(t *testing.T) {
	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	ds := Dataset{
		Records: []Record{
			expenseRecord(1, date, "50.00"),
			{ID: 2, Kind: KindSettlement, Date: date, Cost: decimal.RequireFromString("30.00")},
			expenseRecord(3, date, "0"),
		},
		Provenance: LiveFetch,
	}

	countable := ds.Countable()
	if len(countable) != 1 {
		t.Fatalf("expected 1 countable record, got %d", len(countable))
	}
	if countable[0].ID != 1 {
		t.Errorf("expected record 1, got %d", countable[0].ID)
	}
	if ds.Len() != 3 {
		t.Errorf("Len should include settlements and zero-cost records, got %d", ds.Len())
	}
}

func TestRecordCategoryName(t *testing.T) {
	r := Record{Category: &Category{ID: 12, Name: "Food"}}
	if r.CategoryName() != "Food" {
		t.Errorf("expected Food, got %q", r.CategoryName())
	}
	if (Record{}).CategoryName() != "" {
		t.Error("nil category should yield empty name")
	}
}

func TestTrendBetween(t *testing.T) {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	tests := []struct {
		name    string
		value   string
		base    string
		wantPct float64
		wantDir TrendDirection
		defined bool
	}{
		{"above band", "120", "100", 20.0, TrendUp, true},
		{"below band", "80", "100", -20.0, TrendDown, true},
		{"within band", "103", "100", 3.0, TrendStable, true},
		{"equal", "100", "100", 0.0, TrendStable, true},
		{"zero base", "50", "0", 0.0, TrendNew, false},
		{"rounds to one decimal", "100.125", "100", 0.1, TrendStable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrendBetween(d(tt.value), d(tt.base))
			if got.Defined != tt.defined {
				t.Fatalf("Defined = %v, want %v", got.Defined, tt.defined)
			}
			if got.Direction != tt.wantDir {
				t.Errorf("Direction = %v, want %v", got.Direction, tt.wantDir)
			}
			if tt.defined && got.Percent != tt.wantPct {
				t.Errorf("Percent = %v, want %v", got.Percent, tt.wantPct)
			}
		})
	}
}
