package core

import (
	"testing"
	"time"
)

func TestMonthPrevNext(t *testing.T) {
	jan := Month{Year: 2024, Month: time.January}
	dec := Month{Year: 2023, Month: time.December}

	if jan.Prev() != dec {
		t.Errorf("expected Prev of Jan 2024 to be Dec 2023, got %v", jan.Prev())
	}
	if dec.Next() != jan {
		t.Errorf("expected Next of Dec 2023 to be Jan 2024, got %v", dec.Next())
	}
}

func TestMonthOrdering(t *testing.T) {
	a := Month{Year: 2023, Month: time.December}
	b := Month{Year: 2024, Month: time.January}

	if !a.Before(b) {
		t.Error("Dec 2023 should be before Jan 2024")
	}
	if !b.After(a) {
		t.Error("Jan 2024 should be after Dec 2023")
	}
	if a.Before(a) {
		t.Error("a month is not before itself")
	}
}

func TestMonthRange(t *testing.T) {
	first := Month{Year: 2024, Month: time.January}
	last := Month{Year: 2024, Month: time.June}

	months := MonthRange(first, last)
	if len(months) != 6 {
		t.Fatalf("expected 6 months Jan-Jun, got %d", len(months))
	}
	if months[0] != first {
		t.Errorf("expected first month %v, got %v", first, months[0])
	}
	if months[5] != last {
		t.Errorf("expected last month %v, got %v", last, months[5])
	}
}

func TestMonthRangeAcrossYears(t *testing.T) {
	months := MonthRange(Month{2023, time.November}, Month{2024, time.February})
	if len(months) != 4 {
		t.Fatalf("expected 4 months Nov 2023-Feb 2024, got %d", len(months))
	}
	if months[1] != (Month{2023, time.December}) || months[2] != (Month{2024, time.January}) {
		t.Errorf("year boundary mishandled: %v", months)
	}
}

func TestMonthRangeInverted(t *testing.T) {
	if got := MonthRange(Month{2024, time.June}, Month{2024, time.January}); got != nil {
		t.Errorf("inverted range should be nil, got %v", got)
	}
}

func TestMonthRangeSingle(t *testing.T) {
	m := Month{2024, time.March}
	months := MonthRange(m, m)
	if len(months) != 1 || months[0] != m {
		t.Errorf("single-month range should contain exactly that month, got %v", months)
	}
}

func TestMonthString(t *testing.T) {
	m := Month{Year: 2024, Month: time.March}
	if m.String() != "2024-03" {
		t.Errorf("expected 2024-03, got %s", m.String())
	}
	if m.Name() != "March 2024" {
		t.Errorf("expected March 2024, got %s", m.Name())
	}
}

func TestMonthOf(t *testing.T) {
	d := time.Date(2024, time.March, 5, 13, 45, 0, 0, time.UTC)
	if MonthOf(d) != (Month{2024, time.March}) {
		t.Errorf("unexpected month for %v: %v", d, MonthOf(d))
	}
}
