package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendDirection classifies a trend for display.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
	// TrendNew marks an undefined trend: the comparison base is zero, so
	// no percentage exists. Never rendered as a number.
	TrendNew TrendDirection = "new"
)

// stableBandPct is the band within which a trend counts as stable.
const stableBandPct = 5.0

type (
	// Trend is a percentage delta with an explicit undefined state.
	// When Defined is false, Percent is meaningless and Direction is
	// TrendNew.
	Trend struct {
		Percent   float64
		Direction TrendDirection
		Defined   bool
	}

	// MonthBucket is the expense total for one calendar month. Every
	// month between a dataset's first and last expense appears, zero
	// months included.
	MonthBucket struct {
		Month Month
		Total decimal.Decimal
	}

	// CategoryTrend compares one category's last-complete-month spending
	// against the prior complete month.
	CategoryTrend struct {
		Name    string
		Current decimal.Decimal
		Prior   decimal.Decimal
		Trend   Trend
	}

	// StatisticsReport is the full output of a run over one dataset.
	StatisticsReport struct {
		GeneratedAt       time.Time
		LastCompleteMonth Month
		LastMonthTotal    decimal.Decimal
		LastMonthCount    int
		MonthlyAverage    decimal.Decimal
		TotalMonths       int
		Buckets           []MonthBucket
		OverallTrend      Trend
		TopCategories     []CategoryTrend
	}
)

// UndefinedTrend returns the sentinel for a trend with a zero base.
func UndefinedTrend() Trend {
	return Trend{Direction: TrendNew}
}

// TrendBetween computes (value-base)/base*100 with half-up rounding to
// one decimal, classifying the result as up, down, or stable. A zero
// base yields the undefined sentinel, never a division.
func TrendBetween(value, base decimal.Decimal) Trend {
	if base.IsZero() {
		return UndefinedTrend()
	}
	pct, _ := value.Sub(base).Div(base).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	dir := TrendStable
	switch {
	case pct > stableBandPct:
		dir = TrendUp
	case pct < -stableBandPct:
		dir = TrendDown
	}
	return Trend{Percent: pct, Direction: dir, Defined: true}
}
