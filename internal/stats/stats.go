// Package stats derives the monthly statistics report from a dataset.
// Compute is a pure function: same dataset and run time, same report.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ledgerdash/internal/core"
)

// DefaultTopCategories is the number of ranked categories reported
// when no override is configured.
const DefaultTopCategories = 5

// uncategorized buckets countable expenses that carry no category.
const uncategorized = "Uncategorized"

// Compute builds the report for a run happening at now. An empty
// dataset yields a report with zero totals and undefined trends; that
// is a valid state, not an error.
func Compute(ds core.Dataset, now time.Time, topN int) core.StatisticsReport {
	if topN <= 0 {
		topN = DefaultTopCategories
	}

	lastComplete := core.MonthOf(now).Prev()
	report := core.StatisticsReport{
		GeneratedAt:       now,
		LastCompleteMonth: lastComplete,
		LastMonthTotal:    decimal.Zero,
		MonthlyAverage:    decimal.Zero,
		OverallTrend:      core.UndefinedTrend(),
	}

	countable := ds.Countable()
	if len(countable) == 0 {
		return report
	}

	report.Buckets = monthBuckets(countable)
	report.TotalMonths = len(report.Buckets)

	var sum decimal.Decimal
	for _, b := range report.Buckets {
		sum = sum.Add(b.Total)
	}
	// Zero months count toward the divisor: a quiet month drags the
	// average down instead of vanishing from it.
	report.MonthlyAverage = sum.Div(decimal.NewFromInt(int64(report.TotalMonths)))

	for _, b := range report.Buckets {
		if b.Month == lastComplete {
			report.LastMonthTotal = b.Total
			break
		}
	}
	for _, r := range countable {
		if r.Month() == lastComplete {
			report.LastMonthCount++
		}
	}

	report.OverallTrend = core.TrendBetween(report.LastMonthTotal, report.MonthlyAverage)
	report.TopCategories = topCategories(countable, lastComplete, topN)
	return report
}

// monthBuckets totals expenses per month across the full inclusive
// range, with explicit zero buckets for months that saw no spending.
func monthBuckets(records []core.Record) []core.MonthBucket {
	first := records[0].Month()
	last := first
	totals := make(map[core.Month]decimal.Decimal)

	for _, r := range records {
		m := r.Month()
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
		totals[m] = totals[m].Add(r.Cost)
	}

	months := core.MonthRange(first, last)
	buckets := make([]core.MonthBucket, len(months))
	for i, m := range months {
		buckets[i] = core.MonthBucket{Month: m, Total: totals[m]}
	}
	return buckets
}

// topCategories ranks the last complete month's categories by spend
// and compares each against the prior complete month.
func topCategories(records []core.Record, lastComplete core.Month, topN int) []core.CategoryTrend {
	prior := lastComplete.Prev()
	current := make(map[string]decimal.Decimal)
	previous := make(map[string]decimal.Decimal)

	for _, r := range records {
		name := r.CategoryName()
		if name == "" {
			name = uncategorized
		}
		switch r.Month() {
		case lastComplete:
			current[name] = current[name].Add(r.Cost)
		case prior:
			previous[name] = previous[name].Add(r.Cost)
		}
	}

	trends := make([]core.CategoryTrend, 0, len(current))
	for name, cur := range current {
		prev := previous[name]
		trends = append(trends, core.CategoryTrend{
			Name:    name,
			Current: cur,
			Prior:   prev,
			Trend:   core.TrendBetween(cur, prev),
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if !trends[i].Current.Equal(trends[j].Current) {
			return trends[i].Current.GreaterThan(trends[j].Current)
		}
		return trends[i].Name < trends[j].Name
	})

	if len(trends) > topN {
		trends = trends[:topN]
	}
	return trends
}
