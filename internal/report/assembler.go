// Package report turns a statistics report and its dataset into
// deliverable artifacts: dashboard HTML, email bodies, and sink
// payloads.
package report

import (
	"fmt"

	"ledgerdash/internal/core"
)

type (
	// Summary is the human-facing view of a statistics report.
	Summary struct {
		Title         string
		ReportDate    string
		MonthName     string
		TotalExpenses string
		ExpenseCount  int
		MonthlyAvg    string
		Trend         TrendView
		TotalMonths   int
		TopCategories []CategoryView
	}

	TrendView struct {
		Label     string // "+12.2%", "-3.0%", or "new"
		Direction string // up, down, stable, new
	}

	CategoryView struct {
		Name   string
		Amount string
		Prior  string
		Trend  TrendView
	}

	// Row is one dashboard table line. Settlements never appear here;
	// they exist only in the backup.
	Row struct {
		Date        string
		Description string
		Category    string
		Amount      string
		Currency    string
	}
)

// BuildSummary assembles the display view of a report.
func BuildSummary(title string, rep core.StatisticsReport) Summary {
	s := Summary{
		Title:         title,
		ReportDate:    rep.GeneratedAt.Format("2006-01-02 15:04"),
		MonthName:     rep.LastCompleteMonth.Name(),
		TotalExpenses: money(rep.LastMonthTotal.StringFixed(2)),
		ExpenseCount:  rep.LastMonthCount,
		MonthlyAvg:    money(rep.MonthlyAverage.StringFixed(2)),
		Trend:         trendView(rep.OverallTrend),
		TotalMonths:   rep.TotalMonths,
	}
	for _, c := range rep.TopCategories {
		s.TopCategories = append(s.TopCategories, CategoryView{
			Name:   c.Name,
			Amount: money(c.Current.StringFixed(2)),
			Prior:  money(c.Prior.StringFixed(2)),
			Trend:  trendView(c.Trend),
		})
	}
	return s
}

// BuildRows assembles the dashboard table from the countable records,
// newest first.
func BuildRows(ds core.Dataset) []Row {
	countable := ds.Countable()
	rows := make([]Row, 0, len(countable))
	for i := len(countable) - 1; i >= 0; i-- {
		r := countable[i]
		category := r.CategoryName()
		if category == "" {
			category = "Uncategorized"
		}
		rows = append(rows, Row{
			Date:        r.Date.Format("2006-01-02"),
			Description: r.Description,
			Category:    category,
			Amount:      r.Cost.StringFixed(2),
			Currency:    r.CurrencyCode,
		})
	}
	return rows
}

func trendView(t core.Trend) TrendView {
	if !t.Defined {
		return TrendView{Label: "new", Direction: string(core.TrendNew)}
	}
	return TrendView{
		Label:     fmt.Sprintf("%+.1f%%", t.Percent),
		Direction: string(t.Direction),
	}
}

func money(s string) string {
	return "€" + s
}
