package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"ledgerdash/internal/core"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type dashboardData struct {
	Summary Summary
	Rows    []Row
}

// RenderDashboard produces the self-contained HTML dashboard for a run.
func RenderDashboard(title string, rep core.StatisticsReport, ds core.Dataset) ([]byte, error) {
	data := dashboardData{
		Summary: BuildSummary(title, rep),
		Rows:    BuildRows(ds),
	}
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

// DashboardName is the dated file name for a rendered dashboard,
// matching the snapshot naming convention.
func DashboardName(rep core.StatisticsReport) string {
	return rep.GeneratedAt.Format("2006-01-02") + "_dashboard.html"
}
