package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/velodash/velodash/internal/rentals"
)

// HTMLRenderer converts an HTML document into PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter renders the dashboard summary through an HTML-to-PDF service.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// ErrPDFUnavailable is returned when no renderer is configured.
var ErrPDFUnavailable = errors.New("export: pdf renderer not configured")

// RenderDashboard builds the summary document and converts it to PDF.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload Payload) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, ErrPDFUnavailable
	}
	html, err := BuildHTML(payload)
	if err != nil {
		return nil, err
	}
	pdf, err := p.Renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return pdf, nil
}

// BuildHTML renders the standalone document sent to the PDF service.
func BuildHTML(payload Payload) (string, error) {
	var buf bytes.Buffer
	if err := pdfTemplate.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("export: pdf template: %w", err)
	}
	return buf.String(), nil
}

var pdfTemplate = template.Must(template.New("pdf").Funcs(template.FuncMap{
	"day":     func(p Payload) string { return p.Comparison.Date.Format(rentals.DateLayout) },
	"date":    func(t time.Time) string { return t.Format(rentals.DateLayout) },
	"float":   formatFloat,
	"percent": formatPercent,
	"labels":  joinLabels,
}).Parse(`<html><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}
th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}.metric-label{text-align:left;}
</style></head><body>
<h1>Bike Rental Dashboard - {{day .}}</h1>
<section><h2>Daily Report</h2><table><thead><tr><th>Metric</th><th>Total</th><th>Change</th></tr></thead><tbody>
<tr><td class="metric-label">Today</td><td>{{.Comparison.CurrentTotal}}</td><td>{{percent .Comparison.DailyChange}}</td></tr>
<tr><td class="metric-label">Yesterday</td><td>{{.Comparison.YesterdayTotal}}</td><td>{{percent .Comparison.DailyChange}}</td></tr>
<tr><td class="metric-label">Last Week</td><td>{{.Comparison.LastWeekTotal}}</td><td>{{percent .Comparison.WeeklyChange}}</td></tr>
<tr><td class="metric-label">Last Month</td><td>{{.Comparison.LastMonthTotal}}</td><td>{{percent .Comparison.MonthlyChange}}</td></tr>
</tbody></table></section>
{{with .Overview}}
<section><h2>Filter</h2><table><tbody>
<tr><td class="metric-label">Range</td><td>{{date .Filter.From}} to {{date .Filter.To}}</td></tr>
<tr><td class="metric-label">Seasons</td><td>{{labels .Filter.Seasons}}</td></tr>
<tr><td class="metric-label">Weather</td><td>{{labels .Filter.Weathers}}</td></tr>
<tr><td class="metric-label">Days</td><td>{{.Days}}</td></tr>
</tbody></table></section>
<section><h2>Totals</h2><table><tbody>
<tr><td class="metric-label">Total</td><td>{{.Totals.Total}}</td></tr>
<tr><td class="metric-label">Casual</td><td>{{.Totals.Casual}}</td></tr>
<tr><td class="metric-label">Registered</td><td>{{.Totals.Registered}}</td></tr>
<tr><td class="metric-label">Working Day Average</td><td>{{float .WorkingDay.WorkingAverage}}</td></tr>
<tr><td class="metric-label">Weekend/Holiday Average</td><td>{{float .WorkingDay.NonWorkingAverage}}</td></tr>
</tbody></table></section>
{{if .Weather}}<section><h2>Average Rentals by Weather</h2><table><thead><tr><th>Weather</th><th>Days</th><th>Average</th></tr></thead><tbody>
{{range .Weather}}<tr><td class="metric-label">{{.Label}}</td><td>{{.Days}}</td><td>{{float .Average}}</td></tr>
{{end}}</tbody></table></section>{{end}}
{{if .Seasons}}<section><h2>Seasons</h2><table><thead><tr><th>Season</th><th>Days</th><th>Total</th><th>Average</th></tr></thead><tbody>
{{range .Seasons}}<tr><td class="metric-label">{{.Label}}</td><td>{{.Days}}</td><td>{{.Total}}</td><td>{{float .Average}}</td></tr>
{{end}}</tbody></table></section>{{end}}
{{end}}
</body></html>`))
