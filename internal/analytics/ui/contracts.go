package ui

import (
	"html/template"
	"math"
	"strconv"
	"time"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/analytics/svg"
	"github.com/velodash/velodash/internal/rentals"
)

// Option is one entry of a sidebar multi-select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// DashboardFilters represents sanitized query filters used by the dashboard.
type DashboardFilters struct {
	From     string
	To       string
	Date     string
	MinDate  string
	MaxDate  string
	Seasons  []Option
	Weathers []Option
}

// Change is a formatted percentage change: arrow, absolute percent and CSS class.
type Change struct {
	Value   float64
	Arrow   string
	Percent string
	Class   string
}

// MetricCard is one card of the daily report.
type MetricCard struct {
	Title    string
	Total    int64
	Change   Change
	Headline bool
}

// Charts holds the rendered SVG fragments. An empty fragment means no data.
type Charts struct {
	Trend       template.HTML
	Weather     template.HTML
	SeasonMonth template.HTML
	Temperature template.HTML
	WorkingDay  template.HTML
	Users       template.HTML
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Filters    DashboardFilters
	ReportDate time.Time
	Report     []MetricCard
	Days       int
	Totals     analytics.Totals
	Seasons    []analytics.SeasonSummary
	Charts     Charts
	Exports    ExportLinks
}

// ExportLinks carries the download URLs for the current selection. PDF is
// empty when no renderer is configured.
type ExportLinks struct {
	CSV  string
	XLSX string
	PDF  string
}

// LineRenderer abstracts SVG line chart rendering for the dashboard.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
	MultiLine(width, height int, series []svg.Series, labels []string, opts svg.MultiLineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// SeasonColors keeps each season's scatter colour fixed whatever the filter.
var SeasonColors = map[string]string{
	rentals.SeasonSpring.Label(): "#16a34a",
	rentals.SeasonSummer.Label(): "#dc2626",
	rentals.SeasonFall.Label():   "#f97316",
	rentals.SeasonWinter.Label(): "#2563eb",
}

// ShareRenderer abstracts pie and scatter rendering.
type ShareRenderer interface {
	Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error)
	Scatter(width, height int, points []svg.Point, opts svg.ScatterOpts) (template.HTML, error)
}

// ChartRenderer is the full set of renderers used by the dashboard.
type ChartRenderer interface {
	LineRenderer
	BarRenderer
	ShareRenderer
}

// SVGRenderer delegates to the svg package.
type SVGRenderer struct{}

func (SVGRenderer) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

func (SVGRenderer) MultiLine(width, height int, series []svg.Series, labels []string, opts svg.MultiLineOpts) (template.HTML, error) {
	return svg.MultiLine(width, height, series, labels, opts)
}

func (SVGRenderer) Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, seriesA, seriesB, labels, opts)
}

func (SVGRenderer) Pie(width, height int, slices []svg.Slice, opts svg.PieOpts) (template.HTML, error) {
	return svg.Pie(width, height, slices, opts)
}

func (SVGRenderer) Scatter(width, height int, points []svg.Point, opts svg.ScatterOpts) (template.HTML, error) {
	return svg.Scatter(width, height, points, opts)
}

// FormatChange renders a percentage change as arrow plus absolute value with
// one decimal.
func FormatChange(change float64) Change {
	c := Change{Value: change, Percent: formatPercent(math.Abs(change))}
	switch {
	case change > 0:
		c.Arrow, c.Class = "↑", "change-up"
	case change < 0:
		c.Arrow, c.Class = "↓", "change-down"
	default:
		c.Arrow, c.Class = "→", "change-flat"
	}
	return c
}

// ToMetricCards converts a comparison into the four daily report cards.
func ToMetricCards(cmp analytics.Comparison) []MetricCard {
	return []MetricCard{
		{Title: "Today's Total Rentals", Total: cmp.CurrentTotal, Change: FormatChange(cmp.DailyChange), Headline: true},
		{Title: "vs Yesterday", Total: cmp.YesterdayTotal, Change: FormatChange(cmp.DailyChange)},
		{Title: "vs Last Week", Total: cmp.LastWeekTotal, Change: FormatChange(cmp.WeeklyChange)},
		{Title: "vs Last Month", Total: cmp.LastMonthTotal, Change: FormatChange(cmp.MonthlyChange)},
	}
}

// ToFilterView builds the sidebar state from a filter and the dataset bounds.
func ToFilterView(f analytics.Filter, reportDate, first, latest time.Time) DashboardFilters {
	view := DashboardFilters{
		From:    formatDay(f.From),
		To:      formatDay(f.To),
		Date:    formatDay(reportDate),
		MinDate: formatDay(first),
		MaxDate: formatDay(latest),
	}
	for _, label := range rentals.SeasonLabels() {
		view.Seasons = append(view.Seasons, Option{Value: label, Label: label, Selected: contains(f.Seasons, label)})
	}
	for _, label := range rentals.WeatherLabels() {
		view.Weathers = append(view.Weathers, Option{Value: label, Label: label, Selected: contains(f.Weathers, label)})
	}
	return view
}

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// BuildCharts renders every dashboard chart. Charts without data stay empty.
func BuildCharts(r ChartRenderer, trend []analytics.DailyTotal, ov analytics.Overview) (Charts, error) {
	var (
		charts Charts
		err    error
	)
	if len(trend) > 0 {
		values := make([]float64, len(trend))
		labels := make([]string, len(trend))
		for i, point := range trend {
			values[i] = float64(point.Total)
			labels[i] = point.Date.Format("Jan 02")
		}
		charts.Trend, err = r.Line(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.LineOpts{
			Title:         "Total Rentals - Last 30 Days",
			Description:   "Daily total rentals with the latest day highlighted",
			HighlightLast: true,
		})
		if err != nil {
			return Charts{}, err
		}
	}
	if len(ov.Weather) > 0 {
		values := make([]float64, len(ov.Weather))
		labels := make([]string, len(ov.Weather))
		for i, w := range ov.Weather {
			values[i] = w.Average
			labels[i] = w.Label
		}
		charts.Weather, err = r.Bars(svg.DefaultWidth/2, svg.DefaultHeight, values, nil, labels, svg.BarOpts{
			Title:       "Average Rentals by Weather Condition",
			Description: "Mean daily rentals per weather situation",
			ShowValues:  true,
		})
		if err != nil {
			return Charts{}, err
		}
	}
	if len(ov.SeasonMonth) > 0 {
		series, labels := seasonMonthSeries(ov.SeasonMonth)
		charts.SeasonMonth, err = r.MultiLine(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.MultiLineOpts{
			Title:       "Average Rentals by Month and Season",
			Description: "Mean daily rentals per month, one line per season",
			ShowDots:    true,
		})
		if err != nil {
			return Charts{}, err
		}
	}
	if len(ov.Temperature) > 0 {
		points := make([]svg.Point, len(ov.Temperature))
		for i, pt := range ov.Temperature {
			points[i] = svg.Point{X: pt.Temp, Y: float64(pt.Count), Group: pt.Season.Label()}
		}
		charts.Temperature, err = r.Scatter(svg.DefaultWidth, svg.DefaultHeight+60, points, svg.ScatterOpts{
			Title:       "Temperature vs Total Rentals",
			Description: "Normalized temperature against daily rentals, coloured by season",
			XLabel:      "Temperature (normalized)",
			YLabel:      "Total Rentals",
			Colors:      SeasonColors,
			Order:       rentals.SeasonLabels(),
		})
		if err != nil {
			return Charts{}, err
		}
	}
	split := ov.WorkingDay
	if split.WorkingAverage > 0 || split.NonWorkingAverage > 0 {
		charts.WorkingDay, err = r.Pie(svg.DefaultWidth/2, svg.DefaultHeight, []svg.Slice{
			{Label: "Weekend/Holiday", Value: split.NonWorkingAverage},
			{Label: "Working Day", Value: split.WorkingAverage},
		}, svg.PieOpts{Title: "Average Rentals: Working Days vs Weekends"})
		if err != nil {
			return Charts{}, err
		}
	}
	if ov.Users.Casual > 0 || ov.Users.Registered > 0 {
		charts.Users, err = r.Pie(svg.DefaultWidth/2, svg.DefaultHeight, []svg.Slice{
			{Label: "Casual", Value: float64(ov.Users.Casual)},
			{Label: "Registered", Value: float64(ov.Users.Registered)},
		}, svg.PieOpts{Title: "User Type Distribution"})
		if err != nil {
			return Charts{}, err
		}
	}
	return charts, nil
}

// seasonMonthSeries aligns every season on the union of months present, using
// NaN where a season has no data for a month.
func seasonMonthSeries(groups []analytics.SeasonSeries) ([]svg.Series, []string) {
	var present [13]bool
	for _, g := range groups {
		for _, pt := range g.Points {
			if pt.Month >= 1 && pt.Month <= 12 {
				present[pt.Month] = true
			}
		}
	}
	var months []int
	for m := 1; m <= 12; m++ {
		if present[m] {
			months = append(months, m)
		}
	}
	labels := make([]string, len(months))
	index := make(map[int]int, len(months))
	for i, m := range months {
		labels[i] = monthNames[m-1]
		index[m] = i
	}
	series := make([]svg.Series, 0, len(groups))
	for _, g := range groups {
		values := make([]float64, len(months))
		for i := range values {
			values[i] = math.NaN()
		}
		for _, pt := range g.Points {
			if i, ok := index[pt.Month]; ok {
				values[i] = pt.Average
			}
		}
		series = append(series, svg.Series{Label: g.Label, Values: values})
	}
	return series, labels
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(rentals.DateLayout)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
