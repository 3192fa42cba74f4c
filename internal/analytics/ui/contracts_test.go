package ui

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/rentals"
)

func TestFormatChange(t *testing.T) {
	up := FormatChange(20)
	assert.Equal(t, Change{Value: 20, Arrow: "↑", Percent: "20.0%", Class: "change-up"}, up)

	down := FormatChange(-12.345)
	assert.Equal(t, "↓", down.Arrow)
	assert.Equal(t, "12.3%", down.Percent)
	assert.Equal(t, "change-down", down.Class)

	flat := FormatChange(0)
	assert.Equal(t, "→", flat.Arrow)
	assert.Equal(t, "0.0%", flat.Percent)
	assert.Equal(t, "change-flat", flat.Class)
}

func TestToMetricCards(t *testing.T) {
	cards := ToMetricCards(analytics.Comparison{
		CurrentTotal:   120,
		YesterdayTotal: 100,
		LastWeekTotal:  150,
		LastMonthTotal: 0,
		DailyChange:    20,
		WeeklyChange:   -20,
		MonthlyChange:  0,
	})
	require.Len(t, cards, 4)
	assert.True(t, cards[0].Headline)
	assert.Equal(t, int64(120), cards[0].Total)
	assert.Equal(t, "change-up", cards[1].Change.Class)
	assert.Equal(t, int64(150), cards[2].Total)
	assert.Equal(t, "change-down", cards[2].Change.Class)
	assert.Equal(t, "change-flat", cards[3].Change.Class)
}

func TestToFilterViewMarksSelection(t *testing.T) {
	from := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2012, 12, 31, 0, 0, 0, 0, time.UTC)
	view := ToFilterView(analytics.Filter{
		From:     from,
		To:       to,
		Seasons:  []string{"Summer"},
		Weathers: rentals.WeatherLabels(),
	}, to, from, to)

	assert.Equal(t, "2011-01-01", view.From)
	assert.Equal(t, "2012-12-31", view.MaxDate)
	require.Len(t, view.Seasons, 4)
	assert.False(t, view.Seasons[0].Selected)
	assert.True(t, view.Seasons[1].Selected)
	for _, opt := range view.Weathers {
		assert.True(t, opt.Selected, opt.Label)
	}
}

func TestSeasonMonthSeriesAlignsMonths(t *testing.T) {
	series, labels := seasonMonthSeries([]analytics.SeasonSeries{
		{Label: "Spring", Points: []analytics.MonthAverage{{Month: 1, Average: 10}, {Month: 3, Average: 30}}},
		{Label: "Summer", Points: []analytics.MonthAverage{{Month: 3, Average: 33}, {Month: 6, Average: 60}}},
	})
	assert.Equal(t, []string{"Jan", "Mar", "Jun"}, labels)
	require.Len(t, series, 2)
	assert.Equal(t, 10.0, series[0].Values[0])
	assert.True(t, math.IsNaN(series[0].Values[2]))
	assert.True(t, math.IsNaN(series[1].Values[0]))
	assert.Equal(t, 60.0, series[1].Values[2])
}

func TestBuildChartsRendersEveryChart(t *testing.T) {
	day := func(s string) time.Time {
		d, err := rentals.ParseDay(s)
		require.NoError(t, err)
		return d
	}
	records := []rentals.DailyRecord{
		{Date: day("2012-03-30"), Season: rentals.SeasonSpring, Month: 3, Weather: rentals.WeatherClear, WorkingDay: true, Temp: 0.4, Casual: 20, Registered: 80, Count: 100},
		{Date: day("2012-03-31"), Season: rentals.SeasonSpring, Month: 3, Weather: rentals.WeatherMist, Temp: 0.5, Casual: 30, Registered: 90, Count: 120},
	}
	table, err := rentals.NewTable(records)
	require.NoError(t, err)
	ov, err := analytics.BuildOverview(table, analytics.DefaultFilter(table))
	require.NoError(t, err)
	trend := analytics.RecentTrend(table, day("2012-03-31"), analytics.TrendWindowDays)

	charts, err := BuildCharts(SVGRenderer{}, trend, ov)
	require.NoError(t, err)
	for name, html := range map[string]string{
		"trend":       string(charts.Trend),
		"weather":     string(charts.Weather),
		"season":      string(charts.SeasonMonth),
		"temperature": string(charts.Temperature),
		"workingday":  string(charts.WorkingDay),
		"users":       string(charts.Users),
	} {
		assert.True(t, strings.HasPrefix(html, "<svg"), name)
	}
	assert.Contains(t, string(charts.Trend), "class=\"highlight\"")
}

func TestBuildChartsEmptyOverview(t *testing.T) {
	charts, err := BuildCharts(SVGRenderer{}, nil, analytics.Overview{})
	require.NoError(t, err)
	assert.Equal(t, Charts{}, charts)
}

func TestTemperatureColoursFollowSeason(t *testing.T) {
	day := func(s string) time.Time {
		d, err := rentals.ParseDay(s)
		require.NoError(t, err)
		return d
	}
	table, err := rentals.NewTable([]rentals.DailyRecord{
		{Date: day("2012-03-30"), Season: rentals.SeasonSpring, Month: 3, Weather: rentals.WeatherClear, Temp: 0.4, Count: 100},
		{Date: day("2012-06-30"), Season: rentals.SeasonSummer, Month: 6, Weather: rentals.WeatherClear, Temp: 0.7, Count: 300},
	})
	require.NoError(t, err)
	summer := SeasonColors[rentals.SeasonSummer.Label()]

	all, err := analytics.BuildOverview(table, analytics.DefaultFilter(table))
	require.NoError(t, err)
	onlySummer := analytics.DefaultFilter(table)
	onlySummer.Seasons = []string{rentals.SeasonSummer.Label()}
	filtered, err := analytics.BuildOverview(table, onlySummer)
	require.NoError(t, err)

	for _, ov := range []analytics.Overview{all, filtered} {
		charts, err := BuildCharts(SVGRenderer{}, nil, ov)
		require.NoError(t, err)
		assert.Contains(t, string(charts.Temperature), `fill="`+summer+`" fill-opacity`)
	}
}
