package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/velodash/velodash/internal/rentals"
)

// TrendWindowDays is the length of the recent trend chart.
const TrendWindowDays = 30

// Totals sums rentals over the filtered records.
type Totals struct {
	Total      int64 `json:"total"`
	Casual     int64 `json:"casual"`
	Registered int64 `json:"registered"`
}

// WeatherAverage is the mean daily count for one weather situation.
type WeatherAverage struct {
	Weather rentals.Weather `json:"weather"`
	Label   string          `json:"label"`
	Days    int             `json:"days"`
	Average float64         `json:"average"`
}

// MonthAverage is one point of a season's month curve.
type MonthAverage struct {
	Month   int     `json:"month"`
	Average float64 `json:"average"`
}

// SeasonSeries holds the month curve of one season.
type SeasonSeries struct {
	Season rentals.Season `json:"season"`
	Label  string         `json:"label"`
	Points []MonthAverage `json:"points"`
}

// SeasonSummary sums and averages a season.
type SeasonSummary struct {
	Season  rentals.Season `json:"season"`
	Label   string         `json:"label"`
	Days    int            `json:"days"`
	Total   int64          `json:"total"`
	Average float64        `json:"average"`
}

// WorkingDaySplit compares average rentals on working and non-working days.
type WorkingDaySplit struct {
	WorkingDays       int     `json:"working_days"`
	WorkingAverage    float64 `json:"working_average"`
	NonWorkingDays    int     `json:"non_working_days"`
	NonWorkingAverage float64 `json:"non_working_average"`
}

// UserSplit compares casual and registered totals.
type UserSplit struct {
	Casual     int64 `json:"casual"`
	Registered int64 `json:"registered"`
}

// TemperaturePoint is one scatter point of temperature against rentals.
type TemperaturePoint struct {
	Date   time.Time      `json:"date"`
	Temp   float64        `json:"temp"`
	Count  int64          `json:"count"`
	Season rentals.Season `json:"season"`
}

// DailyTotal is one point of the recent trend.
type DailyTotal struct {
	Date  time.Time `json:"date"`
	Total int64     `json:"total"`
}

// Overview bundles every aggregate rendered for a filter selection.
type Overview struct {
	Filter      Filter             `json:"filter"`
	Days        int                `json:"days"`
	Totals      Totals             `json:"totals"`
	Weather     []WeatherAverage   `json:"weather"`
	SeasonMonth []SeasonSeries     `json:"season_month"`
	Seasons     []SeasonSummary    `json:"seasons"`
	WorkingDay  WorkingDaySplit    `json:"working_day"`
	Users       UserSplit          `json:"users"`
	Temperature []TemperaturePoint `json:"temperature"`
}

// BuildOverview aggregates the filtered subset of table.
func BuildOverview(table *rentals.Table, f Filter) (Overview, error) {
	selected := Select(table, f)
	if selected.Err != nil {
		return Overview{}, fmt.Errorf("analytics: select: %w", selected.Err)
	}
	records, err := table.Rows(selected)
	if err != nil {
		return Overview{}, fmt.Errorf("analytics: rows: %w", err)
	}
	ov := Overview{
		Filter:      f,
		Days:        len(records),
		Totals:      SumTotals(records),
		Users:       UserDistribution(records),
		Temperature: TemperaturePoints(records),
	}
	if ov.Weather, err = WeatherAverages(selected); err != nil {
		return Overview{}, err
	}
	if ov.SeasonMonth, err = SeasonMonthAverages(selected); err != nil {
		return Overview{}, err
	}
	if ov.Seasons, err = SeasonTotals(selected); err != nil {
		return Overview{}, err
	}
	if ov.WorkingDay, err = WorkingDayAverages(selected); err != nil {
		return Overview{}, err
	}
	return ov, nil
}

// SumTotals sums total, casual and registered rentals.
func SumTotals(records []rentals.DailyRecord) Totals {
	var t Totals
	for _, rec := range records {
		t.Total += rec.Count
		t.Casual += rec.Casual
		t.Registered += rec.Registered
	}
	return t
}

// countGroup is the cnt aggregate of one distinct key combination.
type countGroup struct {
	keys []int
	days int
	sum  int64
	mean float64
}

var countAggregations = []dataframe.AggregationType{
	dataframe.Aggregation_COUNT,
	dataframe.Aggregation_SUM,
	dataframe.Aggregation_MEAN,
}

func aggregatedColumn(typ dataframe.AggregationType) string {
	return rentals.ColCount + "_" + typ.String()
}

// groupCounts groups df by the given columns and aggregates cnt, ordered by key.
func groupCounts(df dataframe.DataFrame, by ...string) ([]countGroup, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if df.Nrow() == 0 {
		return nil, nil
	}
	columns := append(append([]string(nil), by...), rentals.ColCount)
	groups := df.Select(columns).GroupBy(by...)
	if groups.Err != nil {
		return nil, fmt.Errorf("analytics: group by %v: %w", by, groups.Err)
	}
	agg := groups.Aggregation(countAggregations, []string{rentals.ColCount, rentals.ColCount, rentals.ColCount})
	if agg.Err != nil {
		return nil, fmt.Errorf("analytics: aggregate by %v: %w", by, agg.Err)
	}

	keys := make([][]int, len(by))
	for i, name := range by {
		col, err := agg.Col(name).Int()
		if err != nil {
			return nil, fmt.Errorf("analytics: group key %s: %w", name, err)
		}
		keys[i] = col
	}
	days := agg.Col(aggregatedColumn(dataframe.Aggregation_COUNT)).Float()
	sums := agg.Col(aggregatedColumn(dataframe.Aggregation_SUM)).Float()
	means := agg.Col(aggregatedColumn(dataframe.Aggregation_MEAN)).Float()

	out := make([]countGroup, agg.Nrow())
	for r := range out {
		key := make([]int, len(by))
		for i := range by {
			key[i] = keys[i][r]
		}
		out[r] = countGroup{
			keys: key,
			days: int(math.Round(days[r])),
			sum:  int64(math.Round(sums[r])),
			mean: means[r],
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].keys, out[j].keys
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return out, nil
}

// WeatherAverages returns the mean count per weather code in ascending code order.
func WeatherAverages(df dataframe.DataFrame) ([]WeatherAverage, error) {
	groups, err := groupCounts(df, rentals.ColWeather)
	if err != nil {
		return nil, err
	}
	out := make([]WeatherAverage, 0, len(groups))
	for _, g := range groups {
		code := rentals.Weather(g.keys[0])
		out = append(out, WeatherAverage{Weather: code, Label: code.Label(), Days: g.days, Average: g.mean})
	}
	return out, nil
}

// SeasonMonthAverages returns, per season, the mean count for each month.
func SeasonMonthAverages(df dataframe.DataFrame) ([]SeasonSeries, error) {
	groups, err := groupCounts(df, rentals.ColSeason, rentals.ColMonth)
	if err != nil {
		return nil, err
	}
	out := make([]SeasonSeries, 0, len(rentals.Seasons))
	for _, g := range groups {
		code := rentals.Season(g.keys[0])
		if len(out) == 0 || out[len(out)-1].Season != code {
			out = append(out, SeasonSeries{Season: code, Label: code.Label()})
		}
		last := &out[len(out)-1]
		last.Points = append(last.Points, MonthAverage{Month: g.keys[1], Average: g.mean})
	}
	return out, nil
}

// SeasonTotals sums and averages rentals per season.
func SeasonTotals(df dataframe.DataFrame) ([]SeasonSummary, error) {
	groups, err := groupCounts(df, rentals.ColSeason)
	if err != nil {
		return nil, err
	}
	out := make([]SeasonSummary, 0, len(groups))
	for _, g := range groups {
		code := rentals.Season(g.keys[0])
		out = append(out, SeasonSummary{Season: code, Label: code.Label(), Days: g.days, Total: g.sum, Average: g.mean})
	}
	return out, nil
}

// WorkingDayAverages compares mean rentals on working days and weekends/holidays.
func WorkingDayAverages(df dataframe.DataFrame) (WorkingDaySplit, error) {
	groups, err := groupCounts(df, rentals.ColWorkingDay)
	if err != nil {
		return WorkingDaySplit{}, err
	}
	var split WorkingDaySplit
	for _, g := range groups {
		if g.keys[0] == 1 {
			split.WorkingDays, split.WorkingAverage = g.days, g.mean
		} else {
			split.NonWorkingDays, split.NonWorkingAverage = g.days, g.mean
		}
	}
	return split, nil
}

// UserDistribution sums casual and registered rentals.
func UserDistribution(records []rentals.DailyRecord) UserSplit {
	t := SumTotals(records)
	return UserSplit{Casual: t.Casual, Registered: t.Registered}
}

// TemperaturePoints maps each record to a scatter point. Records without a
// finite temperature are left out.
func TemperaturePoints(records []rentals.DailyRecord) []TemperaturePoint {
	out := make([]TemperaturePoint, 0, len(records))
	for _, rec := range records {
		if math.IsNaN(rec.Temp) || math.IsInf(rec.Temp, 0) {
			continue
		}
		out = append(out, TemperaturePoint{Date: rec.Date, Temp: rec.Temp, Count: rec.Count, Season: rec.Season})
	}
	return out
}

// RecentTrend returns per-day totals for the days in (latest-days, latest].
func RecentTrend(table *rentals.Table, latest time.Time, days int) []DailyTotal {
	if days <= 0 {
		days = TrendWindowDays
	}
	latest = rentals.Day(latest)
	from := latest.AddDate(0, 0, -days+1)
	records := table.Between(from, latest)
	out := make([]DailyTotal, 0, len(records))
	for _, rec := range records {
		out = append(out, DailyTotal{Date: rec.Date, Total: rec.Count})
	}
	return out
}
