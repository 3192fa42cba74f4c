package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/velodash/velodash/internal/rentals"
)

// Filter is the conjunction of sidebar selections applied to the table.
type Filter struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Seasons  []string  `json:"seasons"`
	Weathers []string  `json:"weathers"`
}

// DefaultFilter selects the whole table: its full date range and every label.
func DefaultFilter(table *rentals.Table) Filter {
	first, _ := table.First()
	latest, _ := table.Latest()
	return Filter{
		From:     first,
		To:       latest,
		Seasons:  rentals.SeasonLabels(),
		Weathers: rentals.WeatherLabels(),
	}
}

// Matches reports whether rec satisfies every condition of the filter.
func (f Filter) Matches(rec rentals.DailyRecord) bool {
	d := rentals.Day(rec.Date)
	if d.Before(rentals.Day(f.From)) || d.After(rentals.Day(f.To)) {
		return false
	}
	return containsLabel(f.Seasons, rec.Season.Label()) && containsLabel(f.Weathers, rec.Weather.Label())
}

// Select narrows the table dataframe to the rows matching the filter.
func Select(table *rentals.Table, f Filter) dataframe.DataFrame {
	return table.Frame().FilterAggregation(dataframe.And,
		dataframe.F{Colname: rentals.ColDate, Comparator: series.GreaterEq, Comparando: rentals.Day(f.From).Format(rentals.DateLayout)},
		dataframe.F{Colname: rentals.ColDate, Comparator: series.LessEq, Comparando: rentals.Day(f.To).Format(rentals.DateLayout)},
		dataframe.F{Colname: rentals.ColSeason, Comparator: series.In, Comparando: seasonCodes(f.Seasons)},
		dataframe.F{Colname: rentals.ColWeather, Comparator: series.In, Comparando: weatherCodes(f.Weathers)},
	)
}

// Apply returns the records matching the filter in date order.
func Apply(table *rentals.Table, f Filter) ([]rentals.DailyRecord, error) {
	return table.Rows(Select(table, f))
}

func seasonCodes(labels []string) []int {
	codes := make([]int, 0, len(labels))
	for _, s := range rentals.Seasons {
		if containsLabel(labels, s.Label()) {
			codes = append(codes, int(s))
		}
	}
	return codes
}

func weatherCodes(labels []string) []int {
	codes := make([]int, 0, len(labels))
	for _, w := range rentals.Weathers {
		if containsLabel(labels, w.Label()) {
			codes = append(codes, int(w))
		}
	}
	return codes
}

// Key renders a canonical token for cache keys.
func (f Filter) Key() string {
	seasons := append([]string(nil), f.Seasons...)
	weathers := append([]string(nil), f.Weathers...)
	sort.Strings(seasons)
	sort.Strings(weathers)
	return strings.Join([]string{
		rentals.Day(f.From).Format(rentals.DateLayout),
		rentals.Day(f.To).Format(rentals.DateLayout),
		strings.Join(seasons, ","),
		strings.Join(weathers, ","),
	}, "|")
}

func containsLabel(selected []string, label string) bool {
	if label == "" {
		return false
	}
	for _, s := range selected {
		if s == label {
			return true
		}
	}
	return false
}
