package rentals

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateDate indicates two records share the same calendar date.
	ErrDuplicateDate = errors.New("rentals: duplicate date")
	// ErrMissingColumn indicates a required dataset column is absent.
	ErrMissingColumn = errors.New("rentals: missing column")
	// ErrEmptyDataset indicates the source produced no records.
	ErrEmptyDataset = errors.New("rentals: empty dataset")
	// ErrInvalidValue reports a blank or non-numeric measurement cell.
	ErrInvalidValue = errors.New("rentals: invalid value")
)

// DateLayout is the calendar date format used by the dataset and query strings.
const DateLayout = "2006-01-02"

// Season is the dataset season code (1-4).
type Season int

// Season codes.
const (
	SeasonSpring Season = 1
	SeasonSummer Season = 2
	SeasonFall   Season = 3
	SeasonWinter Season = 4
)

// Seasons lists the known season codes in display order.
var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

var seasonLabels = map[Season]string{
	SeasonSpring: "Spring",
	SeasonSummer: "Summer",
	SeasonFall:   "Fall",
	SeasonWinter: "Winter",
}

// Label returns the display label, or "" for unknown codes.
func (s Season) Label() string {
	return seasonLabels[s]
}

// Weather is the dataset weather situation code (1-4).
type Weather int

// Weather situation codes.
const (
	WeatherClear     Weather = 1
	WeatherMist      Weather = 2
	WeatherLightRain Weather = 3
	WeatherHeavyRain Weather = 4
)

// Weathers lists the known weather codes in display order.
var Weathers = []Weather{WeatherClear, WeatherMist, WeatherLightRain, WeatherHeavyRain}

var weatherLabels = map[Weather]string{
	WeatherClear:     "Clear/Partly Cloudy",
	WeatherMist:      "Mist + Cloudy",
	WeatherLightRain: "Light Snow/Rain",
	WeatherHeavyRain: "Heavy Rain/Snow",
}

// Label returns the display label, or "" for unknown codes.
func (w Weather) Label() string {
	return weatherLabels[w]
}

// SeasonLabels returns every season label in code order.
func SeasonLabels() []string {
	labels := make([]string, 0, len(Seasons))
	for _, s := range Seasons {
		labels = append(labels, s.Label())
	}
	return labels
}

// WeatherLabels returns every weather label in code order.
func WeatherLabels() []string {
	labels := make([]string, 0, len(Weathers))
	for _, w := range Weathers {
		labels = append(labels, w.Label())
	}
	return labels
}

// DailyRecord is one row of the daily rental dataset.
type DailyRecord struct {
	Date       time.Time `json:"date"`
	Season     Season    `json:"season"`
	Month      int       `json:"month"`
	Holiday    bool      `json:"holiday"`
	Weekday    int       `json:"weekday"`
	WorkingDay bool      `json:"working_day"`
	Weather    Weather   `json:"weather"`
	Temp       float64   `json:"temp"`
	FeelsLike  float64   `json:"feels_like"`
	Humidity   float64   `json:"humidity"`
	WindSpeed  float64   `json:"wind_speed"`
	Casual     int64     `json:"casual"`
	Registered int64     `json:"registered"`
	Count      int64     `json:"count"`
}

// Snapshot is one loaded copy of the dataset.
type Snapshot struct {
	ID       uuid.UUID
	Source   string
	LoadedAt time.Time
	Table    *Table
}

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("velodash:dataset"))

// ContentID derives a stable snapshot identifier from raw dataset bytes.
func ContentID(raw []byte) uuid.UUID {
	return uuid.NewSHA1(snapshotNamespace, raw)
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
