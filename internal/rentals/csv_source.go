package rentals

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var requiredColumns = []string{"dteday", "season", "mnth", "workingday", "weathersit", "temp", "casual", "registered", "cnt"}

var columnTypes = map[string]series.Type{
	"dteday":     series.String,
	"season":     series.Int,
	"mnth":       series.Int,
	"holiday":    series.Int,
	"weekday":    series.Int,
	"workingday": series.Int,
	"weathersit": series.Int,
	"temp":       series.Float,
	"atemp":      series.Float,
	"hum":        series.Float,
	"windspeed":  series.Float,
	"casual":     series.Int,
	"registered": series.Int,
	"cnt":        series.Int,
}

// CSVSource loads the daily rental dataset from a CSV file on disk.
type CSVSource struct {
	Path string
	now  func() time.Time
}

// NewCSVSource constructs a CSVSource for the given path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path, now: time.Now}
}

// Name identifies the source in logs and snapshots.
func (s *CSVSource) Name() string {
	return "csv:" + s.Path
}

// Load reads and parses the whole file.
func (s *CSVSource) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("rentals: read %s: %w", s.Path, err)
	}
	records, err := ParseCSV(raw)
	if err != nil {
		return Snapshot{}, err
	}
	table, err := NewTable(records)
	if err != nil {
		return Snapshot{}, err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return Snapshot{
		ID:       ContentID(raw),
		Source:   s.Name(),
		LoadedAt: now().UTC(),
		Table:    table,
	}, nil
}

// ParseCSV converts raw CSV bytes into daily records.
func ParseCSV(raw []byte) ([]DailyRecord, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyDataset
	}
	df := dataframe.ReadCSV(bytes.NewReader(raw), dataframe.WithTypes(columnTypes))
	if df.Err != nil {
		return nil, fmt.Errorf("rentals: parse csv: %w", df.Err)
	}
	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, name := range requiredColumns {
		if !present[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	rows := df.Nrow()
	if rows == 0 {
		return nil, ErrEmptyDataset
	}

	dates := df.Col("dteday").Records()
	ints := make(map[string][]int, 8)
	for _, name := range []string{"season", "mnth", "holiday", "weekday", "workingday", "weathersit", "casual", "registered", "cnt"} {
		if !present[name] {
			ints[name] = make([]int, rows)
			continue
		}
		values, err := df.Col(name).Int()
		if err != nil {
			return nil, fmt.Errorf("rentals: column %s: %w", name, err)
		}
		ints[name] = values
	}
	floats := make(map[string][]float64, 4)
	for _, name := range []string{"temp", "atemp", "hum", "windspeed"} {
		if !present[name] {
			floats[name] = make([]float64, rows)
			continue
		}
		values := df.Col(name).Float()
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %s", ErrInvalidValue, i+1, name)
			}
		}
		floats[name] = values
	}

	records := make([]DailyRecord, 0, rows)
	for i := 0; i < rows; i++ {
		date, err := ParseDay(dates[i])
		if err != nil {
			return nil, fmt.Errorf("rentals: row %d dteday %q: %w", i+1, dates[i], err)
		}
		records = append(records, DailyRecord{
			Date:       date,
			Season:     Season(ints["season"][i]),
			Month:      ints["mnth"][i],
			Holiday:    ints["holiday"][i] == 1,
			Weekday:    ints["weekday"][i],
			WorkingDay: ints["workingday"][i] == 1,
			Weather:    Weather(ints["weathersit"][i]),
			Temp:       floats["temp"][i],
			FeelsLike:  floats["atemp"][i],
			Humidity:   floats["hum"][i],
			WindSpeed:  floats["windspeed"][i],
			Casual:     int64(ints["casual"][i]),
			Registered: int64(ints["registered"][i]),
			Count:      int64(ints["cnt"][i]),
		})
	}
	return records, nil
}
