package perf

import (
	"context"
	"time"

	"github.com/velodash/velodash/internal/rentals"
)

type memSource struct {
	records []rentals.DailyRecord
	err     error
}

func (m *memSource) Name() string { return "memory" }

func (m *memSource) Load(ctx context.Context) (rentals.Snapshot, error) {
	if m.err != nil {
		return rentals.Snapshot{}, m.err
	}
	table, err := rentals.NewTable(m.records)
	if err != nil {
		return rentals.Snapshot{}, err
	}
	return rentals.Snapshot{
		ID:       rentals.ContentID([]byte("memory")),
		Source:   m.Name(),
		LoadedAt: time.Now().UTC(),
		Table:    table,
	}, nil
}

// syntheticRecords builds consecutive days from 2011-01-01 with seasonal
// counts, cycling weather and weekend flags.
func syntheticRecords(days int) []rentals.DailyRecord {
	start := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]rentals.DailyRecord, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		month := int(d.Month())
		season := rentals.Season((month%12)/3 + 1)
		weekday := int(d.Weekday())
		casual := int64(200 + (i*37)%900)
		registered := int64(1500 + (i*53)%4000)
		out = append(out, rentals.DailyRecord{
			Date:       d,
			Season:     season,
			Month:      month,
			Weekday:    weekday,
			WorkingDay: weekday != 0 && weekday != 6,
			Weather:    rentals.Weather(i%3 + 1),
			Temp:       0.2 + float64(month)/20,
			FeelsLike:  0.2 + float64(month)/22,
			Humidity:   0.6,
			WindSpeed:  0.15,
			Casual:     casual,
			Registered: registered,
			Count:      casual + registered,
		})
	}
	return out
}
