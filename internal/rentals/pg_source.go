package rentals

import (
	"context"
	"crypto/sha1"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectDailyRentals = `SELECT dteday, season, mnth, holiday, weekday, workingday, weathersit,
	temp, atemp, hum, windspeed, casual, registered, cnt
FROM daily_rentals
ORDER BY dteday`

// PostgresSource loads the dataset from the daily_rentals table.
type PostgresSource struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresSource wires the source to a pgx pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool, now: time.Now}
}

// Name identifies the source in logs and snapshots.
func (s *PostgresSource) Name() string {
	return "postgres:daily_rentals"
}

// Load queries every row and builds a snapshot.
func (s *PostgresSource) Load(ctx context.Context) (Snapshot, error) {
	if s == nil || s.pool == nil {
		return Snapshot{}, fmt.Errorf("rentals: postgres pool not configured")
	}
	rows, err := s.pool.Query(ctx, selectDailyRentals)
	if err != nil {
		return Snapshot{}, fmt.Errorf("rentals: query daily_rentals: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanDailyRecord)
	if err != nil {
		return Snapshot{}, fmt.Errorf("rentals: scan daily_rentals: %w", err)
	}
	if len(records) == 0 {
		return Snapshot{}, ErrEmptyDataset
	}
	table, err := NewTable(records)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:       ContentID(fingerprint(records)),
		Source:   s.Name(),
		LoadedAt: s.now().UTC(),
		Table:    table,
	}, nil
}

func scanDailyRecord(row pgx.CollectableRow) (DailyRecord, error) {
	var (
		rec        DailyRecord
		season     int32
		month      int32
		weekday    int32
		weather    int32
		holiday    bool
		workingDay bool
	)
	err := row.Scan(
		&rec.Date,
		&season,
		&month,
		&holiday,
		&weekday,
		&workingDay,
		&weather,
		&rec.Temp,
		&rec.FeelsLike,
		&rec.Humidity,
		&rec.WindSpeed,
		&rec.Casual,
		&rec.Registered,
		&rec.Count,
	)
	if err != nil {
		return DailyRecord{}, err
	}
	rec.Date = Day(rec.Date)
	rec.Season = Season(season)
	rec.Month = int(month)
	rec.Holiday = holiday
	rec.Weekday = int(weekday)
	rec.WorkingDay = workingDay
	rec.Weather = Weather(weather)
	return rec, nil
}

// fingerprint hashes the loaded rows so unchanged tables keep the same snapshot ID.
func fingerprint(records []DailyRecord) []byte {
	h := sha1.New()
	for _, rec := range records {
		fmt.Fprintf(h, "%s|%d|%d|%t|%d|%t|%d|%g|%g|%g|%g|%d|%d|%d\n",
			rec.Date.Format(DateLayout), rec.Season, rec.Month, rec.Holiday, rec.Weekday,
			rec.WorkingDay, rec.Weather, rec.Temp, rec.FeelsLike, rec.Humidity, rec.WindSpeed,
			rec.Casual, rec.Registered, rec.Count)
	}
	return h.Sum(nil)
}
