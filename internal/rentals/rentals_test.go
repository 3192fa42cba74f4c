package rentals

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `instant,dteday,season,yr,mnth,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,6,0,2,0.344167,0.363625,0.805833,0.160446,331,654,985
2,2011-01-02,1,0,1,0,0,0,2,0.363478,0.353739,0.696087,0.248539,131,670,801
3,2011-01-03,1,0,1,0,1,1,1,0.196364,0.189405,0.437273,0.248309,120,1229,1349
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "day.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func day(s string) time.Time {
	t, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCSVSourceLoad(t *testing.T) {
	src := NewCSVSource(writeCSV(t, sampleCSV))
	snap, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Table.Len())
	assert.Equal(t, "csv:"+src.Path, snap.Source)

	rec, ok := snap.Table.Lookup(day("2011-01-03"))
	require.True(t, ok)
	assert.Equal(t, SeasonSpring, rec.Season)
	assert.Equal(t, WeatherClear, rec.Weather)
	assert.True(t, rec.WorkingDay)
	assert.Equal(t, int64(120), rec.Casual)
	assert.Equal(t, int64(1229), rec.Registered)
	assert.Equal(t, int64(1349), rec.Count)
	assert.InDelta(t, 0.196364, rec.Temp, 1e-9)
	assert.Equal(t, 1, rec.Weekday)
}

func TestCSVSourceStableContentID(t *testing.T) {
	a, err := NewCSVSource(writeCSV(t, sampleCSV)).Load(context.Background())
	require.NoError(t, err)
	b, err := NewCSVSource(writeCSV(t, sampleCSV)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	changed := sampleCSV + "4,2011-01-04,1,0,1,0,2,1,1,0.2,0.21,0.59,0.16,108,1454,1562\n"
	c, err := NewCSVSource(writeCSV(t, changed)).Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV([]byte("dteday,season,cnt\n2011-01-01,1,10\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseCSVOptionalColumnsDefault(t *testing.T) {
	raw := "dteday,season,mnth,workingday,weathersit,temp,casual,registered,cnt\n2012-12-31,1,12,1,2,0.21,39,1757,1796\n"
	records, err := ParseCSV([]byte(raw))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 12, records[0].Month)
	assert.False(t, records[0].Holiday)
	assert.Zero(t, records[0].Humidity)
}

func TestParseCSVBadDate(t *testing.T) {
	raw := "dteday,season,mnth,workingday,weathersit,temp,casual,registered,cnt\n31/12/2012,1,12,1,2,0.21,39,1757,1796\n"
	_, err := ParseCSV([]byte(raw))
	require.Error(t, err)
}

func TestParseCSVRejectsBlankTemperature(t *testing.T) {
	raw := "dteday,season,mnth,workingday,weathersit,temp,casual,registered,cnt\n" +
		"2012-12-30,1,12,0,1,0.25,100,1000,1100\n" +
		"2012-12-31,1,12,1,2,,39,1757,1796\n"
	_, err := ParseCSV([]byte(raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "row 2 column temp")

	_, err = NewCSVSource(writeCSV(t, raw)).Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestNewTableRejectsDuplicateDates(t *testing.T) {
	_, err := NewTable([]DailyRecord{
		{Date: day("2011-01-01"), Count: 1},
		{Date: day("2011-01-01"), Count: 2},
	})
	assert.ErrorIs(t, err, ErrDuplicateDate)
}

func TestTableOrderingAndRange(t *testing.T) {
	table, err := NewTable([]DailyRecord{
		{Date: day("2011-01-03"), Count: 3},
		{Date: day("2011-01-01"), Count: 1},
		{Date: day("2011-01-02"), Count: 2},
		{Date: day("2011-01-05"), Count: 5},
	})
	require.NoError(t, err)

	first, ok := table.First()
	require.True(t, ok)
	latest, ok := table.Latest()
	require.True(t, ok)
	assert.Equal(t, day("2011-01-01"), first)
	assert.Equal(t, day("2011-01-05"), latest)

	between := table.Between(day("2011-01-02"), day("2011-01-04"))
	require.Len(t, between, 2)
	assert.Equal(t, int64(2), between[0].Count)
	assert.Equal(t, int64(3), between[1].Count)

	assert.Empty(t, table.Between(day("2011-01-06"), day("2011-01-09")))
	assert.Equal(t, int64(5), table.TotalOn(day("2011-01-05")))
	assert.Zero(t, table.TotalOn(day("2011-01-04")))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"Spring", "Summer", "Fall", "Winter"}, SeasonLabels())
	assert.Equal(t, "Heavy Rain/Snow", WeatherHeavyRain.Label())
	assert.Empty(t, Season(9).Label())
	assert.Empty(t, Weather(0).Label())
}

type countingSource struct {
	calls atomic.Int32
	err   error
	gate  chan struct{}
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(ctx context.Context) (Snapshot, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return Snapshot{}, s.err
	}
	table, err := NewTable([]DailyRecord{{Date: day("2011-01-01"), Count: int64(s.calls.Load())}})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{ID: ContentID([]byte{byte(s.calls.Load())}), Source: s.Name(), Table: table}, nil
}

func TestStoreMemoizesSnapshot(t *testing.T) {
	src := &countingSource{}
	store := NewStore(src, nil)
	ctx := context.Background()

	first, err := store.Snapshot(ctx)
	require.NoError(t, err)
	second, err := store.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, store.Loaded())
}

func TestStoreConcurrentFirstLoadSharesWork(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	store := NewStore(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Snapshot(context.Background())
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	src := &countingSource{}
	store := NewStore(src, nil)
	ctx := context.Background()

	first, err := store.Snapshot(ctx)
	require.NoError(t, err)

	src.err = errors.New("disk gone")
	_, err = store.Reload(ctx)
	require.Error(t, err)

	again, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	src.err = nil
	reloaded, err := store.Reload(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, reloaded.ID)
}
