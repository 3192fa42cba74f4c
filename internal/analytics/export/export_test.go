package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/rentals"
)

func samplePayload(t *testing.T) Payload {
	t.Helper()
	day := func(s string) time.Time {
		d, err := rentals.ParseDay(s)
		require.NoError(t, err)
		return d
	}
	records := []rentals.DailyRecord{
		{Date: day("2012-12-30"), Season: rentals.SeasonSpring, Month: 12, Weather: rentals.WeatherClear, Temp: 0.25, Casual: 364, Registered: 1432, Count: 1796},
		{Date: day("2012-12-31"), Season: rentals.SeasonSpring, Month: 12, Weather: rentals.WeatherMist, WorkingDay: true, Temp: 0.21, Casual: 439, Registered: 2290, Count: 2729},
	}
	table, err := rentals.NewTable(records)
	require.NoError(t, err)
	f := analytics.DefaultFilter(table)
	overview, err := analytics.BuildOverview(table, f)
	require.NoError(t, err)
	selected, err := analytics.Apply(table, f)
	require.NoError(t, err)
	return Payload{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Comparison:  analytics.ComputeComparison(table, day("2012-12-31")),
		Overview:    overview,
		Records:     selected,
	}
}

func TestWriteDashboardCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteDashboardCSV(buf, samplePayload(t)))

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Daily Report", "2012-12-31"}, rows[0])
	assert.Equal(t, []string{"Today", "2729", "51.9%"}, rows[2])
	assert.Contains(t, buf.String(), "Seasons,Spring; Summer; Fall; Winter")
	assert.Contains(t, buf.String(), "Total,4525")
	assert.Contains(t, buf.String(), "Mist + Cloudy,1,2729.00")

	last := rows[len(rows)-1]
	assert.Equal(t, []string{"2012-12-31", "1", "12", "0", "0", "1", "2", "0.21", "0", "0", "0", "439", "2290", "2729"}, last)
}

func TestWriteRecordsCSVHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteRecordsCSV(buf, nil))
	assert.Equal(t, strings.Join(RecordHeader, ",")+"\n", buf.String())
}

func TestWriteXLSXSheets(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, samplePayload(t)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Records", "Weather", "Seasons"}, f.GetSheetList())

	today, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "2729", today)

	rows, err := f.GetRows("Records")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "dteday", rows[0][0])
	assert.Equal(t, "2012-12-30", rows[1][0])

	weather, err := f.GetRows("Weather")
	require.NoError(t, err)
	assert.Len(t, weather, 3)
}

type stubRenderer struct {
	html string
	err  error
}

func (s *stubRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return []byte("PDF"), nil
}

func TestPDFExporterRender(t *testing.T) {
	renderer := &stubRenderer{}
	exporter := &PDFExporter{Renderer: renderer}

	data, err := exporter.RenderDashboard(context.Background(), samplePayload(t))
	require.NoError(t, err)
	assert.Equal(t, "PDF", string(data))
	assert.Contains(t, renderer.html, "Bike Rental Dashboard - 2012-12-31")
	assert.Contains(t, renderer.html, "Mist &#43; Cloudy")
	assert.Contains(t, renderer.html, "51.9%")
}

func TestPDFExporterErrors(t *testing.T) {
	_, err := (&PDFExporter{}).RenderDashboard(context.Background(), samplePayload(t))
	assert.ErrorIs(t, err, ErrPDFUnavailable)

	boom := errors.New("gotenberg down")
	_, err = (&PDFExporter{Renderer: &stubRenderer{err: boom}}).RenderDashboard(context.Background(), samplePayload(t))
	assert.ErrorIs(t, err, boom)
}
