package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/velodash/velodash/internal/rentals"
)

const (
	sheetSummary = "Summary"
	sheetRecords = "Records"
	sheetWeather = "Weather"
	sheetSeasons = "Seasons"
)

// WriteXLSX renders the payload as a workbook with Summary, Records, Weather
// and Seasons sheets.
func WriteXLSX(w io.Writer, p Payload) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Bike Rental Dashboard",
		Subject: "Filtered daily rentals",
		Creator: "velodash",
		Created: p.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return fmt.Errorf("xlsx: doc props: %w", err)
	}
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	for _, name := range []string{sheetRecords, sheetWeather, sheetSeasons} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: new sheet %s: %w", name, err)
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	cmp := p.Comparison
	ov := p.Overview
	summary := [][]interface{}{
		{"Daily Report", cmp.Date.Format(rentals.DateLayout)},
		{"Metric", "Total", "Change (%)"},
		{"Today", cmp.CurrentTotal, round1(cmp.DailyChange)},
		{"Yesterday", cmp.YesterdayTotal, round1(cmp.DailyChange)},
		{"Last Week", cmp.LastWeekTotal, round1(cmp.WeeklyChange)},
		{"Last Month", cmp.LastMonthTotal, round1(cmp.MonthlyChange)},
		{},
		{"Filter", "Value"},
		{"From", ov.Filter.From.Format(rentals.DateLayout)},
		{"To", ov.Filter.To.Format(rentals.DateLayout)},
		{"Seasons", joinLabels(ov.Filter.Seasons)},
		{"Weather", joinLabels(ov.Filter.Weathers)},
		{"Days", ov.Days},
		{},
		{"Totals", "Value"},
		{"Total", ov.Totals.Total},
		{"Casual", ov.Totals.Casual},
		{"Registered", ov.Totals.Registered},
		{"Working Day Average", ov.WorkingDay.WorkingAverage},
		{"Weekend/Holiday Average", ov.WorkingDay.NonWorkingAverage},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}
	for _, row := range []int{1, 2, 8, 15} {
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellStyle(sheetSummary, cell, fmt.Sprintf("C%d", row), header); err != nil {
			return fmt.Errorf("xlsx: style %s: %w", cell, err)
		}
	}

	records := make([][]interface{}, 0, len(p.Records)+1)
	records = append(records, toRow(RecordHeader))
	for _, rec := range p.Records {
		records = append(records, []interface{}{
			rec.Date.Format(rentals.DateLayout), int(rec.Season), rec.Month, rec.Holiday, rec.Weekday,
			rec.WorkingDay, int(rec.Weather), rec.Temp, rec.FeelsLike, rec.Humidity, rec.WindSpeed,
			rec.Casual, rec.Registered, rec.Count,
		})
	}
	if err := writeRows(f, sheetRecords, records); err != nil {
		return err
	}

	weather := [][]interface{}{{"Weather", "Days", "Average"}}
	for _, row := range ov.Weather {
		weather = append(weather, []interface{}{row.Label, row.Days, row.Average})
	}
	if err := writeRows(f, sheetWeather, weather); err != nil {
		return err
	}

	seasons := [][]interface{}{{"Season", "Days", "Total", "Average"}}
	for _, row := range ov.Seasons {
		seasons = append(seasons, []interface{}{row.Label, row.Days, row.Total, row.Average})
	}
	if err := writeRows(f, sheetSeasons, seasons); err != nil {
		return err
	}

	for _, sheet := range []string{sheetRecords, sheetWeather, sheetSeasons} {
		if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
			return fmt.Errorf("xlsx: style %s header: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 26); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
