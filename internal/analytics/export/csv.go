package export

import (
	"encoding/csv"
	"io"

	"github.com/velodash/velodash/internal/rentals"
)

// RecordHeader is the column header of record exports.
var RecordHeader = []string{"dteday", "season", "mnth", "holiday", "weekday", "workingday", "weathersit", "temp", "atemp", "hum", "windspeed", "casual", "registered", "cnt"}

// WriteDashboardCSV serialises the daily report, the filtered aggregates and
// the filtered records as consecutive CSV sections separated by blank rows.
func WriteDashboardCSV(w io.Writer, p Payload) error {
	writer := csv.NewWriter(w)

	cmp := p.Comparison
	f := p.Overview.Filter
	sections := [][][]string{
		{
			{"Daily Report", cmp.Date.Format(rentals.DateLayout)},
			{"Metric", "Total", "Change"},
			{"Today", formatInt(cmp.CurrentTotal), formatPercent(cmp.DailyChange)},
			{"Yesterday", formatInt(cmp.YesterdayTotal), formatPercent(cmp.DailyChange)},
			{"Last Week", formatInt(cmp.LastWeekTotal), formatPercent(cmp.WeeklyChange)},
			{"Last Month", formatInt(cmp.LastMonthTotal), formatPercent(cmp.MonthlyChange)},
		},
		{
			{"Filter", "Value"},
			{"From", f.From.Format(rentals.DateLayout)},
			{"To", f.To.Format(rentals.DateLayout)},
			{"Seasons", joinLabels(f.Seasons)},
			{"Weather", joinLabels(f.Weathers)},
			{"Days", formatInt(int64(p.Overview.Days))},
		},
		{
			{"Totals", "Value"},
			{"Total", formatInt(p.Overview.Totals.Total)},
			{"Casual", formatInt(p.Overview.Totals.Casual)},
			{"Registered", formatInt(p.Overview.Totals.Registered)},
			{"Working Day Average", formatFloat(p.Overview.WorkingDay.WorkingAverage)},
			{"Weekend/Holiday Average", formatFloat(p.Overview.WorkingDay.NonWorkingAverage)},
		},
	}

	weather := [][]string{{"Weather", "Days", "Average"}}
	for _, row := range p.Overview.Weather {
		weather = append(weather, []string{row.Label, formatInt(int64(row.Days)), formatFloat(row.Average)})
	}
	seasons := [][]string{{"Season", "Days", "Total", "Average"}}
	for _, row := range p.Overview.Seasons {
		seasons = append(seasons, []string{row.Label, formatInt(int64(row.Days)), formatInt(row.Total), formatFloat(row.Average)})
	}
	sections = append(sections, weather, seasons)

	for _, section := range sections {
		if err := writer.WriteAll(append(section, []string{})); err != nil {
			return err
		}
	}
	return writeRecords(writer, p.Records)
}

// WriteRecordsCSV emits the records in the dataset's own column layout.
func WriteRecordsCSV(w io.Writer, records []rentals.DailyRecord) error {
	return writeRecords(csv.NewWriter(w), records)
}

func writeRecords(writer *csv.Writer, records []rentals.DailyRecord) error {
	if err := writer.Write(RecordHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(recordRow(rec)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordRow(rec rentals.DailyRecord) []string {
	return []string{
		rec.Date.Format(rentals.DateLayout),
		formatInt(int64(rec.Season)),
		formatInt(int64(rec.Month)),
		formatBool(rec.Holiday),
		formatInt(int64(rec.Weekday)),
		formatBool(rec.WorkingDay),
		formatInt(int64(rec.Weather)),
		formatRaw(rec.Temp),
		formatRaw(rec.FeelsLike),
		formatRaw(rec.Humidity),
		formatRaw(rec.WindSpeed),
		formatInt(rec.Casual),
		formatInt(rec.Registered),
		formatInt(rec.Count),
	}
}
