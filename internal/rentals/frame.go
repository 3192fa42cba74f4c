package rentals

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names of the table dataframe. ColRow indexes back into the table's
// date-ordered records.
const (
	ColRow        = "row"
	ColDate       = "dteday"
	ColSeason     = "season"
	ColMonth      = "mnth"
	ColWeather    = "weathersit"
	ColWorkingDay = "workingday"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColCount      = "cnt"
)

func newFrame(records []DailyRecord) dataframe.DataFrame {
	n := len(records)
	rows := make([]int, n)
	dates := make([]string, n)
	seasons := make([]int, n)
	months := make([]int, n)
	weathers := make([]int, n)
	working := make([]int, n)
	casual := make([]int, n)
	registered := make([]int, n)
	counts := make([]int, n)
	for i, rec := range records {
		rows[i] = i
		dates[i] = rec.Date.Format(DateLayout)
		seasons[i] = int(rec.Season)
		months[i] = rec.Month
		weathers[i] = int(rec.Weather)
		if rec.WorkingDay {
			working[i] = 1
		}
		casual[i] = int(rec.Casual)
		registered[i] = int(rec.Registered)
		counts[i] = int(rec.Count)
	}
	return dataframe.New(
		series.New(rows, series.Int, ColRow),
		series.New(dates, series.String, ColDate),
		series.New(seasons, series.Int, ColSeason),
		series.New(months, series.Int, ColMonth),
		series.New(weathers, series.Int, ColWeather),
		series.New(working, series.Int, ColWorkingDay),
		series.New(casual, series.Int, ColCasual),
		series.New(registered, series.Int, ColRegistered),
		series.New(counts, series.Int, ColCount),
	)
}

// Frame returns the table as a dataframe, one row per record in date order.
func (t *Table) Frame() dataframe.DataFrame {
	if t == nil {
		return newFrame(nil)
	}
	return t.frame
}

// Rows maps the ColRow column of a frame derived from t back to records.
func (t *Table) Rows(df dataframe.DataFrame) ([]DailyRecord, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if df.Nrow() == 0 || t.Len() == 0 {
		return nil, nil
	}
	idx, err := df.Col(ColRow).Int()
	if err != nil {
		return nil, err
	}
	out := make([]DailyRecord, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(t.records) {
			continue
		}
		out = append(out, t.records[i])
	}
	return out, nil
}
