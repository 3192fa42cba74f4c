package rentals

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Table is an immutable, date-ordered set of daily records.
type Table struct {
	records []DailyRecord
	index   map[time.Time]int
	frame   dataframe.DataFrame
}

// NewTable sorts records by date and rejects duplicate dates.
func NewTable(records []DailyRecord) (*Table, error) {
	sorted := make([]DailyRecord, len(records))
	copy(sorted, records)
	for i := range sorted {
		sorted[i].Date = Day(sorted[i].Date)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	index := make(map[time.Time]int, len(sorted))
	for i, rec := range sorted {
		if _, exists := index[rec.Date]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, rec.Date.Format(DateLayout))
		}
		index[rec.Date] = i
	}
	return &Table{records: sorted, index: index, frame: newFrame(sorted)}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of all records in date order.
func (t *Table) Records() []DailyRecord {
	if t == nil {
		return nil
	}
	out := make([]DailyRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Each calls fn for every record in date order without copying the table.
func (t *Table) Each(fn func(DailyRecord)) {
	if t == nil {
		return
	}
	for _, rec := range t.records {
		fn(rec)
	}
}

// First returns the earliest date, or false for an empty table.
func (t *Table) First() (time.Time, bool) {
	if t.Len() == 0 {
		return time.Time{}, false
	}
	return t.records[0].Date, true
}

// Latest returns the most recent date, or false for an empty table.
func (t *Table) Latest() (time.Time, bool) {
	if t.Len() == 0 {
		return time.Time{}, false
	}
	return t.records[len(t.records)-1].Date, true
}

// Lookup returns the record stored for the given date.
func (t *Table) Lookup(date time.Time) (DailyRecord, bool) {
	if t == nil {
		return DailyRecord{}, false
	}
	i, ok := t.index[Day(date)]
	if !ok {
		return DailyRecord{}, false
	}
	return t.records[i], true
}

// TotalOn sums cnt over the records dated exactly on date.
func (t *Table) TotalOn(date time.Time) int64 {
	rec, ok := t.Lookup(date)
	if !ok {
		return 0
	}
	return rec.Count
}

// Between returns the records dated within [from, to], inclusive.
func (t *Table) Between(from, to time.Time) []DailyRecord {
	if t.Len() == 0 {
		return nil
	}
	from, to = Day(from), Day(to)
	start := sort.Search(len(t.records), func(i int) bool {
		return !t.records[i].Date.Before(from)
	})
	end := sort.Search(len(t.records), func(i int) bool {
		return t.records[i].Date.After(to)
	})
	if start >= end {
		return nil
	}
	out := make([]DailyRecord, end-start)
	copy(out, t.records[start:end])
	return out
}
