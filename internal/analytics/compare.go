package analytics

import (
	"time"

	"github.com/velodash/velodash/internal/rentals"
)

// Comparison holds the daily report figures for a reference date.
type Comparison struct {
	Date           time.Time `json:"date"`
	CurrentTotal   int64     `json:"current_total"`
	YesterdayTotal int64     `json:"yesterday_total"`
	LastWeekTotal  int64     `json:"last_week_total"`
	LastMonthTotal int64     `json:"last_month_total"`
	DailyChange    float64   `json:"daily_change"`
	WeeklyChange   float64   `json:"weekly_change"`
	MonthlyChange  float64   `json:"monthly_change"`
}

// PercentageChange returns the relative change from previous to current in
// percent. A zero previous value yields 0 whatever the current value is.
func PercentageChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// PreviousDay returns the calendar day before date.
func PreviousDay(date time.Time) time.Time {
	return rentals.Day(date).AddDate(0, 0, -1)
}

// PreviousWeek returns the date seven days before date.
func PreviousWeek(date time.Time) time.Time {
	return rentals.Day(date).AddDate(0, 0, -7)
}

// PreviousMonth returns the same day-of-month one calendar month back,
// clamped to the last day of that month (Mar 31 -> Feb 28/29).
func PreviousMonth(date time.Time) time.Time {
	y, m, d := rentals.Day(date).Date()
	first := time.Date(y, m-1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// ComputeComparison derives the comparison figures for date from table.
func ComputeComparison(table *rentals.Table, date time.Time) Comparison {
	date = rentals.Day(date)
	current := table.TotalOn(date)
	yesterday := table.TotalOn(PreviousDay(date))
	lastWeek := table.TotalOn(PreviousWeek(date))
	lastMonth := table.TotalOn(PreviousMonth(date))
	return Comparison{
		Date:           date,
		CurrentTotal:   current,
		YesterdayTotal: yesterday,
		LastWeekTotal:  lastWeek,
		LastMonthTotal: lastMonth,
		DailyChange:    PercentageChange(float64(current), float64(yesterday)),
		WeeklyChange:   PercentageChange(float64(current), float64(lastWeek)),
		MonthlyChange:  PercentageChange(float64(current), float64(lastMonth)),
	}
}
