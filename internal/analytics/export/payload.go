package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/rentals"
)

// Payload is the filtered dashboard state written by every exporter.
type Payload struct {
	GeneratedAt time.Time
	Comparison  analytics.Comparison
	Overview    analytics.Overview
	Records     []rentals.DailyRecord
}

// FilenameBase returns the download name stem for the payload's date range.
func (p Payload) FilenameBase() string {
	f := p.Overview.Filter
	return "velodash_" + f.From.Format("20060102") + "_" + f.To.Format("20060102")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func joinLabels(labels []string) string {
	if len(labels) == 0 {
		return "(none)"
	}
	return strings.Join(labels, "; ")
}

func formatRaw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
