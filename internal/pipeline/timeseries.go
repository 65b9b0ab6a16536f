package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard/internal/models"
)

var Granularities = []models.Granularity{models.Daily, models.Weekly, models.Monthly, models.Quarterly}

// ParseGranularity validates a user-supplied granularity name.
func ParseGranularity(s string) (models.Granularity, error) {
	g := models.Granularity(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Granularities, g) {
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// PeriodStart maps a day to the first day of the period containing it.
// Weeks start on Sunday; quarters start in January, April, July and October.
func PeriodStart(t time.Time, g models.Granularity) time.Time {
	day := models.TruncateDay(t)
	switch g {
	case models.Weekly:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case models.Monthly:
		return models.Day(day.Year(), day.Month(), 1)
	case models.Quarterly:
		q := (int(day.Month()) - 1) / 3
		return models.Day(day.Year(), time.Month(q*3+1), 1)
	default:
		return day
	}
}

// AggregateTimeSeries sums revenue per period of granularity g and returns
// the buckets in ascending period order. Records without a valid date are
// left out. The period start doubles as the grouping key, so keys map to
// starts one to one and sorting by start is chronological.
func AggregateTimeSeries(records []models.Record, g models.Granularity) []models.TimeBucket {
	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		key := PeriodStart(r.InvoiceDate, g)
		sums[key] = sums[key].Add(r.Revenue())
	}

	buckets := make([]models.TimeBucket, 0, len(sums))
	for start, value := range sums {
		buckets = append(buckets, models.TimeBucket{PeriodStart: start, Value: value})
	}
	slices.SortFunc(buckets, func(a, b models.TimeBucket) int {
		return a.PeriodStart.Compare(b.PeriodStart)
	})
	return buckets
}
