package ingest

import (
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"
)

// twoDigitCentury is added to slash dates whose year has at most two
// digits, so "13/02/24" reads as 1924 the way a JavaScript Date does.
const twoDigitCentury = 1900

var fallbackLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Mon Jan 2 2006",
}

// ParseInvoiceDate reads a transaction date. Slash separated numeric dates
// are disambiguated by whichever of the first two parts exceeds 12: that
// part is the day. When neither does, the month comes first. Other shapes
// go through a list of common layouts. The result is a calendar day at
// midnight UTC; ok is false when s is not a valid date.
func ParseInvoiceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if parts := strings.Split(s, "/"); len(parts) == 3 {
		if nums, ok := numericParts(parts); ok {
			var day, month int
			switch {
			case nums[0] > 12:
				day, month = nums[0], nums[1]
			case nums[1] > 12:
				day, month = nums[1], nums[0]
			default:
				month, day = nums[0], nums[1]
			}
			year := nums[2]
			if year >= 0 && year < 100 {
				year += twoDigitCentury
			}
			return validDay(year, month, day)
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t.Year(), t.Month(), t.Day()), true
		}
	}
	return time.Time{}, false
}

func numericParts(parts []string) ([3]int, bool) {
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nums, false
		}
		nums[i] = n
	}
	return nums, true
}

// validDay rejects dates that time.Date would silently roll over, such as
// 31 February.
func validDay(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := models.Day(year, time.Month(month), day)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
