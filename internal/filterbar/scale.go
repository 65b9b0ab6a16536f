package filterbar

import (
	"math"
	"time"

	"retail-dashboard/internal/models"
)

// TimeScale maps the calendar days of [Min, Max] linearly onto the
// positions [Lo, Hi] of the range track. Both directions clamp.
type TimeScale struct {
	min, max time.Time
	lo, hi   float64
}

func NewTimeScale(minDate, maxDate time.Time, lo, hi float64) TimeScale {
	minDate, maxDate = models.TruncateDay(minDate), models.TruncateDay(maxDate)
	if maxDate.Before(minDate) {
		minDate, maxDate = maxDate, minDate
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return TimeScale{min: minDate, max: maxDate, lo: lo, hi: hi}
}

func (s TimeScale) Min() time.Time { return s.min }

func (s TimeScale) Max() time.Time { return s.max }

func (s TimeScale) spanDays() int {
	return int(math.Round(s.max.Sub(s.min).Hours() / 24))
}

// Position returns the track position of day t.
func (s TimeScale) Position(t time.Time) float64 {
	days := s.spanDays()
	if days == 0 || s.hi == s.lo {
		return s.lo
	}
	t = s.Clamp(t)
	frac := t.Sub(s.min).Hours() / 24 / float64(days)
	return s.lo + frac*(s.hi-s.lo)
}

// Invert returns the day nearest to track position x.
func (s TimeScale) Invert(x float64) time.Time {
	days := s.spanDays()
	if days == 0 || s.hi == s.lo || math.IsNaN(x) {
		return s.min
	}
	x = s.ClampPosition(x)
	offset := int(math.Round((x - s.lo) / (s.hi - s.lo) * float64(days)))
	return s.min.AddDate(0, 0, offset)
}

// ClampPosition limits x to [Lo, Hi]. NaN reads as Lo.
func (s TimeScale) ClampPosition(x float64) float64 {
	if math.IsNaN(x) {
		return s.lo
	}
	return math.Min(math.Max(x, s.lo), s.hi)
}

// Clamp limits t to the scale's day span.
func (s TimeScale) Clamp(t time.Time) time.Time {
	t = models.TruncateDay(t)
	if t.Before(s.min) {
		return s.min
	}
	if t.After(s.max) {
		return s.max
	}
	return t
}
