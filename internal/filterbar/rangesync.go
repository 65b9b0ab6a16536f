package filterbar

import (
	"strings"
	"time"

	"retail-dashboard/internal/models"
)

// State is the phase of a RangeSync.
type State int

const (
	Idle State = iota
	SyncingFromGesture
	SyncingFromFields
)

func (s State) String() string {
	switch s {
	case SyncingFromGesture:
		return "syncing-from-gesture"
	case SyncingFromFields:
		return "syncing-from-fields"
	default:
		return "idle"
	}
}

// Gesture is the draggable range selection over the date track.
type Gesture interface {
	// Selection returns the two boundary positions; ok is false when nothing
	// is selected.
	Selection() (lo, hi float64, ok bool)
	// Move sets the selection programmatically. Implementations may notify
	// the RangeSync synchronously; such echoes are ignored.
	Move(lo, hi float64)
}

// DateFields are the start and end date inputs, holding YYYY-MM-DD text.
type DateFields interface {
	Values() (start, end string)
	// SetValues writes both inputs. Implementations may notify the RangeSync
	// synchronously; such echoes are ignored.
	SetValues(start, end string)
}

// RangeSync keeps a Gesture and a pair of DateFields denoting the same date
// interval and emits that interval whenever the user changes either one.
//
// A sync leaves Idle, writes the other representation and schedules its
// return to Idle for the next Tick. Any notification arriving before that
// Tick, including the ones caused by its own writes, is dropped.
type RangeSync struct {
	scale   TimeScale
	gesture Gesture
	fields  DateFields
	emit    func(models.DateRange)

	state      State
	pending    []func()
	start, end time.Time
}

func NewRangeSync(scale TimeScale, gesture Gesture, fields DateFields, emit func(models.DateRange)) *RangeSync {
	return &RangeSync{
		scale:   scale,
		gesture: gesture,
		fields:  fields,
		emit:    emit,
		start:   scale.Min(),
		end:     scale.Max(),
	}
}

func (s *RangeSync) State() State { return s.state }

// Interval returns the last synchronized interval.
func (s *RangeSync) Interval() (start, end time.Time) { return s.start, s.end }

// DateRange returns the last synchronized interval as filter bounds. A
// bound sitting on the edge of the scale is left unset: it excludes no dated
// record, and an unset bound keeps the undated ones.
func (s *RangeSync) DateRange() models.DateRange {
	var r models.DateRange
	if s.start.After(s.scale.Min()) {
		r.Start = models.TimePtr(s.start)
	}
	if s.end.Before(s.scale.Max()) {
		r.End = models.TimePtr(s.end)
	}
	return r
}

// OnGesture handles a move or end of the range gesture. A selection dragged
// past the track is pulled back onto it. It reports whether the notification
// was acted on.
func (s *RangeSync) OnGesture() bool {
	if s.state != Idle {
		return false
	}
	lo, hi, ok := s.gesture.Selection()
	if !ok {
		return false
	}
	start, end := ordered(s.scale.Invert(lo), s.scale.Invert(hi))

	s.state = SyncingFromGesture
	if clo, chi := s.scale.ClampPosition(lo), s.scale.ClampPosition(hi); clo != lo || chi != hi {
		s.gesture.Move(clo, chi)
	}
	s.fields.SetValues(formatDay(start), formatDay(end))
	s.releaseOnTick()
	s.publish(start, end, true)
	return true
}

// OnFieldsChanged handles an edit of either date input. Unparseable or
// empty inputs fall back to the edges of the scale.
func (s *RangeSync) OnFieldsChanged() bool {
	if s.state != Idle {
		return false
	}
	a, b := s.fields.Values()
	s.syncFromFields(parseDay(a, s.scale.Min()), parseDay(b, s.scale.Max()), true)
	return true
}

// Reset restores the full span. Pending releases are flushed first, so a
// reset is never swallowed by an earlier sync.
func (s *RangeSync) Reset() {
	s.Tick()
	s.syncFromFields(s.scale.Min(), s.scale.Max(), true)
}

// Prime draws the full span into both representations without emitting,
// as done once when the filter bar is first rendered.
func (s *RangeSync) Prime() {
	s.Tick()
	s.syncFromFields(s.scale.Min(), s.scale.Max(), false)
	s.Tick()
}

// Tick runs the releases scheduled by the last sync, returning to Idle.
func (s *RangeSync) Tick() {
	pending := s.pending
	s.pending = nil
	for _, fn := range pending {
		fn()
	}
}

func (s *RangeSync) syncFromFields(start, end time.Time, notify bool) {
	start, end = ordered(s.scale.Clamp(start), s.scale.Clamp(end))

	s.state = SyncingFromFields
	s.gesture.Move(s.scale.Position(start), s.scale.Position(end))
	s.fields.SetValues(formatDay(start), formatDay(end))
	s.releaseOnTick()
	s.publish(start, end, notify)
}

func (s *RangeSync) releaseOnTick() {
	s.pending = append(s.pending, func() { s.state = Idle })
}

func (s *RangeSync) publish(start, end time.Time, notify bool) {
	s.start, s.end = start, end
	if notify && s.emit != nil {
		s.emit(s.DateRange())
	}
}

func ordered(a, b time.Time) (time.Time, time.Time) {
	if a.After(b) {
		return b, a
	}
	return a, b
}

func formatDay(t time.Time) string {
	return t.Format(models.DateLayout)
}

func parseDay(s string, fallback time.Time) time.Time {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return t
}
