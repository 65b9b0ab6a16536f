package filterbar

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard/internal/models"
)

// fakeGesture and fakeFields echo programmatic writes back as change
// notifications, the way browser widgets fire their own events.
type fakeGesture struct {
	lo, hi float64
	ok     bool
	moves  int
	notify func()
}

func (g *fakeGesture) Selection() (float64, float64, bool) { return g.lo, g.hi, g.ok }

func (g *fakeGesture) Move(lo, hi float64) {
	g.lo, g.hi, g.ok = lo, hi, true
	g.moves++
	if g.notify != nil {
		g.notify()
	}
}

func (g *fakeGesture) drag(lo, hi float64) {
	g.lo, g.hi, g.ok = lo, hi, true
}

type fakeFields struct {
	start, end string
	writes     int
	notify     func()
}

func (f *fakeFields) Values() (string, string) { return f.start, f.end }

func (f *fakeFields) SetValues(start, end string) {
	f.start, f.end = start, end
	f.writes++
	if f.notify != nil {
		f.notify()
	}
}

type rangeFixture struct {
	sync    *RangeSync
	gesture *fakeGesture
	fields  *fakeFields
	emitted []models.DateRange
}

var (
	spanStart = models.Day(2024, time.January, 1)
	spanEnd   = models.Day(2024, time.December, 31)
)

func newRangeFixture() *rangeFixture {
	fx := &rangeFixture{gesture: &fakeGesture{}, fields: &fakeFields{}}
	scale := NewTimeScale(spanStart, spanEnd, TrackLo, TrackHi)
	fx.sync = NewRangeSync(scale, fx.gesture, fx.fields, func(r models.DateRange) {
		fx.emitted = append(fx.emitted, r)
	})
	fx.gesture.notify = func() { fx.sync.OnGesture() }
	fx.fields.notify = func() { fx.sync.OnFieldsChanged() }
	fx.sync.Prime()
	return fx
}

func (fx *rangeFixture) converged(t *testing.T) {
	t.Helper()
	start, end := fx.sync.Interval()
	assert.Equal(t, start.Format(models.DateLayout), fx.fields.start)
	assert.Equal(t, end.Format(models.DateLayout), fx.fields.end)
	lo, hi := ordered(fx.sync.scale.Invert(fx.gesture.lo), fx.sync.scale.Invert(fx.gesture.hi))
	assert.Equal(t, start, lo)
	assert.Equal(t, end, hi)
}

func TestRangeSync_Prime(t *testing.T) {
	fx := newRangeFixture()

	assert.Empty(t, fx.emitted)
	assert.Equal(t, Idle, fx.sync.State())
	assert.Equal(t, "2024-01-01", fx.fields.start)
	assert.Equal(t, "2024-12-31", fx.fields.end)
	assert.Equal(t, TrackLo, fx.gesture.lo)
	assert.Equal(t, TrackHi, fx.gesture.hi)
}

func TestRangeSync_GestureUpdatesFields(t *testing.T) {
	fx := newRangeFixture()
	writes := fx.fields.writes

	fx.gesture.drag(0.5, 0.25)
	require.True(t, fx.sync.OnGesture())

	// The field write echoed back but was ignored.
	assert.Equal(t, writes+1, fx.fields.writes)
	assert.Equal(t, SyncingFromGesture, fx.sync.State())
	require.Len(t, fx.emitted, 1)
	assert.True(t, fx.emitted[0].Start.Before(*fx.emitted[0].End))
	fx.converged(t)

	fx.sync.Tick()
	assert.Equal(t, Idle, fx.sync.State())
}

func TestRangeSync_FieldsUpdateGesture(t *testing.T) {
	fx := newRangeFixture()
	moves := fx.gesture.moves

	fx.fields.start, fx.fields.end = "2024-09-30", "2024-03-01"
	require.True(t, fx.sync.OnFieldsChanged())

	assert.Equal(t, moves+1, fx.gesture.moves)
	assert.Equal(t, SyncingFromFields, fx.sync.State())
	require.Len(t, fx.emitted, 1)
	assert.Equal(t, models.Day(2024, time.March, 1), *fx.emitted[0].Start)
	assert.Equal(t, models.Day(2024, time.September, 30), *fx.emitted[0].End)
	assert.Equal(t, "2024-03-01", fx.fields.start)
	fx.converged(t)
}

func TestRangeSync_FieldsFallBackAndClamp(t *testing.T) {
	fx := newRangeFixture()

	fx.fields.start, fx.fields.end = "not a date", "2030-01-01"
	fx.sync.OnFieldsChanged()

	start, end := fx.sync.Interval()
	assert.Equal(t, spanStart, start)
	assert.Equal(t, spanEnd, end)
	assert.Equal(t, "2024-12-31", fx.fields.end)
}

func TestRangeSync_GesturePastTrackIsPulledBack(t *testing.T) {
	fx := newRangeFixture()
	moves := fx.gesture.moves

	fx.gesture.drag(-0.5, 1.7)
	require.True(t, fx.sync.OnGesture())

	assert.Equal(t, moves+1, fx.gesture.moves)
	assert.Equal(t, TrackLo, fx.gesture.lo)
	assert.Equal(t, TrackHi, fx.gesture.hi)
	assert.Equal(t, "2024-01-01", fx.fields.start)
	assert.Equal(t, "2024-12-31", fx.fields.end)
	require.Len(t, fx.emitted, 1)
	fx.converged(t)
}

func TestRangeSync_DateRangeLeavesSpanEdgesOpen(t *testing.T) {
	fx := newRangeFixture()

	r := fx.sync.DateRange()
	assert.Nil(t, r.Start)
	assert.Nil(t, r.End)

	fx.fields.start, fx.fields.end = "2024-01-01", "2024-06-30"
	fx.sync.OnFieldsChanged()
	r = fx.emitted[len(fx.emitted)-1]
	assert.Nil(t, r.Start)
	require.NotNil(t, r.End)
	assert.Equal(t, models.Day(2024, time.June, 30), *r.End)
}

func TestRangeSync_LatchDropsUntilTick(t *testing.T) {
	fx := newRangeFixture()

	fx.gesture.drag(0.1, 0.2)
	require.True(t, fx.sync.OnGesture())

	fx.gesture.drag(0.3, 0.4)
	assert.False(t, fx.sync.OnGesture())
	fx.fields.start = "2024-06-01"
	assert.False(t, fx.sync.OnFieldsChanged())
	assert.Len(t, fx.emitted, 1)

	fx.sync.Tick()
	assert.True(t, fx.sync.OnGesture())
	assert.Len(t, fx.emitted, 2)
}

func TestRangeSync_NoSelection(t *testing.T) {
	fx := newRangeFixture()
	fx.gesture.ok = false

	assert.False(t, fx.sync.OnGesture())
	assert.Empty(t, fx.emitted)
}

func TestRangeSync_Reset(t *testing.T) {
	fx := newRangeFixture()

	fx.gesture.drag(0.4, 0.6)
	fx.sync.OnGesture()

	// Reset is honoured even while the gesture sync is still pending.
	fx.sync.Reset()
	require.Len(t, fx.emitted, 2)
	assert.Nil(t, fx.emitted[1].Start)
	assert.Nil(t, fx.emitted[1].End)
	start, end := fx.sync.Interval()
	assert.Equal(t, spanStart, start)
	assert.Equal(t, spanEnd, end)
	fx.converged(t)

	fx.sync.Reset()
	require.Len(t, fx.emitted, 3)
	assert.Equal(t, fx.emitted[1], fx.emitted[2])
	assert.Equal(t, TrackLo, fx.gesture.lo)
	assert.Equal(t, TrackHi, fx.gesture.hi)
}

func TestRangeSync_Properties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("any gesture converges with the fields after one tick", prop.ForAll(
		func(lo, hi float64) bool {
			fx := newRangeFixture()
			fx.gesture.drag(lo, hi)
			if !fx.sync.OnGesture() {
				return false
			}
			fx.sync.Tick()

			start, end := fx.sync.Interval()
			return fx.sync.State() == Idle &&
				len(fx.emitted) == 1 &&
				!start.After(end) &&
				fx.fields.start == start.Format(models.DateLayout) &&
				fx.fields.end == end.Format(models.DateLayout)
		},
		gen.Float64Range(0, 1), gen.Float64Range(0, 1),
	))

	properties.Property("a settled gesture lies on the track", prop.ForAll(
		func(lo, hi float64) bool {
			fx := newRangeFixture()
			fx.gesture.drag(lo, hi)
			fx.sync.OnGesture()
			fx.sync.Tick()

			start, end := fx.sync.Interval()
			scale := fx.sync.scale
			return fx.gesture.lo >= TrackLo && fx.gesture.lo <= TrackHi &&
				fx.gesture.hi >= TrackLo && fx.gesture.hi <= TrackHi &&
				!start.Before(scale.Min()) && !end.After(scale.Max())
		},
		gen.Float64Range(-2, 3), gen.Float64Range(-2, 3),
	))

	properties.Property("any field edit converges with the gesture", prop.ForAll(
		func(a, b int) bool {
			fx := newRangeFixture()
			fx.fields.start = spanStart.AddDate(0, 0, a).Format(models.DateLayout)
			fx.fields.end = spanStart.AddDate(0, 0, b).Format(models.DateLayout)
			fx.sync.OnFieldsChanged()
			fx.sync.Tick()

			start, end := fx.sync.Interval()
			scale := fx.sync.scale
			return !start.After(end) &&
				scale.Invert(fx.gesture.lo).Equal(start) &&
				scale.Invert(fx.gesture.hi).Equal(end)
		},
		gen.IntRange(-100, 500), gen.IntRange(-100, 500),
	))

	properties.TestingRun(t)
}
