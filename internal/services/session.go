package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"retail-dashboard/internal/filterbar"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

// Frame is what a browser needs after one interaction: the projections, the
// summary they replace for counter transitions, and the synchronized state
// of the date inputs and the range gesture.
type Frame struct {
	Snapshot  pipeline.Snapshot
	Previous  models.Summary
	StartDate string
	EndDate   string
	BrushLo   float64
	BrushHi   float64
	Changed   bool
}

// Session is one browser's view of the dashboard. Its filter bar controller
// is only ever driven under mu, one interaction at a time.
type Session struct {
	ID string

	mu         sync.Mutex
	dashboard  *Dashboard
	controller *filterbar.Controller
	track      *trackState
	fields     *fieldState
	view       pipeline.View
	criteria   models.FilterCriteria
	dirty      bool
	snapshot   pipeline.Snapshot
	computed   bool
	lastSeen   time.Time
}

func newSession(d *Dashboard) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		dashboard: d,
		view:      d.DefaultView(),
		lastSeen:  d.now(),
	}
	s.track = &trackState{notify: func() {
		if s.controller != nil {
			s.controller.OnGesture()
		}
	}}
	s.fields = &fieldState{notify: func() {
		if s.controller != nil {
			s.controller.OnFieldsChanged()
		}
	}}
	s.controller = filterbar.NewController(d.Options(), s.track, s.fields, s.onFilterChange)
	s.criteria = s.controller.Criteria()
	s.dirty = true
	return s
}

func (s *Session) onFilterChange(criteria models.FilterCriteria) {
	s.criteria = criteria
	s.dirty = true
}

// Current returns the frame for the session's present state.
func (s *Session) Current(ctx context.Context) Frame {
	return s.interact(ctx, func() {})
}

// ApplySelections replaces every facet and age input.
func (s *Session) ApplySelections(ctx context.Context, sel filterbar.Selections) Frame {
	return s.interact(ctx, func() { s.controller.Update(sel) })
}

// MoveGesture records a user drag of the range gesture to [lo, hi].
func (s *Session) MoveGesture(ctx context.Context, lo, hi float64) Frame {
	return s.interact(ctx, func() {
		s.track.lo, s.track.hi, s.track.ok = lo, hi, true
		s.controller.OnGesture()
	})
}

// EditDates records a user edit of the date inputs.
func (s *Session) EditDates(ctx context.Context, start, end string) Frame {
	return s.interact(ctx, func() {
		s.fields.start, s.fields.end = start, end
		s.controller.OnFieldsChanged()
	})
}

// SetView changes the chart selection without touching the criteria.
func (s *Session) SetView(ctx context.Context, view pipeline.View) Frame {
	return s.interact(ctx, func() {
		s.view = view
		s.dirty = true
	})
}

// Reset clears every filter input.
func (s *Session) Reset(ctx context.Context) Frame {
	return s.interact(ctx, func() { s.controller.Reset() })
}

func (s *Session) View() pipeline.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// interact runs one user action, lets the range sync settle and recomputes
// the projections when the criteria or the view changed.
func (s *Session) interact(ctx context.Context, action func()) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = s.dashboard.now()
	action()
	s.controller.Tick()

	previous := s.snapshot.Summary
	changed := false
	if s.dirty || !s.computed {
		s.snapshot = s.dashboard.Run(ctx, s.criteria, s.view)
		s.dirty, s.computed, changed = false, true, true
	}
	if !changed {
		previous = s.snapshot.Summary
	}

	start, end := s.fields.Values()
	return Frame{
		Snapshot:  s.snapshot,
		Previous:  previous,
		StartDate: start,
		EndDate:   end,
		BrushLo:   s.track.lo,
		BrushHi:   s.track.hi,
		Changed:   changed,
	}
}

func (s *Session) seenAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// trackState mirrors the browser's range gesture. Programmatic moves echo
// back through notify the way a brush fires its own event.
type trackState struct {
	lo, hi float64
	ok     bool
	notify func()
}

func (t *trackState) Selection() (float64, float64, bool) { return t.lo, t.hi, t.ok }

func (t *trackState) Move(lo, hi float64) {
	t.lo, t.hi, t.ok = lo, hi, true
	t.notify()
}

// fieldState mirrors the browser's two date inputs.
type fieldState struct {
	start, end string
	notify     func()
}

func (f *fieldState) Values() (string, string) { return f.start, f.end }

func (f *fieldState) SetValues(start, end string) {
	f.start, f.end = start, end
	f.notify()
}

// SessionStore keeps sessions in memory, dropping those idle for longer
// than ttl and the least recently seen ones beyond max.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration, max int, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      max,
		now:      now,
	}
}

func (st *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	if st.ttl > 0 && st.now().Sub(s.seenAt()) > st.ttl {
		delete(st.sessions, id)
		return nil, false
	}
	return s, true
}

func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked()
	for st.max > 0 && len(st.sessions) >= st.max {
		st.evictOldestLocked()
	}
	st.sessions[s.ID] = s
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) sweepLocked() {
	if st.ttl <= 0 {
		return
	}
	now := st.now()
	for id, s := range st.sessions {
		if now.Sub(s.seenAt()) > st.ttl {
			delete(st.sessions, id)
		}
	}
}

func (st *SessionStore) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		if seen := s.seenAt(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	delete(st.sessions, oldestID)
}
