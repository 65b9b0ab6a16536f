// Package filterbar holds the state behind the dashboard's filter bar: the
// facet check boxes, the age inputs and the date range, kept in sync between
// the range gesture and the date inputs. Every user action yields exactly one
// complete models.FilterCriteria.
package filterbar

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"retail-dashboard/internal/models"
)

const (
	// TrackLo and TrackHi bound the gesture positions, as fractions of the
	// track width.
	TrackLo = 0.0
	TrackHi = 1.0

	fallbackMinAge = 0
	fallbackMaxAge = 100
)

// Selections is the state of every non-date input of the filter bar.
type Selections struct {
	Genders        []string
	Categories     []string
	PaymentMethods []string
	Malls          []string
	AgeMin         string
	AgeMax         string
}

// Controller owns the filter bar inputs of one dashboard view.
type Controller struct {
	options        models.FilterOptions
	selected       map[models.Facet][]string
	ageMin, ageMax int
	dates          *RangeSync
	onFilterChange func(models.FilterCriteria)
}

// NewController builds a controller showing the full date span, no facet
// selection and the observed age span. Nothing is emitted until the first
// user action.
func NewController(opts models.FilterOptions, gesture Gesture, fields DateFields, onFilterChange func(models.FilterCriteria)) *Controller {
	c := &Controller{
		options:        opts,
		selected:       make(map[models.Facet][]string),
		ageMin:         opts.MinAge,
		ageMax:         opts.MaxAge,
		onFilterChange: onFilterChange,
	}
	scale := NewTimeScale(opts.MinDate, opts.MaxDate, TrackLo, TrackHi)
	c.dates = NewRangeSync(scale, gesture, fields, func(models.DateRange) { c.emit() })
	c.dates.Prime()
	return c
}

func (c *Controller) Options() models.FilterOptions { return c.options }

func (c *Controller) RangeSync() *RangeSync { return c.dates }

// Criteria returns the complete criteria currently expressed by the inputs.
func (c *Controller) Criteria() models.FilterCriteria {
	criteria := models.FilterCriteria{
		DateRange: c.dates.DateRange(),
		AgeRange:  models.AgeRange{Min: models.IntPtr(c.ageMin), Max: models.IntPtr(c.ageMax)},
	}
	for _, f := range models.Facets {
		criteria = criteria.WithSelection(f, slices.Clone(c.selected[f]))
	}
	return criteria
}

// Update replaces every non-date input at once.
func (c *Controller) Update(sel Selections) {
	c.selected[models.FacetGender] = normalizeValues(sel.Genders)
	c.selected[models.FacetCategory] = normalizeValues(sel.Categories)
	c.selected[models.FacetPayment] = normalizeValues(sel.PaymentMethods)
	c.selected[models.FacetMall] = normalizeValues(sel.Malls)
	c.setAges(sel.AgeMin, sel.AgeMax)
	c.emit()
}

// SetFacet replaces the checked values of one facet.
func (c *Controller) SetFacet(f models.Facet, values []string) error {
	if !f.Valid() {
		return fmt.Errorf("unknown facet %q", f)
	}
	c.selected[f] = normalizeValues(values)
	c.emit()
	return nil
}

// Toggle checks or unchecks one facet value.
func (c *Controller) Toggle(f models.Facet, value string, checked bool) error {
	if !f.Valid() {
		return fmt.Errorf("unknown facet %q", f)
	}
	current := slices.DeleteFunc(slices.Clone(c.selected[f]), func(v string) bool { return v == value })
	if checked {
		current = append(current, value)
	}
	c.selected[f] = normalizeValues(current)
	c.emit()
	return nil
}

// SetAgeInputs applies the text of the two age inputs. An unparseable
// minimum reads as 0, an unparseable maximum as 100, and inverted bounds
// are swapped.
func (c *Controller) SetAgeInputs(minText, maxText string) {
	c.setAges(minText, maxText)
	c.emit()
}

// OnGesture forwards a range gesture notification.
func (c *Controller) OnGesture() bool { return c.dates.OnGesture() }

// OnFieldsChanged forwards a date input notification.
func (c *Controller) OnFieldsChanged() bool { return c.dates.OnFieldsChanged() }

// Tick releases the date range sync for the next interaction.
func (c *Controller) Tick() { c.dates.Tick() }

// Reset clears every facet, restores the observed age span and the full
// date span, and emits once.
func (c *Controller) Reset() {
	clear(c.selected)
	c.ageMin, c.ageMax = c.options.MinAge, c.options.MaxAge
	c.dates.Reset()
}

func (c *Controller) setAges(minText, maxText string) {
	lo := parseAge(minText, fallbackMinAge)
	hi := parseAge(maxText, fallbackMaxAge)
	if lo > hi {
		lo, hi = hi, lo
	}
	c.ageMin, c.ageMax = lo, hi
}

func (c *Controller) emit() {
	if c.onFilterChange != nil {
		c.onFilterChange(c.Criteria())
	}
}

// parseAge reads a numeric input; empty, zero and unparseable text yield
// fallback.
func parseAge(s string, fallback int) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return int(v)
}

func normalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
