package pipeline

import (
	"retail-dashboard/internal/models"
)

// Apply returns the records satisfying every constraint of criteria, in
// input order. Constraints are AND-combined across dimensions and
// OR-combined within a facet; an empty facet selection imposes nothing.
//
// Apply does not reorder inverted bounds: a criteria with Min > Max or
// Start > End simply matches nothing. Normalizing bounds is the job of
// whoever builds the criteria.
func Apply(records []models.Record, criteria models.FilterCriteria) []models.Record {
	m := newMatcher(criteria)

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record satisfies criteria.
func Matches(r models.Record, criteria models.FilterCriteria) bool {
	return newMatcher(criteria).match(r)
}

type matcher struct {
	criteria models.FilterCriteria
	sets     map[models.Facet]map[string]struct{}
}

func newMatcher(criteria models.FilterCriteria) matcher {
	sets := make(map[models.Facet]map[string]struct{})
	for _, f := range models.Facets {
		allowed := criteria.Selection(f)
		if len(allowed) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(allowed))
		for _, v := range allowed {
			set[v] = struct{}{}
		}
		sets[f] = set
	}
	return matcher{criteria: criteria, sets: sets}
}

func (m matcher) match(r models.Record) bool {
	dr := m.criteria.DateRange
	day := models.TruncateDay(r.InvoiceDate)
	if dr.Start != nil && (!r.HasDate() || day.Before(models.TruncateDay(*dr.Start))) {
		return false
	}
	if dr.End != nil && (!r.HasDate() || day.After(models.TruncateDay(*dr.End))) {
		return false
	}

	for f, set := range m.sets {
		if _, ok := set[f.Value(r)]; !ok {
			return false
		}
	}

	ar := m.criteria.AgeRange
	if ar.Min != nil && r.Age < *ar.Min {
		return false
	}
	if ar.Max != nil && r.Age > *ar.Max {
		return false
	}
	return true
}
