package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

// facetParams maps each facet to its query parameter.
var facetParams = map[models.Facet]string{
	models.FacetGender:   "gender",
	models.FacetCategory: "category",
	models.FacetPayment:  "payment",
	models.FacetMall:     "mall",
}

// parseCriteria reads filter criteria from query parameters. Facet values
// may be repeated or comma separated. Absent parameters leave the
// corresponding constraint open.
func parseCriteria(q url.Values) (models.FilterCriteria, error) {
	var criteria models.FilterCriteria

	start, err := parseDateParam(q, "start")
	if err != nil {
		return criteria, err
	}
	end, err := parseDateParam(q, "end")
	if err != nil {
		return criteria, err
	}
	criteria.DateRange = models.DateRange{Start: start, End: end}

	for _, f := range models.Facets {
		criteria = criteria.WithSelection(f, splitValues(q[facetParams[f]]))
	}

	if criteria.AgeRange.Min, err = parseIntParam(q, "age_min"); err != nil {
		return criteria, err
	}
	if criteria.AgeRange.Max, err = parseIntParam(q, "age_max"); err != nil {
		return criteria, err
	}
	return criteria, nil
}

// parseView reads the chart selection, starting from base.
func parseView(q url.Values, base pipeline.View) (pipeline.View, error) {
	view := base
	if v := q.Get("granularity"); v != "" {
		g, err := pipeline.ParseGranularity(v)
		if err != nil {
			return view, err
		}
		view.Granularity = g
	}

	cohort, err := applyCohortParams(view.Cohort, q.Get("mode"), q.Get("measure"), q.Get("facet"))
	if err != nil {
		return view, err
	}
	if cats := splitValues(q["cohort_category"]); len(cats) > 0 {
		cohort.Categories = cats
	}
	view.Cohort = cohort
	return view, nil
}

func applyCohortParams(opts pipeline.CohortOptions, mode, measure, facet string) (pipeline.CohortOptions, error) {
	if mode != "" {
		opts.Mode = pipeline.CohortMode(mode)
	}
	if measure != "" {
		opts.Measure = pipeline.Measure(measure)
	}
	if facet != "" {
		opts.Facet = models.Facet(facet)
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func parseDateParam(q url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a YYYY-MM-DD date, got %q", key, v)
	}
	return &t, nil
}

func parseIntParam(q url.Values, key string) (*int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return &n, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, v := range strings.Split(item, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
