// Package pipeline turns the record store and the active filter criteria
// into the chart projections of the dashboard. Everything here is a pure
// function of its arguments: no I/O, no package state, results are freshly
// allocated on every call.
package pipeline

import (
	"retail-dashboard/internal/models"
)

// View is the per-chart selection that is not part of the filter criteria.
type View struct {
	Granularity models.Granularity
	Cohort      CohortOptions
}

func DefaultView() View {
	return View{
		Granularity: models.Daily,
		Cohort:      DefaultCohortOptions(),
	}
}

// Snapshot holds every projection of one recomputation.
type Snapshot struct {
	Criteria   models.FilterCriteria `json:"criteria"`
	Filtered   int                   `json:"filtered"`
	TimeSeries []models.TimeBucket   `json:"timeseries"`
	Cohorts    models.CohortResult   `json:"cohorts"`
	Flow       models.FlowGraph      `json:"flow"`
	Summary    models.Summary        `json:"summary"`
	NoData     bool                  `json:"no_data"`
}

// Run filters records by criteria and recomputes all projections for view.
func Run(records []models.Record, criteria models.FilterCriteria, view View) Snapshot {
	filtered := Apply(records, criteria)
	return Snapshot{
		Criteria:   criteria,
		Filtered:   len(filtered),
		TimeSeries: AggregateTimeSeries(filtered, view.Granularity),
		Cohorts:    AggregateCohorts(filtered, view.Cohort),
		Flow:       BuildFlowGraph(filtered),
		Summary:    Summarize(filtered),
		NoData:     len(filtered) == 0,
	}
}
