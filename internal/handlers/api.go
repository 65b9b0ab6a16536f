package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
)

const cacheControl = "private, max-age=60"

// APIHandlers serve the projections as JSON. They are stateless: the
// criteria and the chart selection come from the query string.
type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

type timeSeriesResponse struct {
	Granularity models.Granularity  `json:"granularity"`
	Buckets     []models.TimeBucket `json:"buckets"`
}

type cohortResponse struct {
	Mode    pipeline.CohortMode `json:"mode"`
	Measure pipeline.Measure    `json:"measure"`
	models.CohortResult
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Options(), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleTimeSeries(w http.ResponseWriter, r *http.Request) {
	criteria, view, ok := h.parse(w, r)
	if !ok {
		return
	}
	records := h.dashboard.Filtered(r.Context(), criteria)
	errors.WriteSuccess(w, timeSeriesResponse{
		Granularity: view.Granularity,
		Buckets:     pipeline.AggregateTimeSeries(records, view.Granularity),
	})
}

func (h *APIHandlers) HandleCohorts(w http.ResponseWriter, r *http.Request) {
	criteria, view, ok := h.parse(w, r)
	if !ok {
		return
	}
	records := h.dashboard.Filtered(r.Context(), criteria)
	errors.WriteSuccess(w, cohortResponse{
		Mode:         view.Cohort.Mode,
		Measure:      view.Cohort.Measure,
		CohortResult: pipeline.AggregateCohorts(records, view.Cohort),
	})
}

func (h *APIHandlers) HandleFlow(w http.ResponseWriter, r *http.Request) {
	criteria, _, ok := h.parse(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, pipeline.BuildFlowGraph(h.dashboard.Filtered(r.Context(), criteria)))
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	criteria, _, ok := h.parse(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, pipeline.Summarize(h.dashboard.Filtered(r.Context(), criteria)))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"records":   len(h.dashboard.Records()),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}

// parse reads criteria and view from the query, answering 400 itself when
// either is invalid.
func (h *APIHandlers) parse(w http.ResponseWriter, r *http.Request) (models.FilterCriteria, pipeline.View, bool) {
	q := r.URL.Query()
	criteria, err := parseCriteria(q)
	if err == nil {
		var view pipeline.View
		if view, err = parseView(q, h.dashboard.DefaultView()); err == nil {
			return criteria, view, true
		}
	}
	requestID := observability.GetRequestID(r.Context())
	errors.WriteError(r.Context(), w, h.logger, errors.BadRequestWrap(err, "Invalid query parameter"), requestID)
	return models.FilterCriteria{}, pipeline.View{}, false
}
