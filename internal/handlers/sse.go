package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starfederation/datastar-go/datastar"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/filterbar"
	"retail-dashboard/internal/middleware"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/ui/templates"
)

// SSEHandlers drive one filter bar controller per browser session and
// answer every interaction with the recomputed projections as Datastar
// signal and element patches.
type SSEHandlers struct {
	dashboard *services.Dashboard
	security  config.SecurityConfig
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, security config.SecurityConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		security:  security,
		logger:    logger,
	}
}

// frameSignals is the signal patch sent after every interaction.
type frameSignals struct {
	TimeSeries      []models.TimeBucket `json:"timeseries"`
	Cohorts         models.CohortResult `json:"cohorts"`
	Flow            models.FlowGraph    `json:"flow"`
	Summary         models.Summary      `json:"summary"`
	PreviousSummary models.Summary      `json:"previousSummary"`
	NoData          bool                `json:"noData"`
	StartDate       string              `json:"startDate"`
	EndDate         string              `json:"endDate"`
	BrushLo         float64             `json:"brushLo"`
	BrushHi         float64             `json:"brushHi"`
	Genders         []string            `json:"genders"`
	Categories      []string            `json:"categories"`
	Payments        []string            `json:"payments"`
	Malls           []string            `json:"malls"`
	AgeMin          string              `json:"ageMin"`
	AgeMax          string              `json:"ageMax"`
}

func newFrameSignals(f services.Frame) frameSignals {
	c := f.Snapshot.Criteria
	s := frameSignals{
		TimeSeries:      f.Snapshot.TimeSeries,
		Cohorts:         f.Snapshot.Cohorts,
		Flow:            f.Snapshot.Flow,
		Summary:         f.Snapshot.Summary,
		PreviousSummary: f.Previous,
		NoData:          f.Snapshot.NoData,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		BrushLo:         f.BrushLo,
		BrushHi:         f.BrushHi,
		Genders:         orEmpty(c.Genders),
		Categories:      orEmpty(c.Categories),
		Payments:        orEmpty(c.PaymentMethods),
		Malls:           orEmpty(c.Malls),
	}
	if c.AgeRange.Min != nil {
		s.AgeMin = strconv.Itoa(*c.AgeRange.Min)
	}
	if c.AgeRange.Max != nil {
		s.AgeMax = strconv.Itoa(*c.AgeRange.Max)
	}
	return s
}

func (h *SSEHandlers) HandleInit(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.send(w, r, s.Current(r.Context()))
}

func (h *SSEHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	var sig templates.PageSignals
	if !h.readSignals(w, r, &sig) {
		return
	}
	s := h.session(w, r)
	h.send(w, r, s.ApplySelections(r.Context(), filterbar.Selections{
		Genders:        sig.Genders,
		Categories:     sig.Categories,
		PaymentMethods: sig.Payments,
		Malls:          sig.Malls,
		AgeMin:         sig.AgeMin,
		AgeMax:         sig.AgeMax,
	}))
}

func (h *SSEHandlers) HandleGesture(w http.ResponseWriter, r *http.Request) {
	var sig templates.PageSignals
	if !h.readSignals(w, r, &sig) {
		return
	}
	s := h.session(w, r)
	h.send(w, r, s.MoveGesture(r.Context(), sig.BrushLo, sig.BrushHi))
}

func (h *SSEHandlers) HandleFields(w http.ResponseWriter, r *http.Request) {
	var sig templates.PageSignals
	if !h.readSignals(w, r, &sig) {
		return
	}
	s := h.session(w, r)
	h.send(w, r, s.EditDates(r.Context(), sig.StartDate, sig.EndDate))
}

func (h *SSEHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	var sig templates.PageSignals
	if !h.readSignals(w, r, &sig) {
		return
	}
	s := h.session(w, r)

	view := s.View()
	if sig.Granularity != "" {
		g, err := pipeline.ParseGranularity(sig.Granularity)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		view.Granularity = g
	}
	cohort, err := applyCohortParams(view.Cohort, sig.CohortMode, sig.CohortMeasure, sig.CohortFacet)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	cohort.Categories = sig.CohortCategories
	view.Cohort = cohort

	h.send(w, r, s.SetView(r.Context(), view))
}

func (h *SSEHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.send(w, r, s.Reset(r.Context()))
}

// session resolves the browser's session, binding a new cookie when the
// old one is unknown or expired.
func (h *SSEHandlers) session(w http.ResponseWriter, r *http.Request) *services.Session {
	s, created := h.dashboard.Session(observability.GetSessionID(r.Context()))
	if created {
		middleware.SetSessionCookie(w, h.security, s.ID)
	}
	return s
}

func (h *SSEHandlers) readSignals(w http.ResponseWriter, r *http.Request, sig *templates.PageSignals) bool {
	if err := datastar.ReadSignals(r, sig); err != nil {
		h.badRequest(w, r, err)
		return false
	}
	return true
}

func (h *SSEHandlers) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	requestID := observability.GetRequestID(r.Context())
	errors.WriteError(r.Context(), w, h.logger, errors.BadRequestWrap(err, "Invalid signals"), requestID)
}

func (h *SSEHandlers) send(w http.ResponseWriter, r *http.Request, frame services.Frame) {
	logger := observability.LoggerFrom(r.Context(), h.logger)
	sse := datastar.NewSSE(w, r)

	if err := sse.MarshalAndPatchSignals(newFrameSignals(frame)); err != nil {
		logger.Error("patch frame signals", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.KPIs(frame.Snapshot.Summary, frame.Previous)); err != nil {
		logger.Error("patch kpis", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.NoData(frame.Snapshot.NoData)); err != nil {
		logger.Error("patch no-data notice", "error", err)
		return
	}

	logger.Debug("frame sent",
		"filtered", frame.Snapshot.Filtered,
		"recomputed", frame.Changed,
	)
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
