package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, security config.SecurityConfig, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		dashboard:   dashboard,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, security, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/timeseries", s.apiHandlers.HandleTimeSeries)
	s.mux.HandleFunc("GET /api/cohorts", s.apiHandlers.HandleCohorts)
	s.mux.HandleFunc("GET /api/flow", s.apiHandlers.HandleFlow)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/init", s.sseHandlers.HandleInit)
	s.mux.HandleFunc("POST /sse/filters", s.sseHandlers.HandleFilters)
	s.mux.HandleFunc("POST /sse/range/gesture", s.sseHandlers.HandleGesture)
	s.mux.HandleFunc("POST /sse/range/fields", s.sseHandlers.HandleFields)
	s.mux.HandleFunc("POST /sse/view", s.sseHandlers.HandleView)
	s.mux.HandleFunc("POST /sse/reset", s.sseHandlers.HandleReset)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
