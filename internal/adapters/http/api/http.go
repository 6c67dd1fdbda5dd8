// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/medalist/internal/adapters/mq/worker"
	"github.com/okian/medalist/internal/domain/rowerr"
	"github.com/okian/medalist/pkg/logger"
	"github.com/okian/medalist/pkg/metrics"
)

// Default server limits.
const (
	defaultMaxUploadBytes = 10 << 20
	defaultRequestTimeout = 60 * time.Second
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	HealthDependencies
	StatsProvider
	AthleteDependencies
	PerformanceDependencies
	ScoreDependencies
	CriteriaDependencies
	ExportDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	athleteHandler     *AthleteHandler
	performanceHandler *PerformanceHandler
	scoreHandler       *ScoreHandler
	criteriaHandler    *CriteriaHandler
	exportHandler      *ExportHandler

	maxUploadBytes int64
	requestTimeout time.Duration
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxUploadBytes: defaultMaxUploadBytes,
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.athleteHandler = NewAthleteHandler(deps, s.maxUploadBytes)
	s.performanceHandler = NewPerformanceHandler(deps, s.maxUploadBytes)
	s.scoreHandler = NewScoreHandler(deps)
	s.criteriaHandler = NewCriteriaHandler(deps)
	s.exportHandler = NewExportHandler(deps)
	return s
}

// Router returns a chi router with the common middleware stack and every
// route registered.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

		r.Route("/athletes", func(r chi.Router) {
			r.Get("/", MetricsMiddleware(s.athleteHandler.HandleList, "athletes"))
			r.Post("/", MetricsMiddleware(s.athleteHandler.HandleImport, "athletes_import"))
			r.Get("/{id}", MetricsMiddleware(s.athleteHandler.HandleGet, "athlete"))
			r.Put("/{id}", MetricsMiddleware(s.athleteHandler.HandleUpdate, "athlete_update"))
			r.Delete("/{id}", MetricsMiddleware(s.athleteHandler.HandleDelete, "athlete_delete"))
		})

		r.Get("/performances", MetricsMiddleware(s.performanceHandler.HandleList, "performances"))
		r.Post("/performances", MetricsMiddleware(s.performanceHandler.HandleImport, "performances_import"))
		r.Post("/scores", MetricsMiddleware(s.scoreHandler.HandleSubmit, "scores"))
		r.Get("/criteria", MetricsMiddleware(s.criteriaHandler.HandleList, "criteria"))

		r.Post("/export/athletes", MetricsMiddleware(s.exportHandler.HandleAthletes, "export_athletes"))
		r.Post("/export/performances", MetricsMiddleware(s.exportHandler.HandlePerformances, "export_performances"))
	})
}

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError rejects the whole request. Classified errors keep their kind
// as code and their structured fields.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	var re *rowerr.Error
	if errors.As(err, &re) {
		resp.Fields = re.Fields
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err))
	}
	writeJSON(w, status, resp)
}

// classify maps err to a status code and a machine-readable code.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, worker.ErrCanceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "canceled"
	}
	var re *rowerr.Error
	if errors.As(err, &re) {
		return re.Kind.HTTPStatus(), string(re.Kind)
	}
	return http.StatusInternalServerError, "internal_error"
}
