package handlers

import (
	"net/http"
	"time"

	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/middleware"
	"imet-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig selects the optional layers of the HTTP pipeline.
type RouterConfig struct {
	RequestTimeout time.Duration
	ServiceName    string
	EnableTracing  bool
	MetricsPath    string
	CORS           *cors.Options
}

// Handlers groups every route handler.
type Handlers struct {
	Connections *ConnectionHandler
	Nudges      *NudgeHandler
	Summaries   *SummaryHandler
	Health      *HealthHandler
}

// NewRouter creates the HTTP router with all routes and middleware. metrics may be nil.
func NewRouter(h Handlers, cfg RouterConfig, metrics *observability.Collector, logger *zap.Logger) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	if cfg.EnableTracing {
		r.Use(observability.TracingMiddleware(cfg.ServiceName))
	}
	r.Use(observability.MetricsMiddleware(metrics))
	if cfg.CORS != nil {
		r.Use(cors.Handler(*cfg.CORS))
	}

	r.Get("/health", h.Health.Check)
	r.Get("/ready", h.Health.Ready)
	if metrics != nil && cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout, logger))

		r.Get("/connections", h.Connections.List)
		r.Post("/connections", h.Connections.Create)
		r.Get("/connections/{id}", h.Connections.Get)
		r.Put("/connections/{id}", h.Connections.Update)
		r.Delete("/connections/{id}", h.Connections.Delete)

		r.Get("/nudges", h.Nudges.List)
		r.Delete("/nudges", h.Nudges.Dismiss)
		r.Delete("/nudges/{id}", h.Nudges.Dismiss)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("summaries"), logger))
			r.Post("/summaries", h.Summaries.Summarize)
		})
		r.Post("/summaries/parse", h.Summaries.Parse)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "Route not found")
	})

	return r
}
