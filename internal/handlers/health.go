package handlers

import (
	"context"
	"net/http"
	"time"

	"imet-backend/internal/repository"
	"imet-backend/pkg/api"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerReporter exposes the state of a circuit breaker guarding an upstream.
type BreakerReporter interface {
	State() gobreaker.State
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store    repository.HealthChecker
	breakers map[string]BreakerReporter
	logger   *zap.Logger
}

// NewHealthHandler creates a new health handler. store may be nil.
func NewHealthHandler(store repository.HealthChecker, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{store: store, breakers: map[string]BreakerReporter{}, logger: logger}
}

// WithBreaker makes readiness fail while the named breaker is open.
func (h *HealthHandler) WithBreaker(name string, b BreakerReporter) *HealthHandler {
	if b != nil {
		h.breakers[name] = b
	}
	return h
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// Ready handles GET /ready. The store must answer a ping and no upstream breaker may
// be open.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			api.Success(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
			return
		}
	}
	for name, b := range h.breakers {
		if b.State() == gobreaker.StateOpen {
			h.logger.Warn("Readiness check failed, circuit open", zap.String("upstream", name))
			api.Success(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
			return
		}
	}
	api.Success(w, http.StatusOK, api.HealthResponse{Status: "ready"})
}
