package handlers

import (
	"context"
	"net/http"

	"imet-backend/internal/domain"
	"imet-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NudgeService lists and dismisses nudges.
type NudgeService interface {
	List(ctx context.Context) ([]domain.Nudge, error)
	Dismiss(ctx context.Context, id string) error
}

// NudgeHandler serves the nudge routes.
type NudgeHandler struct {
	svc    NudgeService
	logger *zap.Logger
}

// NewNudgeHandler creates a new nudge handler.
func NewNudgeHandler(svc NudgeService, logger *zap.Logger) *NudgeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NudgeHandler{svc: svc, logger: logger}
}

// List handles GET /api/nudges.
func (h *NudgeHandler) List(w http.ResponseWriter, r *http.Request) {
	nudges, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.ListNudgesResponse{Nudges: nudges})
}

// Dismiss handles DELETE /api/nudges and DELETE /api/nudges/{id}.
func (h *NudgeHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	if err := h.svc.Dismiss(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.MessageResponse{Message: "Nudge dismissed successfully"})
}
