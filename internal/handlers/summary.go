package handlers

import (
	"context"
	"net/http"
	"strings"

	"imet-backend/internal/service/summary"
	"imet-backend/pkg/api"
	appErrors "imet-backend/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Summarizer turns a free-form description into a narrative and parsed fields.
type Summarizer interface {
	Summarize(ctx context.Context, input string) (*summary.Result, error)
}

// SummaryHandler serves the summarization routes.
type SummaryHandler struct {
	svc         Summarizer
	validate    *validator.Validate
	logger      *zap.Logger
	maxBodySize int64
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(svc Summarizer, logger *zap.Logger, maxBodySize int64) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{svc: svc, validate: validator.New(), logger: logger, maxBodySize: maxBodySize}
}

// Summarize handles POST /api/summaries. A non-blank audioTranscript is used in
// preference to text.
func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req api.SummarizeRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleServiceError(w, r, h.logger, appErrors.NewValidation("Input text is too long"))
		return
	}

	input := req.Text
	if strings.TrimSpace(req.AudioTranscript) != "" {
		input = req.AudioTranscript
	}

	res, err := h.svc.Summarize(r.Context(), input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.SummarizeResponse{Summary: res.Summary, Connection: res.Fields})
}

// Parse handles POST /api/summaries/parse. Nothing is stored.
func (h *SummaryHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req api.ParseSummaryRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handleServiceError(w, r, h.logger, appErrors.NewValidation("Summary is too long"))
		return
	}
	api.Success(w, http.StatusOK, api.ParseSummaryResponse{Connection: summary.Parse(req.Summary)})
}
