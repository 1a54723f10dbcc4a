// Package handlers provides the HTTP handlers and router for the API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"imet-backend/internal/middleware"
	"imet-backend/pkg/api"
	appErrors "imet-backend/pkg/errors"

	"go.uber.org/zap"
)

const defaultMaxBodySize = 1 << 20

// handleServiceError converts service errors to appropriate HTTP responses.
// Client errors carry their message; server errors are logged and answered generically.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch appErrors.TypeOf(err) {
	case appErrors.ErrorTypeValidation:
		api.Error(w, http.StatusBadRequest, appErrors.Message(err))
	case appErrors.ErrorTypeNotFound:
		api.Error(w, http.StatusNotFound, appErrors.Message(err))
	case appErrors.ErrorTypeConflict:
		api.Error(w, http.StatusConflict, appErrors.Message(err))
	case appErrors.ErrorTypeUpstream:
		logServerError(r, logger, err)
		api.Error(w, http.StatusBadGateway, appErrors.Message(err))
	default:
		logServerError(r, logger, err)
		api.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

func logServerError(r *http.Request, logger *zap.Logger, err error) {
	logger.Error("Request failed",
		zap.String("request_id", middleware.GetRequestIDFromRequest(r)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("error_type", string(appErrors.TypeOf(err))),
		zap.Error(err),
	)
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, appErrors.NewValidation("Request body too large")
		}
		return nil, appErrors.NewValidation("Failed to read request body")
	}
	return body, nil
}

// decodeJSON decodes a JSON object body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	body, err := readBody(w, r, limit)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return appErrors.NewValidation("Invalid JSON payload")
	}
	return nil
}
