package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"imet-backend/internal/service/connection"
	"imet-backend/pkg/api"
	appErrors "imet-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ConnectionHandler serves the connection CRUD routes.
type ConnectionHandler struct {
	svc         connection.Service
	logger      *zap.Logger
	maxBodySize int64
}

// NewConnectionHandler creates a new connection handler.
func NewConnectionHandler(svc connection.Service, logger *zap.Logger, maxBodySize int64) *ConnectionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionHandler{svc: svc, logger: logger, maxBodySize: maxBodySize}
}

// List handles GET /api/connections.
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	conns, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.ListConnectionsResponse{Connections: conns})
}

// Get handles GET /api/connections/{id}.
func (h *ConnectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	conn, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("ETag", etag(conn.Version))
	api.Success(w, http.StatusOK, api.ConnectionResponse{Connection: conn})
}

// Create handles POST /api/connections.
func (h *ConnectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.maxBodySize)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	fields, err := connection.DecodeFields(body)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	conn, err := h.svc.Create(r.Context(), fields)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("ETag", etag(conn.Version))
	api.Success(w, http.StatusCreated, api.ConnectionResponse{
		Message:    "Connection created successfully",
		Connection: conn,
	})
}

// Update handles PUT /api/connections/{id}. An If-Match header pins the expected version.
func (h *ConnectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	body, err := readBody(w, r, h.maxBodySize)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	fields, err := connection.DecodeFields(body)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	conn, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), fields, expected)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("ETag", etag(conn.Version))
	api.Success(w, http.StatusOK, api.ConnectionResponse{
		Message:    "Connection updated successfully",
		Connection: conn,
	})
}

// Delete handles DELETE /api/connections/{id}.
func (h *ConnectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, api.MessageResponse{Message: "Connection deleted successfully"})
}

func etag(version int) string {
	return strconv.Quote(strconv.Itoa(version))
}

// parseIfMatch accepts "3", "\"3\"" and W/"3". An empty header or "*" pins nothing.
func parseIfMatch(header string) (*int, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return nil, nil
	}
	header = strings.TrimPrefix(header, "W/")
	header = strings.Trim(header, `"`)
	version, err := strconv.Atoi(header)
	if err != nil || version < 1 {
		return nil, appErrors.NewValidation("Invalid If-Match header")
	}
	return &version, nil
}
