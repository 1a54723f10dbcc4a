package api

import "imet-backend/internal/domain"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ConnectionResponse wraps a single connection.
type ConnectionResponse struct {
	Message    string             `json:"message,omitempty"`
	Connection *domain.Connection `json:"connection"`
}

// ListConnectionsResponse wraps the full connection list.
type ListConnectionsResponse struct {
	Connections []domain.Connection `json:"connections"`
}

// ListNudgesResponse wraps the ranked nudge list.
type ListNudgesResponse struct {
	Nudges []domain.Nudge `json:"nudges"`
}

// SummarizeRequest is the body of POST /api/summaries. AudioTranscript wins when both are set.
type SummarizeRequest struct {
	Text            string `json:"text" validate:"max=20000"`
	AudioTranscript string `json:"audioTranscript" validate:"max=20000"`
}

// SummarizeResponse returns the narrative and the fields parsed from it.
type SummarizeResponse struct {
	Summary    string                  `json:"summary"`
	Connection domain.ConnectionFields `json:"connection"`
}

// ParseSummaryRequest is the body of POST /api/summaries/parse.
type ParseSummaryRequest struct {
	Summary string `json:"summary" validate:"max=20000"`
}

// ParseSummaryResponse returns parsed fields without storing anything.
type ParseSummaryResponse struct {
	Connection domain.ConnectionFields `json:"connection"`
}

// HealthResponse is the body of the liveness and readiness endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}
