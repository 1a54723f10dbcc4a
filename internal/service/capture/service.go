// Package capture runs the full intake flow: free-form description, generated summary,
// parsed fields, stored connection.
package capture

import (
	"context"

	"imet-backend/internal/domain"
	"imet-backend/internal/service/connection"
	"imet-backend/internal/service/summary"

	"go.uber.org/zap"
)

// Summarizer produces a narrative and parsed fields from a description.
type Summarizer interface {
	Summarize(ctx context.Context, input string) (*summary.Result, error)
}

// Result is the stored connection and the narrative it was built from.
type Result struct {
	Summary    string
	Connection *domain.Connection
}

// Service chains summarization and connection creation.
type Service struct {
	summarizer  Summarizer
	connections connection.Service
	logger      *zap.Logger
}

// NewService creates a capture service.
func NewService(summarizer Summarizer, connections connection.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{summarizer: summarizer, connections: connections, logger: logger}
}

// Capture summarizes input, optionally overrides parsed fields, and stores the result.
// Nothing is stored when summarization fails.
func (s *Service) Capture(ctx context.Context, input string, overrides func(*domain.ConnectionFields)) (*Result, error) {
	res, err := s.summarizer.Summarize(ctx, input)
	if err != nil {
		return nil, err
	}

	fields := res.Fields
	if overrides != nil {
		overrides(&fields)
	}

	conn, err := s.connections.Create(ctx, fields)
	if err != nil {
		s.logger.Error("Failed to store captured connection", zap.Error(err))
		return nil, err
	}
	return &Result{Summary: res.Summary, Connection: conn}, nil
}
