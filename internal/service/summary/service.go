// Package summary turns free-form descriptions of people into narrative summaries and
// structured connection fields.
package summary

import (
	"context"
	"strings"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/service/llm"
	appErrors "imet-backend/pkg/errors"

	"go.uber.org/zap"
)

// Options tune the completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// DefaultOptions matches the sampling used for summaries.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, MaxTokens: 800}
}

// Result is a generated narrative together with the fields parsed from it.
type Result struct {
	Summary string
	Fields  domain.ConnectionFields
}

// Service wraps the summarization capability.
type Service struct {
	provider llm.Provider
	opts     Options
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewService creates a summary service on top of provider.
func NewService(provider llm.Provider, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, opts: opts, logger: logger}
}

// WithMetrics records summarization outcomes on collector.
func (s *Service) WithMetrics(collector *observability.Collector) *Service {
	s.metrics = collector
	return s
}

// IsAvailable returns true if the summarization capability is configured.
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// Summarize generates a narrative summary of input and parses it into connection fields.
// The caller's original input is kept as rawInput.
func (s *Service) Summarize(ctx context.Context, input string) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, appErrors.NewValidation("No input text provided")
	}
	if !s.IsAvailable() {
		s.metrics.RecordSummary("unavailable", 0)
		return nil, appErrors.NewUpstream("Failed to generate summary", llm.ErrUnavailable)
	}

	ctx, span := observability.StartSpan(ctx, "summary.Summarize")
	defer span.End()

	start := time.Now()
	narrative, err := s.provider.Complete(ctx, llm.BuildSummaryPrompt(input), llm.CompletionOptions{
		System:      llm.SummarySystemPrompt,
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		s.metrics.RecordSummary("error", time.Since(start))
		observability.FailSpan(span, err, "completion failed")
		s.logger.Error("Summarization failed", zap.Error(err))
		return nil, appErrors.NewUpstream("Failed to generate summary", err)
	}
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		s.metrics.RecordSummary("empty", time.Since(start))
		observability.FailSpan(span, nil, "empty completion")
		s.logger.Error("Summarization returned empty output")
		return nil, appErrors.NewUpstream("Failed to generate summary", nil)
	}
	s.metrics.RecordSummary("success", time.Since(start))

	fields := Parse(narrative)
	fields.RawInput = domain.StringPtr(input)

	return &Result{Summary: narrative, Fields: fields}, nil
}
