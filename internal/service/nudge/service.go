package nudge

import (
	"context"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/infrastructure/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ConnectionLister supplies the records rules are evaluated against.
type ConnectionLister interface {
	List(ctx context.Context) ([]domain.Connection, error)
}

// SuppressionSet remembers dismissed candidate ids.
type SuppressionSet interface {
	Suppressed(ctx context.Context, id string) bool
	Suppress(ctx context.Context, id string) error
}

// NoopSuppression never hides anything; dismissal is an acknowledgement only.
type NoopSuppression struct{}

func (NoopSuppression) Suppressed(context.Context, string) bool { return false }
func (NoopSuppression) Suppress(context.Context, string) error  { return nil }

// Service lists ranked nudges for the current connection set.
type Service struct {
	lister   ConnectionLister
	rules    []Rule
	location *time.Location
	clock    func() time.Time
	suppress SuppressionSet
	metrics  *observability.Collector
	logger   *zap.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithRules replaces the default catalog.
func WithRules(rules []Rule) Option {
	return func(s *Service) { s.rules = rules }
}

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation sets the zone used for calendar rules.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithSuppression installs a dismissal store.
func WithSuppression(set SuppressionSet) Option {
	return func(s *Service) {
		if set != nil {
			s.suppress = set
		}
	}
}

// WithMetrics records generated nudges on collector.
func WithMetrics(collector *observability.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

// NewService creates a nudge service over lister.
func NewService(lister ConnectionLister, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		lister:   lister,
		rules:    DefaultRules(),
		location: time.UTC,
		clock:    time.Now,
		suppress: NoopSuppression{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List evaluates every rule at the current instant and returns the ranked nudges.
func (s *Service) List(ctx context.Context) ([]domain.Nudge, error) {
	ctx, span := observability.StartSpan(ctx, "nudge.List")
	defer span.End()

	conns, err := s.lister.List(ctx)
	if err != nil {
		observability.FailSpan(span, err, "list connections")
		return nil, err
	}

	now := s.clock().In(s.location)
	candidates := Evaluate(s.rules, conns, now)

	visible := candidates[:0:0]
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			s.logger.Warn("Dropping malformed nudge", zap.Error(err))
			continue
		}
		if s.suppress.Suppressed(ctx, c.ID) {
			continue
		}
		visible = append(visible, c)
	}
	ranked := Rank(visible)

	for _, n := range ranked {
		s.metrics.RecordNudge(string(n.Type))
	}
	span.SetAttributes(
		attribute.Int("connections.count", len(conns)),
		attribute.Int("nudges.candidates", len(candidates)),
		attribute.Int("nudges.returned", len(ranked)),
	)
	s.logger.Debug("Nudges evaluated",
		zap.Int("connections", len(conns)),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(ranked)),
	)
	return ranked, nil
}

// Dismiss acknowledges a nudge. An empty id dismisses nothing in particular.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.suppress.Suppress(ctx, id); err != nil {
		s.logger.Warn("Failed to record dismissal", zap.String("nudgeID", id), zap.Error(err))
		return err
	}
	return nil
}
