// Package connection provides the business operations on connection records.
package connection

import (
	"context"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/infrastructure/events"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/repository"
	appErrors "imet-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the connection operations exposed to handlers and tools.
type Service interface {
	// List returns every connection ordered by creation time, then id
	List(ctx context.Context) ([]domain.Connection, error)

	// Get returns one connection
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// Create stores a new connection with a fresh id
	Create(ctx context.Context, fields domain.ConnectionFields) (*domain.Connection, error)

	// Update replaces every field of a connection. A non-nil expectedVersion must match
	// the stored version; otherwise concurrent writers are retried transparently.
	Update(ctx context.Context, id string, fields domain.ConnectionFields, expectedVersion *int) (*domain.Connection, error)

	// Delete removes a connection
	Delete(ctx context.Context, id string) error
}

// RetryConfig bounds the optimistic update loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig retries three times starting at 100ms: 100ms, 200ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond}
}

// service implements the Service interface with concrete business logic.
type service struct {
	repo      repository.ConnectionRepository
	publisher events.Publisher
	metrics   *observability.Collector
	logger    *zap.Logger
	retry     RetryConfig
	clock     func() time.Time
	newID     func() string
}

// Option customises the service.
type Option func(*service)

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *service) { s.clock = clock }
}

// WithIDGenerator sets the id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *service) { s.newID = newID }
}

// WithRetry sets the optimistic retry bounds.
func WithRetry(cfg RetryConfig) Option {
	return func(s *service) {
		if cfg.MaxAttempts > 0 {
			s.retry = cfg
		}
	}
}

// NewService creates a new connection service.
func NewService(
	repo repository.ConnectionRepository,
	publisher events.Publisher,
	metrics *observability.Collector,
	logger *zap.Logger,
	opts ...Option,
) Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		retry:     DefaultRetryConfig(),
		clock:     time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) List(ctx context.Context) ([]domain.Connection, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id string) (*domain.Connection, error) {
	if id == "" {
		return nil, appErrors.NewValidation("Connection ID is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, fields domain.ConnectionFields) (*domain.Connection, error) {
	conn := domain.NewConnection(s.newID(), fields, s.clock().UTC())
	if err := s.repo.Insert(ctx, conn); err != nil {
		return nil, err
	}

	s.metrics.RecordConnection("created")
	s.publish(ctx, domain.EventConnectionCreated, conn.ID, conn.Version)
	s.logger.Info("Connection created", zap.String("connectionID", conn.ID))
	return &conn, nil
}

func (s *service) Update(ctx context.Context, id string, fields domain.ConnectionFields, expectedVersion *int) (*domain.Connection, error) {
	if id == "" {
		return nil, appErrors.NewValidation("Connection ID is required")
	}

	var lastErr error
	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if expectedVersion != nil && current.Version != *expectedVersion {
			return nil, repository.NewConflict(id, "If-Match version is stale")
		}

		next := current.Replace(fields, s.clock().UTC())
		err = s.repo.Save(ctx, next, current.Version)
		if err == nil {
			s.metrics.RecordConnection("updated")
			s.publish(ctx, domain.EventConnectionUpdated, next.ID, next.Version)
			s.logger.Info("Connection updated",
				zap.String("connectionID", id),
				zap.Int("version", next.Version),
			)
			return &next, nil
		}

		// A client-pinned version is final; only unpinned writes are retried.
		if !repository.IsConflict(err) || expectedVersion != nil {
			return nil, err
		}
		lastErr = err
		if attempt == s.retry.MaxAttempts-1 {
			break
		}

		s.metrics.RecordOptimisticRetry()
		delay := s.retry.BaseDelay * time.Duration(1<<attempt) // 100ms, 200ms
		s.logger.Debug("Retrying update after version conflict",
			zap.String("connectionID", id),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	s.logger.Warn("Update abandoned after repeated version conflicts",
		zap.String("connectionID", id),
		zap.Int("attempts", s.retry.MaxAttempts),
	)
	return nil, lastErr
}

func (s *service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.NewValidation("Connection ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.RecordConnection("deleted")
	s.publish(ctx, domain.EventConnectionDeleted, id, 0)
	s.logger.Info("Connection deleted", zap.String("connectionID", id))
	return nil
}

// publish is best-effort: the write is already committed, so failures are only logged.
func (s *service) publish(ctx context.Context, eventType domain.EventType, id string, version int) {
	event := domain.ConnectionEvent{
		EventID:      uuid.NewString(),
		Type:         eventType,
		ConnectionID: id,
		Version:      version,
		OccurredAt:   s.clock().UTC(),
	}
	if err := s.publisher.Publish(ctx, []domain.ConnectionEvent{event}); err != nil {
		s.logger.Warn("Failed to publish connection event",
			zap.String("eventType", string(eventType)),
			zap.String("connectionID", id),
			zap.Error(err),
		)
	}
}
