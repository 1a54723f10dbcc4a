package observability

import (
	"context"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MetricsRepository is a decorator that records latency, outcome and a trace span for
// every store call.
type MetricsRepository struct {
	inner   repository.ConnectionRepository
	metrics *Collector
	backend string
	tracer  trace.Tracer
}

// NewMetricsRepository wraps inner. backend labels the metrics ("memory", "sqlite",
// "dynamodb").
func NewMetricsRepository(inner repository.ConnectionRepository, metrics *Collector, backend string) *MetricsRepository {
	return &MetricsRepository{
		inner:   inner,
		metrics: metrics,
		backend: backend,
		tracer:  Tracer(),
	}
}

func (r *MetricsRepository) observe(ctx context.Context, operation, id string, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "repository."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", r.backend),
			attribute.String("db.operation", operation),
		),
	)
	defer span.End()
	if id != "" {
		span.SetAttributes(attribute.String("connection.id", id))
	}

	start := time.Now()
	err := fn(ctx)
	r.metrics.RecordDBOperation(operation, r.backend, err, time.Since(start))

	// A missing record or a lost version check is an expected outcome, not a fault.
	if err != nil && !repository.IsNotFound(err) && !repository.IsConflict(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *MetricsRepository) List(ctx context.Context) ([]domain.Connection, error) {
	var out []domain.Connection
	err := r.observe(ctx, "list", "", func(ctx context.Context) error {
		var err error
		out, err = r.inner.List(ctx)
		return err
	})
	return out, err
}

func (r *MetricsRepository) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	var out *domain.Connection
	err := r.observe(ctx, "get", id, func(ctx context.Context) error {
		var err error
		out, err = r.inner.FindByID(ctx, id)
		return err
	})
	return out, err
}

func (r *MetricsRepository) Insert(ctx context.Context, conn domain.Connection) error {
	return r.observe(ctx, "insert", conn.ID, func(ctx context.Context) error {
		return r.inner.Insert(ctx, conn)
	})
}

func (r *MetricsRepository) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	return r.observe(ctx, "save", conn.ID, func(ctx context.Context) error {
		return r.inner.Save(ctx, conn, expectedVersion)
	})
}

func (r *MetricsRepository) Delete(ctx context.Context, id string) error {
	return r.observe(ctx, "delete", id, func(ctx context.Context) error {
		return r.inner.Delete(ctx, id)
	})
}

// Ping delegates to the inner store when it supports health checks.
func (r *MetricsRepository) Ping(ctx context.Context) error {
	if hc, ok := r.inner.(repository.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

var _ repository.ConnectionRepository = (*MetricsRepository)(nil)
