// Package decorators adds cross-cutting behaviour to the connection store without
// changing its interface.
package decorators

import (
	"context"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig controls what information is logged
type LoggingConfig struct {
	LogErrors     bool          // Log failed operations
	LogTiming     bool          // Log operation duration
	SlowThreshold time.Duration // Log warning for operations slower than this
}

// DefaultLoggingConfig returns sensible defaults for logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogErrors:     true,
		LogTiming:     true,
		SlowThreshold: time.Second,
	}
}

// LoggingRepository logs every store call with its duration. Record contents are
// never logged; they carry personal details.
type LoggingRepository struct {
	inner  repository.ConnectionRepository
	logger *zap.Logger
	config LoggingConfig
}

// NewLoggingRepository creates a new logging decorator.
func NewLoggingRepository(inner repository.ConnectionRepository, logger *zap.Logger, config LoggingConfig) *LoggingRepository {
	return &LoggingRepository{
		inner:  inner,
		logger: logger.Named("connection_repository"),
		config: config,
	}
}

func (r *LoggingRepository) log(operation string, start time.Time, err error, fields ...zap.Field) {
	duration := time.Since(start)
	fields = append(fields, zap.String("operation", operation), zap.Duration("duration", duration))

	if err != nil {
		if !r.config.LogErrors {
			return
		}
		// Expected outcomes stay at debug level.
		if repository.IsNotFound(err) || repository.IsConflict(err) {
			r.logger.Debug(operation+" rejected", append(fields, zap.Error(err))...)
			return
		}
		r.logger.Error(operation+" failed", append(fields, zap.Error(err))...)
		return
	}

	level := zapcore.DebugLevel
	message := operation + " completed"
	if r.config.LogTiming && duration > r.config.SlowThreshold {
		level = zapcore.WarnLevel
		message = "slow " + operation + " completed"
	}
	r.logger.Check(level, message).Write(fields...)
}

func (r *LoggingRepository) List(ctx context.Context) ([]domain.Connection, error) {
	start := time.Now()
	conns, err := r.inner.List(ctx)
	r.log("list", start, err, zap.Int("count", len(conns)))
	return conns, err
}

func (r *LoggingRepository) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	start := time.Now()
	conn, err := r.inner.FindByID(ctx, id)
	r.log("find", start, err, zap.String("connectionID", id))
	return conn, err
}

func (r *LoggingRepository) Insert(ctx context.Context, conn domain.Connection) error {
	start := time.Now()
	err := r.inner.Insert(ctx, conn)
	r.log("insert", start, err, zap.String("connectionID", conn.ID))
	return err
}

func (r *LoggingRepository) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	start := time.Now()
	err := r.inner.Save(ctx, conn, expectedVersion)
	r.log("save", start, err,
		zap.String("connectionID", conn.ID),
		zap.Int("expectedVersion", expectedVersion),
	)
	return err
}

func (r *LoggingRepository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := r.inner.Delete(ctx, id)
	r.log("delete", start, err, zap.String("connectionID", id))
	return err
}

// Ping delegates to the inner store when it supports health checks.
func (r *LoggingRepository) Ping(ctx context.Context) error {
	if hc, ok := r.inner.(repository.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

var _ repository.ConnectionRepository = (*LoggingRepository)(nil)
