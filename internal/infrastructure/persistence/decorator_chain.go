// Package persistence applies cross-cutting decorators to the connection store.
package persistence

import (
	"imet-backend/internal/config"
	"imet-backend/internal/infrastructure/decorators"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/infrastructure/persistence/cache"
	"imet-backend/internal/repository"

	"go.uber.org/zap"
)

// DecoratorChain builds a chain of decorators for repositories.
type DecoratorChain struct {
	config  *config.Config
	logger  *zap.Logger
	metrics *observability.Collector
	closers []func()
}

// NewDecoratorChain creates a new decorator chain builder. metrics may be nil.
func NewDecoratorChain(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *DecoratorChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecoratorChain{config: cfg, logger: logger, metrics: metrics}
}

// Decorate applies all configured decorators to base.
// Order: Base -> Cache -> Metrics -> Logging
func (dc *DecoratorChain) Decorate(base repository.ConnectionRepository) (repository.ConnectionRepository, error) {
	decorated := base

	if dc.config.Cache.Enabled {
		cfg := cache.DefaultCachingConfig()
		if dc.config.Cache.TTL > 0 {
			cfg.TTL = dc.config.Cache.TTL
		}
		if dc.config.Cache.MaxItems > 0 {
			cfg.MaxItems = dc.config.Cache.MaxItems
		}
		cached, err := cache.NewCachingRepository(decorated, cfg, dc.metrics)
		if err != nil {
			return nil, err
		}
		dc.closers = append(dc.closers, cached.Close)
		decorated = cached
		dc.logger.Debug("Applied caching decorator to ConnectionRepository")
	}

	if dc.config.Metrics.Enabled && dc.metrics != nil {
		decorated = observability.NewMetricsRepository(decorated, dc.metrics, dc.config.Database.Provider)
		dc.logger.Debug("Applied metrics decorator to ConnectionRepository")
	}

	// Logging is outermost so it sees cache hits too.
	decorated = decorators.NewLoggingRepository(decorated, dc.logger, decorators.DefaultLoggingConfig())
	dc.logger.Debug("Applied logging decorator to ConnectionRepository")

	return decorated, nil
}

// Close releases resources held by the decorators.
func (dc *DecoratorChain) Close() {
	for _, c := range dc.closers {
		c()
	}
	dc.closers = nil
}
