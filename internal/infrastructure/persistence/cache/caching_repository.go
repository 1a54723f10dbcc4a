// Package cache provides a read-through caching decorator for the connection store.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/repository"

	"github.com/dgraph-io/ristretto"
)

// CachingConfig controls caching behavior
type CachingConfig struct {
	TTL         time.Duration // Lifetime of a cached record
	MaxItems    int64         // Maximum number of cached records
	BufferItems int64         // Ristretto Get buffer size
	KeyPrefix   string        // Prefix for all cache keys
}

// DefaultCachingConfig returns defaults sized for a personal connection list.
func DefaultCachingConfig() CachingConfig {
	return CachingConfig{
		TTL:         5 * time.Minute,
		MaxItems:    10000,
		BufferItems: 64,
		KeyPrefix:   "imet:connection:",
	}
}

// CachingRepository caches FindByID results in ristretto and invalidates on every write
// that touches the record. List always goes to the inner store because its order
// depends on the full set.
//
// Writes bump a generation counter. A miss only fills the cache when no write landed
// while it was reading the inner store, so a slow read never re-caches a replaced record.
type CachingRepository struct {
	inner   repository.ConnectionRepository
	cache   *ristretto.Cache
	config  CachingConfig
	metrics *observability.Collector

	mu         sync.Mutex
	generation uint64
}

// NewCachingRepository wraps inner with a ristretto cache.
func NewCachingRepository(
	inner repository.ConnectionRepository,
	config CachingConfig,
	metrics *observability.Collector,
) (*CachingRepository, error) {
	if config.MaxItems <= 0 {
		config.MaxItems = DefaultCachingConfig().MaxItems
	}
	if config.BufferItems <= 0 {
		config.BufferItems = DefaultCachingConfig().BufferItems
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.MaxItems * 10,
		MaxCost:     config.MaxItems,
		BufferItems: config.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &CachingRepository{
		inner:   inner,
		cache:   c,
		config:  config,
		metrics: metrics,
	}, nil
}

func (r *CachingRepository) key(id string) string {
	return r.config.KeyPrefix + id
}

func (r *CachingRepository) List(ctx context.Context) ([]domain.Connection, error) {
	return r.inner.List(ctx)
}

// FindByID serves from cache when possible. Callers always receive their own copy.
func (r *CachingRepository) FindByID(ctx context.Context, id string) (*domain.Connection, error) {
	if v, ok := r.cache.Get(r.key(id)); ok {
		if conn, ok := v.(domain.Connection); ok {
			r.metrics.RecordCache(true)
			out := conn.Clone()
			return &out, nil
		}
	}
	r.metrics.RecordCache(false)

	r.mu.Lock()
	gen := r.generation
	r.mu.Unlock()

	conn, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation == gen {
		r.cache.SetWithTTL(r.key(id), conn.Clone(), 1, r.config.TTL)
		r.cache.Wait()
	}
	return conn, nil
}

func (r *CachingRepository) Insert(ctx context.Context, conn domain.Connection) error {
	return r.inner.Insert(ctx, conn)
}

// Save invalidates the cached record whatever the outcome; a conflict means the cached
// copy is already stale.
func (r *CachingRepository) Save(ctx context.Context, conn domain.Connection, expectedVersion int) error {
	err := r.inner.Save(ctx, conn, expectedVersion)
	r.invalidate(conn.ID)
	return err
}

func (r *CachingRepository) Delete(ctx context.Context, id string) error {
	err := r.inner.Delete(ctx, id)
	r.invalidate(id)
	return err
}

// Ping delegates to the inner store when it supports health checks.
func (r *CachingRepository) Ping(ctx context.Context) error {
	if hc, ok := r.inner.(repository.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

// Close releases the cache's background goroutines.
func (r *CachingRepository) Close() {
	r.cache.Close()
}

func (r *CachingRepository) invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.cache.Del(r.key(id))
	r.cache.Wait()
}

var _ repository.ConnectionRepository = (*CachingRepository)(nil)
