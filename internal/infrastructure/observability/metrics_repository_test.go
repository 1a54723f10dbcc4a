package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"imet-backend/internal/domain"
	"imet-backend/internal/repository/mocks"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRepository(t *testing.T) {
	ctx := context.Background()
	collector := NewCollector("test")
	inner := mocks.NewMockRepository()
	repo := NewMetricsRepository(inner, collector, "memory")

	conn := domain.NewConnection("c1", domain.ConnectionFields{}, time.Now())
	require.NoError(t, repo.Insert(ctx, conn))
	_, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	_, err = repo.FindByID(ctx, "missing")
	require.Error(t, err)

	inner.SetError("List", errors.New("boom"))
	_, err = repo.List(ctx)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DBOperations.WithLabelValues("insert", "memory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DBOperations.WithLabelValues("get", "memory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DBOperations.WithLabelValues("get", "memory", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.DBOperations.WithLabelValues("list", "memory", "error")))
}

func TestCollectorMethodsAreNilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordConnection("created")
		c.RecordNudge("followup")
		c.RecordSummary("success", time.Second)
		c.RecordDBOperation("get", "memory", nil, time.Millisecond)
		c.RecordOptimisticRetry()
		c.RecordCache(true)
	})
}
