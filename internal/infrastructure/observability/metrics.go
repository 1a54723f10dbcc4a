package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Every method is safe to
// call on a nil Collector so metrics can be switched off by configuration.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	ConnectionsCreated prometheus.Counter
	ConnectionsUpdated prometheus.Counter
	ConnectionsDeleted prometheus.Counter
	NudgesGenerated    *prometheus.CounterVec
	Summaries          *prometheus.CounterVec
	SummaryDuration    prometheus.Histogram

	// Repository metrics
	DBOperations      *prometheus.CounterVec
	DBDuration        *prometheus.HistogramVec
	OptimisticRetries prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ConnectionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_created_total",
			Help:      "Total number of connections created",
		}),
		ConnectionsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_updated_total",
			Help:      "Total number of connections updated",
		}),
		ConnectionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_deleted_total",
			Help:      "Total number of connections deleted",
		}),
		NudgesGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nudges_generated_total",
				Help:      "Total number of ranked nudges returned, by type",
			},
			[]string{"type"},
		),
		Summaries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "summaries_total",
				Help:      "Total number of summarization calls, by outcome",
			},
			[]string{"status"},
		),
		SummaryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "Summarization latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		DBOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_operations_total",
				Help:      "Total number of database operations",
			},
			[]string{"operation", "backend", "status"},
		),
		DBDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_operation_duration_seconds",
				Help:      "Database operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		OptimisticRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimistic_lock_retries_total",
			Help:      "Total number of update retries caused by version conflicts",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ConnectionsCreated,
		c.ConnectionsUpdated,
		c.ConnectionsDeleted,
		c.NudgesGenerated,
		c.Summaries,
		c.SummaryDuration,
		c.DBOperations,
		c.DBDuration,
		c.OptimisticRetries,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordConnection counts a connection lifecycle change: "created", "updated" or "deleted".
func (c *Collector) RecordConnection(change string) {
	if c == nil {
		return
	}
	switch change {
	case "created":
		c.ConnectionsCreated.Inc()
	case "updated":
		c.ConnectionsUpdated.Inc()
	case "deleted":
		c.ConnectionsDeleted.Inc()
	}
}

// RecordNudge counts a nudge returned to a client.
func (c *Collector) RecordNudge(nudgeType string) {
	if c == nil {
		return
	}
	c.NudgesGenerated.WithLabelValues(nudgeType).Inc()
}

// RecordSummary records a summarization outcome and its latency.
func (c *Collector) RecordSummary(status string, d time.Duration) {
	if c == nil {
		return
	}
	c.Summaries.WithLabelValues(status).Inc()
	c.SummaryDuration.Observe(d.Seconds())
}

// RecordDBOperation records one store call.
func (c *Collector) RecordDBOperation(operation, backend string, err error, d time.Duration) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.DBOperations.WithLabelValues(operation, backend, status).Inc()
	c.DBDuration.WithLabelValues(operation, backend).Observe(d.Seconds())
}

// RecordOptimisticRetry counts an update retried after a version conflict.
func (c *Collector) RecordOptimisticRetry() {
	if c == nil {
		return
	}
	c.OptimisticRetries.Inc()
}

// RecordCache counts a cache lookup.
func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
	} else {
		c.CacheMisses.Inc()
	}
}
