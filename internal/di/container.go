package di

import (
	"context"
	"time"

	"imet-backend/internal/config"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/repository"
	"imet-backend/internal/service/capture"
	"imet-backend/internal/service/connection"
	"imet-backend/internal/service/nudge"
	"imet-backend/internal/service/summary"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Container holds the assembled application.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Router      *chi.Mux
	Repository  repository.ConnectionRepository
	Connections connection.Service
	Summaries   *summary.Service
	Capture     *capture.Service
	Nudges      *nudge.Service
	Metrics     *observability.Collector
	Tracing     *observability.TracerProvider
	Watcher     *config.ConfigWatcher
	ColdStart   *ColdStartTracker
}

func provideContainer(
	cfg *config.Config,
	logger *zap.Logger,
	router *chi.Mux,
	repo repository.ConnectionRepository,
	connections connection.Service,
	summaries *summary.Service,
	captureSvc *capture.Service,
	nudges *nudge.Service,
	metrics *observability.Collector,
	tracing *observability.TracerProvider,
	watcher *config.ConfigWatcher,
	coldStart *ColdStartTracker,
) *Container {
	return &Container{
		Config:      cfg,
		Logger:      logger,
		Router:      router,
		Repository:  repo,
		Connections: connections,
		Summaries:   summaries,
		Capture:     captureSvc,
		Nudges:      nudges,
		Metrics:     metrics,
		Tracing:     tracing,
		Watcher:     watcher,
		ColdStart:   coldStart,
	}
}

// Health pings the store.
func (c *Container) Health(ctx context.Context) error {
	if hc := healthChecker(c.Repository); hc != nil {
		return hc.Ping(ctx)
	}
	return nil
}

// ColdStartTracker records when the process started so the first invocation can
// be told apart from warm ones.
type ColdStartTracker struct {
	startedAt time.Time
	served    bool
}

// ProvideColdStartTracker creates a cold start tracker for Wire.
func ProvideColdStartTracker() *ColdStartTracker {
	return &ColdStartTracker{startedAt: time.Now()}
}

// Observe reports whether this is the first request and how long ago the process
// started. Not safe for concurrent use; Lambda serves one request at a time.
func (t *ColdStartTracker) Observe() (cold bool, sinceStart time.Duration) {
	cold = !t.served
	t.served = true
	return cold, time.Since(t.startedAt)
}
