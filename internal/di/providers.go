// Package di assembles the application from configuration.
package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"imet-backend/internal/config"
	"imet-backend/internal/handlers"
	"imet-backend/internal/infrastructure/events"
	"imet-backend/internal/infrastructure/observability"
	"imet-backend/internal/infrastructure/persistence"
	"imet-backend/internal/repository"
	"imet-backend/internal/repository/ddb"
	"imet-backend/internal/repository/memory"
	"imet-backend/internal/repository/sqlite"
	"imet-backend/internal/service/capture"
	"imet-backend/internal/service/connection"
	"imet-backend/internal/service/llm"
	"imet-backend/internal/service/nudge"
	"imet-backend/internal/service/summary"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	awsDynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsEventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Store is the undecorated connection store selected by configuration.
type Store struct {
	repository.ConnectionRepository
	Backend string
}

// ============================================================================
// CONFIGURATION PROVIDERS
// ============================================================================

func provideConfig() (*config.Config, error) {
	return config.Load()
}

// provideLogLevel holds the level separately so a config reload can change it.
func provideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level: %w", err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// provideLogger creates a structured logger appropriate for the environment.
// Production uses JSON output, development uses console output.
func provideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level
	zcfg.Encoding = cfg.Logging.Format

	logger, err := zcfg.Build(zap.Fields(zap.String("environment", string(cfg.Environment))))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// provideConfigWatcher applies log level changes from config files in development.
func provideConfigWatcher(cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) (*config.ConfigWatcher, func(), error) {
	dir := config.ConfigDir()
	watcher, err := config.NewConfigWatcher(cfg, config.NewLoader(dir, cfg.Environment), dir, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(next *config.Config) {
		if l, err := zapcore.ParseLevel(next.Logging.Level); err == nil {
			level.SetLevel(l)
		}
	})
	return watcher, watcher.Stop, nil
}

// ============================================================================
// OBSERVABILITY PROVIDERS
// ============================================================================

// provideMetrics returns nil when metrics are disabled; every consumer accepts nil.
func provideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewCollector(cfg.Metrics.Namespace)
}

func provideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.Tracing.Enabled {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ============================================================================
// INFRASTRUCTURE PROVIDERS
// ============================================================================

// provideAWSConfig loads the default credential chain. Nothing is contacted until a
// client is used.
func provideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	awsCfg, err := awsConfig.LoadDefaultConfig(loadCtx,
		awsConfig.WithRegion(cfg.Database.Region),
		awsConfig.WithRetryMaxAttempts(cfg.Database.MaxRetries),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func provideStore(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) (Store, func(), error) {
	switch cfg.Database.Provider {
	case "dynamodb":
		client := awsDynamodb.NewFromConfig(awsCfg, func(o *awsDynamodb.Options) {
			if cfg.Database.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Database.Endpoint)
			}
		})
		logger.Info("Using DynamoDB connection store", zap.String("table", cfg.Database.TableName))
		return Store{ddb.NewStore(client, cfg.Database.TableName, logger), "dynamodb"}, func() {}, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return Store{}, nil, err
		}
		logger.Info("Using SQLite connection store", zap.String("path", cfg.Database.SQLitePath))
		return Store{store, "sqlite"}, func() { _ = store.Close() }, nil
	default:
		logger.Info("Using in-memory connection store")
		return Store{memory.NewStore(), "memory"}, func() {}, nil
	}
}

// provideRepository decorates the store with cache, metrics and logging.
func provideRepository(store Store, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) (repository.ConnectionRepository, func(), error) {
	chain := persistence.NewDecoratorChain(cfg, logger, metrics)
	repo, err := chain.Decorate(store.ConnectionRepository)
	if err != nil {
		return nil, nil, err
	}
	return repo, chain.Close, nil
}

func providePublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) events.Publisher {
	switch cfg.Events.Provider {
	case "eventbridge":
		return events.NewEventBridgePublisher(awsEventbridge.NewFromConfig(awsCfg), cfg.Events.EventBusName, cfg.Events.Source)
	case "log":
		return events.NewLogPublisher(logger)
	default:
		return events.NoopPublisher{}
	}
}

// provideLLMProvider builds the configured provider wrapped in timeout, retry and a
// circuit breaker. The mock provider is used as is.
func provideLLMProvider(cfg *config.Config, logger *zap.Logger) llm.Provider {
	var inner llm.Provider
	switch cfg.LLM.Provider {
	case "openai":
		baseURL := cfg.LLM.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		model := cfg.LLM.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		inner = llm.NewOpenAIProvider(baseURL, cfg.LLM.APIKey, model, &http.Client{})
	case "anthropic":
		model := cfg.LLM.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		var opts []option.RequestOption
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
		}
		inner = llm.NewAnthropicProvider(cfg.LLM.APIKey, model, opts...)
	default:
		logger.Warn("Using mock summarization provider")
		return llm.NewMockProvider()
	}

	if !inner.IsAvailable() {
		logger.Warn("Summarization provider is not configured, summaries will fail",
			zap.String("provider", cfg.LLM.Provider),
		)
	}

	rc := llm.DefaultResilienceConfig()
	rc.Timeout = cfg.LLM.Timeout
	rc.MaxRetries = cfg.LLM.MaxRetries
	if cfg.LLM.Breaker.FailureThreshold > 0 {
		rc.FailureThreshold = cfg.LLM.Breaker.FailureThreshold
	}
	if cfg.LLM.Breaker.MinRequests > 0 {
		rc.MinRequests = cfg.LLM.Breaker.MinRequests
	}
	if cfg.LLM.Breaker.OpenTimeout > 0 {
		rc.OpenTimeout = cfg.LLM.Breaker.OpenTimeout
	}
	return llm.NewResilientProvider(inner, rc, logger)
}

// ============================================================================
// SERVICE PROVIDERS
// ============================================================================

func provideConnectionService(
	cfg *config.Config,
	repo repository.ConnectionRepository,
	publisher events.Publisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) connection.Service {
	return connection.NewService(repo, publisher, metrics, logger,
		connection.WithRetry(connection.RetryConfig{
			MaxAttempts: cfg.Database.MaxRetries,
			BaseDelay:   cfg.Database.RetryBaseDelay,
		}),
	)
}

func provideSummaryService(cfg *config.Config, provider llm.Provider, metrics *observability.Collector, logger *zap.Logger) *summary.Service {
	return summary.NewService(provider, summary.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger).WithMetrics(metrics)
}

func provideCaptureService(summaries *summary.Service, connections connection.Service, logger *zap.Logger) *capture.Service {
	return capture.NewService(summaries, connections, logger)
}

func provideNudgeService(cfg *config.Config, connections connection.Service, metrics *observability.Collector, logger *zap.Logger) *nudge.Service {
	return nudge.NewService(connections, logger,
		nudge.WithLocation(cfg.Nudges.Location()),
		nudge.WithMetrics(metrics),
	)
}

// ============================================================================
// INTERFACE PROVIDERS
// ============================================================================

func provideHandlers(
	cfg *config.Config,
	connections connection.Service,
	summaries *summary.Service,
	nudges *nudge.Service,
	repo repository.ConnectionRepository,
	provider llm.Provider,
	logger *zap.Logger,
) handlers.Handlers {
	return handlers.Handlers{
		Connections: handlers.NewConnectionHandler(connections, logger, cfg.Server.MaxRequestSize),
		Nudges:      handlers.NewNudgeHandler(nudges, logger),
		Summaries:   handlers.NewSummaryHandler(summaries, logger, cfg.Server.MaxRequestSize),
		Health:      handlers.NewHealthHandler(healthChecker(repo), logger).WithBreaker("llm", breakerOf(provider)),
	}
}

// breakerOf returns nil for providers without a circuit breaker, such as the mock.
func breakerOf(provider llm.Provider) handlers.BreakerReporter {
	if b, ok := provider.(handlers.BreakerReporter); ok {
		return b
	}
	return nil
}

func healthChecker(repo repository.ConnectionRepository) repository.HealthChecker {
	if hc, ok := repo.(repository.HealthChecker); ok {
		return hc
	}
	return nil
}

func provideRouter(cfg *config.Config, h handlers.Handlers, metrics *observability.Collector, logger *zap.Logger) *chi.Mux {
	rc := handlers.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		ServiceName:    cfg.Tracing.ServiceName,
		EnableTracing:  cfg.Tracing.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}
	if cfg.CORS.Enabled {
		rc.CORS = &cors.Options{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
			ExposedHeaders: []string{"ETag", "X-Request-ID"},
			MaxAge:         cfg.CORS.MaxAge,
		}
	}
	return handlers.NewRouter(h, rc, metrics, logger)
}
