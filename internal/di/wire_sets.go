package di

import "github.com/google/wire"

// SuperSet combines all provider sets for the complete application.
var SuperSet = wire.NewSet(
	ConfigProviders,
	ObservabilityProviders,
	InfrastructureProviders,
	ServiceProviders,
	InterfaceProviders,
	provideContainer,
)

// ConfigProviders provide configuration and logging.
var ConfigProviders = wire.NewSet(
	provideConfig,
	provideLogLevel,
	provideLogger,
	provideConfigWatcher,
)

var ObservabilityProviders = wire.NewSet(
	provideMetrics,
	provideTracing,
	ProvideColdStartTracker,
)

// InfrastructureProviders provide storage, events and the summarization backend.
var InfrastructureProviders = wire.NewSet(
	provideAWSConfig,
	provideStore,
	provideRepository,
	providePublisher,
	provideLLMProvider,
)

var ServiceProviders = wire.NewSet(
	provideConnectionService,
	provideSummaryService,
	provideCaptureService,
	provideNudgeService,
)

// InterfaceProviders adapt the services to HTTP.
var InterfaceProviders = wire.NewSet(
	provideHandlers,
	provideRouter,
)
