// Package config provides typed configuration loaded from defaults, YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config holds all application configuration
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development staging production"`
	Server      Server      `yaml:"server"`
	Database    Database    `yaml:"database"`
	Cache       Cache       `yaml:"cache"`
	LLM         LLM         `yaml:"llm"`
	Nudges      Nudges      `yaml:"nudges"`
	Events      Events      `yaml:"events"`
	Logging     Logging     `yaml:"logging"`
	Metrics     Metrics     `yaml:"metrics"`
	Tracing     Tracing     `yaml:"tracing"`
	CORS        CORS        `yaml:"cors"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-"`
}

// Server configures the HTTP listener.
type Server struct {
	Port            int           `yaml:"port" validate:"required,min=1,max=65535"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"min=0"`
	MaxRequestSize  int64         `yaml:"max_request_size" validate:"min=1024"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Database selects and configures the connection store.
type Database struct {
	Provider       string        `yaml:"provider" validate:"required,oneof=memory sqlite dynamodb"`
	TableName      string        `yaml:"table_name" validate:"required_if=Provider dynamodb"`
	Region         string        `yaml:"region"`
	Endpoint       string        `yaml:"endpoint"`
	SQLitePath     string        `yaml:"sqlite_path" validate:"required_if=Provider sqlite"`
	MaxRetries     int           `yaml:"max_retries" validate:"min=1,max=10"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" validate:"min=0"`
}

// Cache configures the read cache in front of the store.
type Cache struct {
	Enabled  bool          `yaml:"enabled"`
	MaxItems int64         `yaml:"max_items" validate:"min=0"`
	TTL      time.Duration `yaml:"ttl" validate:"min=0"`
}

// LLM configures the summarization capability.
type LLM struct {
	Provider    string        `yaml:"provider" validate:"required,oneof=mock openai anthropic"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
	MaxRetries  int           `yaml:"max_retries" validate:"min=0,max=10"`
	MaxTokens   int           `yaml:"max_tokens" validate:"min=1"`
	Temperature float64       `yaml:"temperature" validate:"min=0,max=2"`
	Breaker     Breaker       `yaml:"breaker"`
}

// Breaker configures the circuit breaker around the summarization call.
type Breaker struct {
	FailureThreshold float64       `yaml:"failure_threshold" validate:"min=0,max=1"`
	MinRequests      uint32        `yaml:"min_requests"`
	OpenTimeout      time.Duration `yaml:"open_timeout" validate:"min=0"`
}

// Nudges configures the rule engine.
type Nudges struct {
	Timezone string `yaml:"timezone" validate:"required"`
}

// Location resolves the configured zone, falling back to UTC.
func (n Nudges) Location() *time.Location {
	loc, err := time.LoadLocation(n.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Events configures connection lifecycle publishing.
type Events struct {
	Provider     string `yaml:"provider" validate:"required,oneof=none log eventbridge"`
	EventBusName string `yaml:"event_bus_name" validate:"required_if=Provider eventbridge"`
	Source       string `yaml:"source"`
}

// Logging configures zap.
type Logging struct {
	Level  string `yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"required,oneof=json console"`
}

// Metrics configures the Prometheus collector.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace" validate:"required"`
	Path      string `yaml:"path" validate:"required,startswith=/"`
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name" validate:"required"`
	Endpoint    string  `yaml:"endpoint" validate:"required_if=Enabled true"`
	SampleRate  float64 `yaml:"sample_rate" validate:"min=0,max=1"`
}

// CORS configures cross-origin access.
type CORS struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age" validate:"min=0"`
}

var validate = validator.New()

// Validate checks struct constraints and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Nudges.Timezone); err != nil {
		return fmt.Errorf("invalid nudges.timezone %q: %w", c.Nudges.Timezone, err)
	}
	if c.IsProduction() && c.Database.Provider == "memory" {
		return fmt.Errorf("database.provider memory is not allowed in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnvironment reads ENVIRONMENT, defaulting to development.
func getEnvironment() Environment {
	switch env := Environment(strings.ToLower(os.Getenv("ENVIRONMENT"))); env {
	case Staging, Production:
		return env
	default:
		return Development
	}
}
