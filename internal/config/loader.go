package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources.
type Loader struct {
	// basePath is the root directory for configuration files
	basePath string

	environment Environment

	// sources tracks where configuration was loaded from
	sources []string

	// fileLoaders are tried in registration order
	fileLoaders []FileLoader
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a new configuration loader.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	loader := &Loader{
		basePath:    basePath,
		environment: env,
	}
	loader.RegisterLoader(&YAMLLoader{})
	loader.RegisterLoader(&JSONLoader{})

	return loader
}

// RegisterLoader registers a new file loader for a specific format.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders = append(l.fileLoaders, loader)
}

// Load loads configuration using a hierarchy of sources.
// The loading order (from lowest to highest priority):
//  1. Default values (in code)
//  2. Base configuration file (base.yaml)
//  3. Environment-specific file (e.g., production.yaml)
//  4. Local overrides file (local.yaml, development only)
//  5. Environment variables
func (l *Loader) Load() (*Config, error) {
	l.sources = nil

	cfg := defaultConfig(l.environment)
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	// Files may not change the environment the loader was created for.
	cfg.Environment = l.environment
	cfg.LoadedFrom = l.sources
	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile loads <name>.<ext> for the first registered extension that exists.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, fmt.Sprintf("%s.%s", name, loader.Extension()))

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}

	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func loadEnvironmentVariables(cfg *Config) {
	// Server
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("PORT"); val != "" && os.Getenv("SERVER_PORT") == "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}

	// Database
	if val := os.Getenv("DATABASE_PROVIDER"); val != "" {
		cfg.Database.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("TABLE_NAME"); val != "" {
		cfg.Database.TableName = val
	}
	if val := os.Getenv("AWS_REGION"); val != "" {
		cfg.Database.Region = val
	}
	if val := os.Getenv("DYNAMODB_ENDPOINT"); val != "" {
		cfg.Database.Endpoint = val
	}
	if val := os.Getenv("SQLITE_PATH"); val != "" {
		cfg.Database.SQLitePath = val
	}

	// Cache
	if val := os.Getenv("ENABLE_CACHING"); val != "" {
		cfg.Cache.Enabled = parseBool(val)
	}
	if val := os.Getenv("CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.TTL = d
		}
	}

	// LLM
	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		cfg.LLM.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		cfg.LLM.Model = val
	}
	if val := os.Getenv("LLM_BASE_URL"); val != "" {
		cfg.LLM.BaseURL = val
	}
	if val := os.Getenv("LLM_API_KEY"); val != "" {
		cfg.LLM.APIKey = val
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	// Nudges
	if val := os.Getenv("NUDGE_TIMEZONE"); val != "" {
		cfg.Nudges.Timezone = val
	}

	// Events
	if val := os.Getenv("EVENTS_PROVIDER"); val != "" {
		cfg.Events.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("EVENT_BUS_NAME"); val != "" {
		cfg.Events.EventBusName = val
	}

	// Observability
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = strings.ToLower(val)
	}
	if val := os.Getenv("ENABLE_METRICS"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := os.Getenv("ENABLE_TRACING"); val != "" {
		cfg.Tracing.Enabled = parseBool(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}

	// CORS
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.CORS.AllowedOrigins = splitList(val)
	}
}

// Defaults returns the in-code defaults for env.
func Defaults(env Environment) *Config {
	cfg := defaultConfig(env)
	cfg.applyEnvironmentDefaults()
	return cfg
}

func defaultConfig(env Environment) *Config {
	return &Config{
		Environment: env,
		Server: Server{
			Port:            8080,
			Host:            "",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxRequestSize:  1 << 20,
		},
		Database: Database{
			Provider:       "memory",
			TableName:      "imet-connections",
			Region:         "us-east-1",
			SQLitePath:     "imet.db",
			MaxRetries:     3,
			RetryBaseDelay: 100 * time.Millisecond,
		},
		Cache: Cache{
			Enabled:  true,
			MaxItems: 10000,
			TTL:      5 * time.Minute,
		},
		LLM: LLM{
			Provider:    "mock",
			Timeout:     30 * time.Second,
			MaxRetries:  2,
			MaxTokens:   800,
			Temperature: 0.7,
			Breaker: Breaker{
				FailureThreshold: 0.6,
				MinRequests:      3,
				OpenTimeout:      30 * time.Second,
			},
		},
		Nudges: Nudges{Timezone: "UTC"},
		Events: Events{
			Provider: "log",
			Source:   "imet-backend",
		},
		Logging: Logging{Level: "info", Format: "json"},
		Metrics: Metrics{Enabled: true, Namespace: "imet", Path: "/metrics"},
		Tracing: Tracing{
			ServiceName: "imet-backend",
			Endpoint:    "localhost:4317",
			SampleRate:  1.0,
		},
		CORS: CORS{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "If-Match", "X-Request-ID"},
			MaxAge:         300,
		},
	}
}

// applyEnvironmentDefaults tightens settings outside development.
func (c *Config) applyEnvironmentDefaults() {
	switch c.Environment {
	case Development:
		if c.Logging.Format == "" {
			c.Logging.Format = "console"
		}
	case Staging, Production:
		c.Logging.Format = "json"
		if c.Logging.Level == "debug" {
			c.Logging.Level = "info"
		}
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func parseInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load builds configuration for the environment named by ENVIRONMENT from CONFIG_DIR.
func Load() (*Config, error) {
	return NewLoader(ConfigDir(), getEnvironment()).Load()
}

// MustLoad is Load that panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ConfigDir is the directory configuration files are read from.
func ConfigDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
