package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"imet-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	t.Run("Should use defaults without files", func(t *testing.T) {
		cfg, err := config.NewLoader(t.TempDir(), config.Development).Load()
		require.NoError(t, err)

		assert.Equal(t, config.Development, cfg.Environment)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "memory", cfg.Database.Provider)
		assert.Equal(t, "UTC", cfg.Nudges.Timezone)
		assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
	})

	t.Run("Should layer base, environment and local files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "base.yaml", "server:\n  port: 9000\nnudges:\n  timezone: America/New_York\n")
		writeFile(t, dir, "development.yaml", "server:\n  port: 9100\n")
		writeFile(t, dir, "local.yaml", "logging:\n  level: debug\n")

		cfg, err := config.NewLoader(dir, config.Development).Load()
		require.NoError(t, err)

		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, "America/New_York", cfg.Nudges.Timezone)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Len(t, cfg.LoadedFrom, 5)
	})

	t.Run("Should ignore local overrides outside development", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "staging.yaml", "database:\n  provider: sqlite\n  sqlite_path: /tmp/imet.db\n")
		writeFile(t, dir, "local.yaml", "server:\n  port: 1234\n")

		cfg, err := config.NewLoader(dir, config.Staging).Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "sqlite", cfg.Database.Provider)
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("Should let environment variables win", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "base.yaml", "server:\n  port: 9000\n")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DATABASE_PROVIDER", "DynamoDB")
		t.Setenv("TABLE_NAME", "test-table")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

		cfg, err := config.NewLoader(dir, config.Development).Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "dynamodb", cfg.Database.Provider)
		assert.Equal(t, "test-table", cfg.Database.TableName)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("Should pick the provider specific API key", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "anthropic")
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
		t.Setenv("OPENAI_API_KEY", "sk-openai")

		cfg, err := config.NewLoader(t.TempDir(), config.Development).Load()
		require.NoError(t, err)
		assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
	})

	t.Run("Should reject unknown keys", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "base.yaml", "server:\n  prot: 9000\n")

		_, err := config.NewLoader(dir, config.Development).Load()
		assert.Error(t, err)
	})

	t.Run("Should reject invalid results", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "base.yaml", "nudges:\n  timezone: Mars/Olympus\n")

		_, err := config.NewLoader(dir, config.Development).Load()
		assert.ErrorContains(t, err, "nudges.timezone")
	})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		env     config.Environment
		wantErr bool
	}{
		{name: "valid development config", mutate: func(*config.Config) {}},
		{name: "port out of range", mutate: func(c *config.Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "unknown database provider", mutate: func(c *config.Config) { c.Database.Provider = "postgres" }, wantErr: true},
		{
			name: "dynamodb without table",
			mutate: func(c *config.Config) {
				c.Database.Provider = "dynamodb"
				c.Database.TableName = ""
			},
			wantErr: true,
		},
		{
			name: "sqlite without path",
			mutate: func(c *config.Config) {
				c.Database.Provider = "sqlite"
				c.Database.SQLitePath = ""
			},
			wantErr: true,
		},
		{name: "unknown llm provider", mutate: func(c *config.Config) { c.LLM.Provider = "llama" }, wantErr: true},
		{name: "temperature too high", mutate: func(c *config.Config) { c.LLM.Temperature = 3 }, wantErr: true},
		{name: "invalid llm base url", mutate: func(c *config.Config) { c.LLM.BaseURL = "not a url" }, wantErr: true},
		{
			name: "eventbridge without bus",
			mutate: func(c *config.Config) {
				c.Events.Provider = "eventbridge"
				c.Events.EventBusName = ""
			},
			wantErr: true,
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *config.Config) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = ""
			},
			wantErr: true,
		},
		{name: "unknown log level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "timezone that does not resolve", mutate: func(c *config.Config) { c.Nudges.Timezone = "Nowhere/City" }, wantErr: true},
		{name: "memory store in production", env: config.Production, mutate: func(*config.Config) {}, wantErr: true},
		{
			name: "dynamodb in production",
			env:  config.Production,
			mutate: func(c *config.Config) {
				c.Database.Provider = "dynamodb"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			if env == "" {
				env = config.Development
			}
			cfg := config.Defaults(env)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNudgesLocation(t *testing.T) {
	assert.Equal(t, "Asia/Tokyo", config.Nudges{Timezone: "Asia/Tokyo"}.Location().String())
	assert.Equal(t, time.UTC, config.Nudges{Timezone: "bogus"}.Location())
}

func TestConfigWatcherReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "logging:\n  level: info\n")
	loader := config.NewLoader(dir, config.Staging)
	initial, err := loader.Load()
	require.NoError(t, err)

	// Staging disables file watching; Reload is still callable directly.
	w, err := config.NewConfigWatcher(initial, loader, dir, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var got []string
	w.OnChange(func(c *config.Config) { got = append(got, c.Logging.Level) })
	w.OnChange(func(*config.Config) { panic("boom") })

	t.Run("Should skip callbacks when nothing changed", func(t *testing.T) {
		w.Reload()
		assert.Empty(t, got)
	})

	t.Run("Should notify callbacks and survive panics", func(t *testing.T) {
		writeFile(t, dir, "base.yaml", "logging:\n  level: warn\n")
		w.Reload()
		assert.Equal(t, []string{"warn"}, got)
		assert.Equal(t, "warn", w.GetConfig().Logging.Level)
	})

	t.Run("Should keep the previous config when the new one is invalid", func(t *testing.T) {
		writeFile(t, dir, "base.yaml", "logging:\n  level: loud\n")
		w.Reload()
		assert.Equal(t, "warn", w.GetConfig().Logging.Level)
	})
}
