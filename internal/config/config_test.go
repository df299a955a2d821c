package config

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "cesizen.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, 10*time.Second, cfg.CatalogTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/cesizen")
	t.Setenv("BACKEND_API_URL", "http://localhost:8000")
	t.Setenv("DEV_USER", "dev")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("CATALOG_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/cesizen", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, "dev", cfg.DevUser)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 3*time.Second, cfg.CatalogTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseDriver: "sqlite3",
			DatabaseURL:    "cesizen.db",
			SessionIdleTTL: time.Hour,
			CatalogTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, `DATABASE_DRIVER must be sqlite3 or postgres, got "mysql"`},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL is required"},
		{"zero idle ttl", func(c *Config) { c.SessionIdleTTL = 0 }, "SESSION_IDLE_TTL must be positive, got 0s"},
		{"negative timeout", func(c *Config) { c.CatalogTimeout = -time.Second }, "CATALOG_TIMEOUT must be positive, got -1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())

			_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
			assert.True(t, hasStack, "validation errors carry a stack trace")
		})
	}
}
