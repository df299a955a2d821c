package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go-simpler.org/env"
)

type Config struct {
	Port           string `env:"PORT" default:"8080"`
	DatabaseDriver string `env:"DATABASE_DRIVER" default:"sqlite3"`
	DatabaseURL    string `env:"DATABASE_URL" default:"cesizen.db"`
	BackendURL     string `env:"BACKEND_API_URL"`
	RedisURL       string `env:"REDIS_URL"`
	SeedFile       string `env:"SEED_FILE"`
	LogLevel       string `env:"LOG_LEVEL" default:"info"`
	LogFormat      string `env:"LOG_FORMAT" default:"text"`

	// DevUser is the identity assumed when no auth header is present.
	// Leave empty outside local development.
	DevUser string `env:"DEV_USER"`

	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" default:"1h"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func validate(cfg *Config) error {
	switch cfg.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return errors.Errorf("DATABASE_DRIVER must be sqlite3 or postgres, got %q", cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"SESSION_IDLE_TTL", cfg.SessionIdleTTL},
		{"CATALOG_TIMEOUT", cfg.CatalogTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errors.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	return nil
}
