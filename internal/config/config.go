package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultAppEnv   = "development"
	defaultDebounce = 300 * time.Millisecond
	defaultCPIRate  = 0.03
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	DBPath   string
	Port     string
	AppEnv   string
	Debounce time.Duration
	CPIRate  float64
	LogLevel string
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg := Config{
		DBPath:   getenv("DB_PATH", defaultDBPath),
		Port:     getenv("PORT", defaultPort),
		AppEnv:   getenv("APP_ENV", defaultAppEnv),
		LogLevel: getenv("LOG_LEVEL", defaultLogLevel),
		Debounce: defaultDebounce,
		CPIRate:  defaultCPIRate,
	}

	if raw := os.Getenv("DEBOUNCE_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			log.Warn().Str("DEBOUNCE_MS", raw).Msg("invalid debounce, using default")
		} else {
			cfg.Debounce = time.Duration(ms) * time.Millisecond
		}
	}

	if raw := os.Getenv("CPI_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 || rate > 0.25 {
			log.Warn().Str("CPI_RATE", raw).Msg("invalid CPI rate, using default")
		} else {
			cfg.CPIRate = rate
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
