// Package config loads application configuration from environment variables.
// All variables use the STUDY_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Cache        CacheConfig
	Planner      PlannerConfig
	SyllabusPath string
	Log          LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	Enabled    bool
	URL        string
	PlanTTLMin int // minutes a cached plan stays valid
}

// PlannerConfig holds scheduling defaults applied when the learner
// profile leaves them unset.
type PlannerConfig struct {
	HorizonDays    int
	HoursPerWeek   float64
	SessionMinutes int
	DueItemLimit   int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with STUDY_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("STUDY_SERVER_PORT", 8080),
			Host: envStr("STUDY_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			// No default URL: an unset database selects the in-memory
			// snapshot store.
			URL:      envStr("STUDY_DATABASE_URL", ""),
			MaxConns: envInt("STUDY_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("STUDY_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			Enabled:    envBool("STUDY_CACHE_ENABLED", true),
			URL:        envStr("STUDY_CACHE_URL", "redis://localhost:6379"),
			PlanTTLMin: envInt("STUDY_CACHE_PLAN_TTL_MIN", 60),
		},
		Planner: PlannerConfig{
			HorizonDays:    envInt("STUDY_PLANNER_HORIZON_DAYS", 90),
			HoursPerWeek:   envFloat("STUDY_PLANNER_HOURS_PER_WEEK", 8),
			SessionMinutes: envInt("STUDY_PLANNER_SESSION_MINUTES", 45),
			DueItemLimit:   envInt("STUDY_PLANNER_DUE_ITEM_LIMIT", 20),
		},
		SyllabusPath: envStr("STUDY_SYLLABUS_PATH", "./syllabus"),
		Log: LogConfig{
			Level:  envStr("STUDY_LOG_LEVEL", "info"),
			Format: envStr("STUDY_LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database min conns (%d) exceeds max conns (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Planner.HorizonDays < 1 {
		return fmt.Errorf("planner horizon must be at least one day, got %d", c.Planner.HorizonDays)
	}
	if c.Planner.SessionMinutes < 1 {
		return fmt.Errorf("planner session minutes must be positive, got %d", c.Planner.SessionMinutes)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
