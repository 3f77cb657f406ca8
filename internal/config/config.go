// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Session settings
	SessionMaxOutcomes int // Cap on stored outcomes per session

	// Alert thresholds (scores at or above these fire webhook events)
	AlertRiskThreshold         int
	AlertManipulationThreshold int

	// HTTP settings
	RateLimitRPM int      // Requests per minute per client IP
	CORSOrigins  []string // Allowed CORS origins

	// Tracing
	OTLPEndpoint string // OTLP gRPC collector endpoint (optional, tracing off if empty)
}

// Defaults
const (
	DefaultPort     = "8080"
	DefaultEnv      = "development"
	DefaultLogLevel = "info"

	// DefaultMaxOutcomes is the upper bound of an 8-deck shoe (416 cards means
	// at most 416 resolved rounds, in practice far fewer).
	DefaultMaxOutcomes = 416

	DefaultRiskThreshold         = 55 // "high" risk tier floor
	DefaultManipulationThreshold = 60 // "high" manipulation tier floor

	DefaultRateLimitRPM = 120
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                       getEnv("PORT", DefaultPort),
		Env:                        getEnv("ENV", DefaultEnv),
		LogLevel:                   getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:                os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		SessionMaxOutcomes:         getEnvInt("SESSION_MAX_OUTCOMES", DefaultMaxOutcomes),
		AlertRiskThreshold:         getEnvInt("ALERT_RISK_THRESHOLD", DefaultRiskThreshold),
		AlertManipulationThreshold: getEnvInt("ALERT_MANIPULATION_THRESHOLD", DefaultManipulationThreshold),
		RateLimitRPM:               getEnvInt("RATE_LIMIT_RPM", DefaultRateLimitRPM),
		CORSOrigins:                getEnvList("CORS_ORIGINS", []string{"*"}),
		OTLPEndpoint:               os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configuration values are sane
func (c *Config) Validate() error {
	if c.SessionMaxOutcomes < 1 {
		return fmt.Errorf("SESSION_MAX_OUTCOMES must be positive, got %d", c.SessionMaxOutcomes)
	}

	if c.AlertRiskThreshold < 0 || c.AlertRiskThreshold > 100 {
		return fmt.Errorf("ALERT_RISK_THRESHOLD must be 0-100, got %d", c.AlertRiskThreshold)
	}
	if c.AlertManipulationThreshold < 0 || c.AlertManipulationThreshold > 100 {
		return fmt.Errorf("ALERT_MANIPULATION_THRESHOLD must be 0-100, got %d", c.AlertManipulationThreshold)
	}

	if c.RateLimitRPM < 1 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive, got %d", c.RateLimitRPM)
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
