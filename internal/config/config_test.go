package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "PORT", "")
	setEnv(t, "SESSION_MAX_OUTCOMES", "")
	setEnv(t, "ALERT_RISK_THRESHOLD", "")
	setEnv(t, "CORS_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultMaxOutcomes, cfg.SessionMaxOutcomes)
	assert.Equal(t, DefaultRiskThreshold, cfg.AlertRiskThreshold)
	assert.Equal(t, DefaultManipulationThreshold, cfg.AlertManipulationThreshold)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "SESSION_MAX_OUTCOMES", "100")
	setEnv(t, "ALERT_RISK_THRESHOLD", "80")
	setEnv(t, "CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 100, cfg.SessionMaxOutcomes)
	assert.Equal(t, 80, cfg.AlertRiskThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Port:                       "8080",
		SessionMaxOutcomes:         416,
		AlertRiskThreshold:         55,
		AlertManipulationThreshold: 60,
		RateLimitRPM:               120,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: "",
		},
		{
			name:    "zero max outcomes",
			mutate:  func(c *Config) { c.SessionMaxOutcomes = 0 },
			wantErr: "SESSION_MAX_OUTCOMES",
		},
		{
			name:    "risk threshold out of range",
			mutate:  func(c *Config) { c.AlertRiskThreshold = 101 },
			wantErr: "ALERT_RISK_THRESHOLD",
		},
		{
			name:    "negative manipulation threshold",
			mutate:  func(c *Config) { c.AlertManipulationThreshold = -1 },
			wantErr: "ALERT_MANIPULATION_THRESHOLD",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimitRPM = 0 },
			wantErr: "RATE_LIMIT_RPM",
		},
		{
			name:    "non-numeric port",
			mutate:  func(c *Config) { c.Port = "http" },
			wantErr: "PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	setEnv(t, "TEST_INVALID", "not_a_number")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 0))
	assert.Equal(t, 99, getEnvInt("NONEXISTENT_VAR", 99))
	assert.Equal(t, 99, getEnvInt("TEST_INVALID", 99)) // Falls back on parse error
}

func TestGetEnvList(t *testing.T) {
	setEnv(t, "TEST_LIST", "a, b ,c")
	setEnv(t, "TEST_EMPTY_LIST", " , ")

	assert.Equal(t, []string{"a", "b", "c"}, getEnvList("TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("NONEXISTENT_VAR", []string{"x"}))
	assert.Equal(t, []string{"x"}, getEnvList("TEST_EMPTY_LIST", []string{"x"}))
}
