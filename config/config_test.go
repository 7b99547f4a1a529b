package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_NAME", "APP_LOG_LEVEL", "SERVER_PORT", "FITTING_API_URL",
		"FITTING_API_TIMEOUT_SECONDS", "SESSION_IDLE_TTL_MINUTES", "DATABASE_URL", "REPORT_BUCKET", "REPORT_REGION"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	assert.Equal(t, "fitting-console", cfg.AppName)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "http://localhost:8000", cfg.FittingAPIURL)
	assert.Equal(t, 120*time.Second, cfg.FittingAPITimeout)
	assert.Equal(t, time.Hour, cfg.SessionIdleTTL)
	assert.Equal(t, "us-east-1", cfg.ReportRegion)
	assert.False(t, cfg.PersistEvents())
	assert.False(t, cfg.ReportsEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FITTING_API_URL", "http://fitting:8000")
	t.Setenv("FITTING_API_TIMEOUT_SECONDS", "30")
	t.Setenv("DATABASE_URL", "postgres://localhost/console?sslmode=disable")
	t.Setenv("REPORT_BUCKET", "reports")
	t.Setenv("REPORT_ENDPOINT", "http://minio:9000")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "http://fitting:8000", cfg.FittingAPIURL)
	assert.Equal(t, 30*time.Second, cfg.FittingAPITimeout)
	assert.True(t, cfg.PersistEvents())
	assert.True(t, cfg.ReportsEnabled())
	assert.Equal(t, "http://minio:9000", cfg.ReportEndpoint)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.FittingAPIURL = "localhost:8000" }},
		{"zero timeout", func(c *Config) { c.FittingAPITimeout = 0 }},
		{"zero ttl", func(c *Config) { c.SessionIdleTTL = 0 }},
		{"bucket without region", func(c *Config) { c.ReportBucket = "r"; c.ReportRegion = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
