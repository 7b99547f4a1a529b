package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// App
	AppName  string
	LogLevel string

	// Server
	ServerPort     string
	SessionIdleTTL time.Duration

	// Fitting service
	FittingAPIURL     string
	FittingAPITimeout time.Duration

	// Database, empty disables event persistence
	DatabaseURL string

	// Report export, an empty bucket disables it
	ReportBucket          string
	ReportPrefix          string
	ReportRegion          string
	ReportEndpoint        string
	ReportAccessKeyID     string
	ReportSecretAccessKey string
}

// Load loads configuration from environment variables
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "fitting-console")
	v.SetDefault("APP_LOG_LEVEL", "INFO")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SESSION_IDLE_TTL_MINUTES", 60)
	v.SetDefault("FITTING_API_URL", "http://localhost:8000")
	v.SetDefault("FITTING_API_TIMEOUT_SECONDS", 120)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REPORT_BUCKET", "")
	v.SetDefault("REPORT_PREFIX", "reports")
	v.SetDefault("REPORT_REGION", "us-east-1")
	v.SetDefault("REPORT_ENDPOINT", "")
	v.SetDefault("REPORT_ACCESS_KEY_ID", "")
	v.SetDefault("REPORT_SECRET_ACCESS_KEY", "")

	return &Config{
		AppName:               v.GetString("APP_NAME"),
		LogLevel:              v.GetString("APP_LOG_LEVEL"),
		ServerPort:            v.GetString("SERVER_PORT"),
		SessionIdleTTL:        time.Duration(v.GetInt("SESSION_IDLE_TTL_MINUTES")) * time.Minute,
		FittingAPIURL:         v.GetString("FITTING_API_URL"),
		FittingAPITimeout:     time.Duration(v.GetInt("FITTING_API_TIMEOUT_SECONDS")) * time.Second,
		DatabaseURL:           v.GetString("DATABASE_URL"),
		ReportBucket:          v.GetString("REPORT_BUCKET"),
		ReportPrefix:          v.GetString("REPORT_PREFIX"),
		ReportRegion:          v.GetString("REPORT_REGION"),
		ReportEndpoint:        v.GetString("REPORT_ENDPOINT"),
		ReportAccessKeyID:     v.GetString("REPORT_ACCESS_KEY_ID"),
		ReportSecretAccessKey: v.GetString("REPORT_SECRET_ACCESS_KEY"),
	}
}

// Validate checks the values Load cannot default away
func (c *Config) Validate() error {
	u, err := url.Parse(c.FittingAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid FITTING_API_URL %q", c.FittingAPIURL)
	}
	if c.FittingAPITimeout <= 0 {
		return fmt.Errorf("FITTING_API_TIMEOUT_SECONDS must be positive")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL_MINUTES must be positive")
	}
	if c.ReportBucket != "" && c.ReportRegion == "" {
		return fmt.Errorf("REPORT_REGION is required when REPORT_BUCKET is set")
	}
	return nil
}

// PersistEvents reports whether session events go to the database
func (c *Config) PersistEvents() bool {
	return c.DatabaseURL != ""
}

// ReportsEnabled reports whether diagnostics can be exported
func (c *Config) ReportsEnabled() bool {
	return c.ReportBucket != ""
}
