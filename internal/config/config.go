package config

import (
	"os"
	"strconv"
	"time"

	"difcregistry/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Fetch    FetchConfig
	Database DatabaseConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// APIConfig holds upstream register endpoint settings
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// FetchConfig holds paging and pacing settings shared by both phases
type FetchConfig struct {
	PageSize      int
	RequestDelay  time.Duration
	DetailWorkers int
	MinRecords    int
	MaxRecords    int
}

// DatabaseConfig holds the optional run-history database settings.
// An empty URL disables run history entirely.
type DatabaseConfig struct {
	URL string
}

// Defaults matching the register's public site behavior.
const (
	DefaultBaseURL      = "https://www.difc.com/api/handleRequest"
	DefaultPageSize     = 200
	DefaultRequestDelay = 800 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
	DefaultMinRecords   = 10
	DefaultMaxRecords   = 5000
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		API: APIConfig{
			BaseURL: getEnvOrDefault("DIFC_API_URL", DefaultBaseURL),
			Timeout: getEnvDurationOrDefault("HTTP_TIMEOUT", DefaultTimeout),
		},
		Fetch: FetchConfig{
			PageSize:      getEnvIntOrDefault("PAGE_SIZE", DefaultPageSize),
			RequestDelay:  getEnvDurationOrDefault("REQUEST_DELAY", DefaultRequestDelay),
			DetailWorkers: getEnvIntOrDefault("DETAIL_WORKERS", 1),
			MinRecords:    DefaultMinRecords,
			MaxRecords:    DefaultMaxRecords,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if cfg.API.BaseURL == "" {
		return errors.ConfigInvalid("DIFC_API_URL must not be empty")
	}
	if cfg.API.Timeout <= 0 {
		return errors.ConfigInvalid("HTTP_TIMEOUT must be positive")
	}
	if cfg.Fetch.PageSize <= 0 {
		return errors.ConfigInvalid("PAGE_SIZE must be positive")
	}
	if cfg.Fetch.RequestDelay < 0 {
		return errors.ConfigInvalid("REQUEST_DELAY must not be negative")
	}
	if cfg.Fetch.DetailWorkers < 1 {
		return errors.ConfigInvalid("DETAIL_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
