package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the worker service.
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Database
	DatabasePath string

	// Schedule configuration: cron spec with seconds field.
	// Default is Monday 04:00 UTC, after the nightly collector syncs.
	BuildSchedule string

	// Job execution
	Workers    int
	JobTimeout time.Duration

	// LLM configuration
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Notification configuration (optional)
	WebhookURL   string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Report archive (optional)
	StorageAccount   string
	StorageContainer string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabasePath: getEnv("DATABASE_PATH", "devhistory.db"),

		BuildSchedule: getEnv("BUILD_SCHEDULE", "0 0 4 * * MON"),

		Workers:    getIntEnv("WORKER_COUNT", 4),
		JobTimeout: getDurationEnv("JOB_TIMEOUT", 5*time.Minute),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:  getEnv("OPENAI_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout: getDurationEnv("LLM_TIMEOUT", 120*time.Second),

		WebhookURL:   getEnv("REPORT_WEBHOOK_URL", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "reports"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.SMTPHost != "" {
		if c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP_USERNAME and SMTP_PASSWORD are required when SMTP_HOST is set")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
