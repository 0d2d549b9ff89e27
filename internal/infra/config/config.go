package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPass          string
	SMTPFrom          string // e.g. "The Nonprofit Edge <lyn@thenonprofitedge.org>"
	SMTPSkipTLSVerify bool   // dev only
	AppBaseURL        string // public base URL used in email links
	HTTPListenAddr    string
	CronSecret        string // shared secret for the manual run endpoint
	CronSpecDailyRun  string // daily reminder run, UTC
	ResponseThreshold int    // post-deadline reminders stop once this many responses exist
	LogLevel          string
	Environment       string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP_FROM is not set")
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.SMTPSkipTLSVerify = os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1"

	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = port
	} else {
		cfg.SMTPPort = 587
	}

	cfg.AppBaseURL = strings.TrimRight(os.Getenv("APP_BASE_URL"), "/")
	if cfg.AppBaseURL == "" {
		return nil, fmt.Errorf("APP_BASE_URL is not set")
	}

	cfg.CronSecret = os.Getenv("CRON_SECRET")
	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is not set")
	}

	cfg.HTTPListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = ":8080"
	}

	cfg.CronSpecDailyRun = os.Getenv("CRON_SPEC_DAILY_RUN")
	if cfg.CronSpecDailyRun == "" {
		cfg.CronSpecDailyRun = "0 8 * * *" // 08:00 UTC daily
	}

	if thresholdStr := os.Getenv("RESPONSE_THRESHOLD"); thresholdStr != "" {
		threshold, err := strconv.Atoi(thresholdStr)
		if err != nil || threshold < 1 {
			return nil, fmt.Errorf("invalid RESPONSE_THRESHOLD: %q", thresholdStr)
		}
		cfg.ResponseThreshold = threshold
	} else {
		cfg.ResponseThreshold = 3
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
