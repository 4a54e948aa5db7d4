package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	DBDSN     string
	JWTSecret string

	LogLevel string

	LoginRateLimitRPM int
	SessionDays       int

	DeadlineSweepCron string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Env = strings.TrimSpace(os.Getenv("CC_ENV"))
	if cfg.Env == "" {
		return nil, fmt.Errorf("CC_ENV is required")
	}
	if cfg.Env != "dev" && cfg.Env != "prod" {
		return nil, fmt.Errorf("CC_ENV must be one of: dev, prod (got: %s)", cfg.Env)
	}

	cfg.HTTPAddr = getEnvOrDefault("CC_HTTP_ADDR", ":8080")

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("CC_BASE_URL")), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("CC_BASE_URL is required")
	}

	cfg.DBDSN = strings.TrimSpace(os.Getenv("CC_DB_DSN"))
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("CC_DB_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("CC_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("CC_JWT_SECRET is required")
	}
	if cfg.Env == "prod" && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("CC_JWT_SECRET must be at least 32 characters (currently %d)", len(cfg.JWTSecret))
	}

	cfg.LogLevel = getEnvOrDefault("CC_LOG_LEVEL", "info")
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("CC_LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", cfg.LogLevel)
	}

	var err error
	cfg.LoginRateLimitRPM, err = getEnvIntOrDefault("CC_LOGIN_RATE_LIMIT_RPM", 10)
	if err != nil {
		return nil, err
	}

	cfg.SessionDays, err = getEnvIntOrDefault("CC_SESSION_DAYS", 7)
	if err != nil {
		return nil, err
	}

	cfg.DeadlineSweepCron = getEnvOrDefault("CC_DEADLINE_SWEEP_CRON", "0 2 * * *")

	return cfg, nil
}

// IsDev returns true if running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// RedactedValues returns a map of config values with secrets redacted.
func (c *Config) RedactedValues() map[string]string {
	return map[string]string{
		"CC_ENV":                  c.Env,
		"CC_HTTP_ADDR":            c.HTTPAddr,
		"CC_BASE_URL":             c.BaseURL,
		"CC_DB_DSN":               redactDSN(c.DBDSN),
		"CC_JWT_SECRET":           "[REDACTED]",
		"CC_LOG_LEVEL":            c.LogLevel,
		"CC_LOGIN_RATE_LIMIT_RPM": fmt.Sprintf("%d", c.LoginRateLimitRPM),
		"CC_SESSION_DAYS":         fmt.Sprintf("%d", c.SessionDays),
		"CC_DEADLINE_SWEEP_CRON":  c.DeadlineSweepCron,
	}
}

func redactDSN(dsn string) string {
	if start := strings.Index(dsn, "://"); start != -1 {
		if end := strings.Index(dsn[start+3:], "@"); end != -1 {
			return dsn[:start+3] + "[REDACTED]" + dsn[start+3+end:]
		}
	}
	return dsn
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}
