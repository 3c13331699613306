package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "HarborBank Portal"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultCoreTimeout      = 15 * time.Second
	defaultSessionTTL       = 12 * time.Hour
	defaultResetCodeTTL     = 10 * time.Minute
	defaultReportConcurrent = 4
	defaultSignInPerMinute  = 5
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	CoreAPIURL     string
	CoreAPITimeout time.Duration

	DatabaseURL string
	RedisURL    string

	SessionSecret string
	SessionTTL    time.Duration
	ResetCodeTTL  time.Duration

	ReportFetchConcurrency int
	SignInRatePerMinute    int

	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:                getEnv("APP_NAME", defaultAppName),
		AppEnv:                 getEnv("APP_ENV", defaultAppEnv),
		Port:                   getEnv("PORT", defaultPort),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		CoreAPIURL:             os.Getenv("CORE_API_URL"),
		CoreAPITimeout:         defaultCoreTimeout,
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		SessionSecret:          os.Getenv("SESSION_SECRET"),
		SessionTTL:             defaultSessionTTL,
		ResetCodeTTL:           defaultResetCodeTTL,
		ReportFetchConcurrency: defaultReportConcurrent,
		SignInRatePerMinute:    defaultSignInPerMinute,
		ShutdownPeriod:         defaultShutdownDelay,
	}

	var err error
	if cfg.CoreAPITimeout, err = durationEnv("CORE_API_TIMEOUT", cfg.CoreAPITimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.ResetCodeTTL, err = durationEnv("RESET_CODE_TTL", cfg.ResetCodeTTL); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.ReportFetchConcurrency, err = intEnv("REPORT_FETCH_CONCURRENCY", cfg.ReportFetchConcurrency); err != nil {
		return Config{}, err
	}
	if cfg.SignInRatePerMinute, err = intEnv("SIGNIN_RATE_PER_MINUTE", cfg.SignInRatePerMinute); err != nil {
		return Config{}, err
	}

	if cfg.CoreAPIURL == "" {
		return Config{}, fmt.Errorf("CORE_API_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
