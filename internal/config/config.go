// Package config provides application configuration management.
// It loads settings from environment variables (with an optional .env file)
// and provides defaults for server mode, crawl mode, timeouts and the
// catalog source.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/garyellow/nchu-course-helper/internal/course"
)

// DefaultCatalogBaseURL is the NCHU course catalog JSON endpoint.
const DefaultCatalogBaseURL = "https://onepiece.nchu.edu.tw/cofsys/plsql/json_for_course"

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode validates everything needed to serve the HTTP API.
	ServerMode ValidationMode = iota
	// CrawlMode only validates what a one-shot catalog fetch needs.
	CrawlMode
)

// String returns the mode name.
func (m ValidationMode) String() string {
	switch m {
	case ServerMode:
		return "server"
	case CrawlMode:
		return "crawl"
	default:
		return "unknown"
	}
}

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir  string        // Data directory for the SQLite catalog cache
	CacheTTL time.Duration // Cached careers older than this are purged (default: 7 days)

	// Catalog Configuration
	CatalogBaseURL string
	CatalogCareers []string // Career codes fetched on refresh, in snapshot order

	// Scraper Configuration
	ScraperTimeout    time.Duration
	ScraperMaxRetries int

	// Jobs
	RefreshHour int // Hour of day (Asia/Taipei) for the daily refresh

	// API
	SearchMaxLimit   int
	APIRateLimitRPS  float64
	ClientRateBurst  float64 // Per client IP burst (0 = per-client limit disabled)
	ClientRateRefill float64 // Per client IP tokens per second
	AdminToken       string  // Bearer token for /admin routes (empty = admin routes disabled)

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Better Stack log shipping (empty token = disabled)
	BetterStackToken    string
	BetterStackEndpoint string

	// Sentry (Better Stack Errors)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// R2 snapshot distribution
	R2 R2Config
}

// R2Config holds Cloudflare R2 settings.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	SnapshotKey     string
	ScheduleKey     string
	PollInterval    time.Duration
}

// Load reads configuration for server mode.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates it
// for the given mode. It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:  getEnv(EnvDataDir, getDefaultDataDir()),
		CacheTTL: getDurationEnv(EnvCacheTTL, 168*time.Hour),

		CatalogBaseURL: getEnv(EnvCatalogBaseURL, DefaultCatalogBaseURL),
		CatalogCareers: getListEnv(EnvCatalogCareers, defaultCareers()),

		ScraperTimeout:    getDurationEnv(EnvScraperTimeout, ScraperRequest),
		ScraperMaxRetries: getIntEnv(EnvScraperMaxRetries, 3),

		RefreshHour: getIntEnv(EnvRefreshHour, 0),

		SearchMaxLimit:   getIntEnv(EnvSearchMaxLimit, 100),
		APIRateLimitRPS:  getFloatEnv(EnvAPIRateLimitRPS, 50),
		ClientRateBurst:  getFloatEnv(EnvClientRateBurst, 30),
		ClientRateRefill: getFloatEnv(EnvClientRateRefill, 5),
		AdminToken:       getEnv(EnvAdminToken, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/catalog.json.zst"),
			ScheduleKey:     getEnv(EnvR2ScheduleKey, "schedule/refresh.json"),
			PollInterval:    getDurationEnv(EnvR2PollInterval, R2SnapshotPoll),
		},
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set for mode.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL))
	}
	if c.CatalogBaseURL == "" {
		errs = append(errs, errors.New("CATALOG_BASE_URL is required"))
	}
	if len(c.CatalogCareers) == 0 {
		errs = append(errs, errors.New("CATALOG_CAREERS must list at least one career"))
	}
	for _, code := range c.CatalogCareers {
		if !course.IsCareerCode(code) {
			errs = append(errs, fmt.Errorf("CATALOG_CAREERS: unknown career code %q", code))
		}
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be positive, got %v", c.ScraperTimeout))
	}
	if c.ScraperMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_RETRIES cannot be negative, got %d", c.ScraperMaxRetries))
	}
	if err := c.R2.validate(); err != nil {
		errs = append(errs, err)
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, errors.New("PORT is required"))
		}
		if c.RefreshHour < 0 || c.RefreshHour > 23 {
			errs = append(errs, fmt.Errorf("REFRESH_HOUR must be within 0-23, got %d", c.RefreshHour))
		}
		if c.SearchMaxLimit < 1 {
			errs = append(errs, fmt.Errorf("SEARCH_MAX_LIMIT must be positive, got %d", c.SearchMaxLimit))
		}
		if c.APIRateLimitRPS <= 0 {
			errs = append(errs, fmt.Errorf("API_RATE_LIMIT_RPS must be positive, got %v", c.APIRateLimitRPS))
		}
		if c.ClientRateBurst > 0 && c.ClientRateRefill <= 0 {
			errs = append(errs, fmt.Errorf("API_CLIENT_RATE_REFILL must be positive, got %v", c.ClientRateRefill))
		}
		if c.ShutdownTimeout <= 0 {
			errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
		}
		if c.SentryToken != "" && c.SentryHost == "" {
			errs = append(errs, errors.New("SENTRY_HOST is required when SENTRY_TOKEN is set"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (r R2Config) validate() error {
	if !r.Enabled {
		return nil
	}
	var missing []string
	if r.AccountID == "" {
		missing = append(missing, EnvR2AccountID)
	}
	if r.AccessKeyID == "" {
		missing = append(missing, EnvR2AccessKeyID)
	}
	if r.SecretAccessKey == "" {
		missing = append(missing, EnvR2SecretAccessKey)
	}
	if r.BucketName == "" {
		missing = append(missing, EnvR2BucketName)
	}
	if len(missing) > 0 {
		return fmt.Errorf("R2 enabled but missing %s", strings.Join(missing, ", "))
	}
	if r.PollInterval <= 0 {
		return fmt.Errorf("R2_POLL_INTERVAL must be positive, got %v", r.PollInterval)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, upper-casing and dropping blanks.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func defaultCareers() []string {
	codes := make([]string, 0, len(course.CareerCodes))
	for _, cc := range course.CareerCodes {
		codes = append(codes, cc.Code)
	}
	return codes
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// AdminEnabled reports whether the admin routes are mounted.
func (c *Config) AdminEnabled() bool {
	return c.AdminToken != ""
}
