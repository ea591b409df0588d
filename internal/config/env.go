package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir  = "DATA_DIR"
	EnvCacheTTL = "CACHE_TTL"

	// Catalog
	EnvCatalogBaseURL = "CATALOG_BASE_URL"
	EnvCatalogCareers = "CATALOG_CAREERS"

	// Scraper
	EnvScraperTimeout    = "SCRAPER_TIMEOUT"
	EnvScraperMaxRetries = "SCRAPER_MAX_RETRIES"

	// Background Tasks
	EnvRefreshHour = "REFRESH_HOUR"

	// API
	EnvSearchMaxLimit   = "SEARCH_MAX_LIMIT"
	EnvAPIRateLimitRPS  = "API_RATE_LIMIT_RPS"
	EnvClientRateBurst  = "API_CLIENT_RATE_BURST"
	EnvClientRateRefill = "API_CLIENT_RATE_REFILL"
	EnvAdminToken       = "ADMIN_TOKEN"

	// Metrics Auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Sentry
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// R2 Snapshot Feature
	EnvR2Enabled         = "R2_ENABLED"
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "R2_SNAPSHOT_KEY"
	EnvR2ScheduleKey     = "R2_SCHEDULE_KEY"
	EnvR2PollInterval    = "R2_POLL_INTERVAL"
)
