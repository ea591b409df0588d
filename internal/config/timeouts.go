// Centralized timeout constants.
//
// Values are tuned for the NCHU catalog endpoint, which returns one large JSON
// document per career and can take several seconds during registration weeks.
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Requests are small query strings or
	// a short JSON list of course codes.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout. Covers admin-triggered refreshes
	// that respond after the refresh finishes.
	HTTPWrite = 5 * time.Minute

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second

	// HTTPReadHeader bounds header reads.
	HTTPReadHeader = 5 * time.Second

	// ReadinessCheck bounds the database ping in /readyz.
	ReadinessCheck = 3 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for a single catalog request.
	ScraperRequest = 30 * time.Second

	// ScraperRetryInitial is the initial delay before retrying a failed request.
	// Uses exponential backoff: 2s -> 4s -> 8s
	ScraperRetryInitial = 2 * time.Second

	// ScraperRateLimit is the minimum delay between consecutive catalog requests.
	ScraperRateLimit = 500 * time.Millisecond

	// ScraperMaxConcurrency bounds parallel career fetches.
	ScraperMaxConcurrency = 3
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// RefreshTimeout bounds a full catalog refresh.
	RefreshTimeout = 10 * time.Minute

	// CacheCleanupInterval is how often expired cache rows are deleted.
	CacheCleanupInterval = 12 * time.Hour

	// CacheCleanupInitialDelay is the delay before first cache cleanup.
	CacheCleanupInitialDelay = 5 * time.Minute

	// StatsLogInterval is how often the hourly stats line is logged.
	StatsLogInterval = time.Hour

	// MetricsUpdateInterval is how often index size metrics are updated.
	MetricsUpdateInterval = 5 * time.Minute

	// R2SnapshotPoll is the default follower polling interval.
	R2SnapshotPoll = 5 * time.Minute

	// R2Request bounds a single R2 call.
	R2Request = time.Minute

	// RefreshClaimGap is the minimum spacing between daily refreshes claimed
	// through the shared R2 schedule.
	RefreshClaimGap = 20 * time.Hour

	// RateLimiterCleanup is how often idle per-client buckets are dropped.
	RateLimiterCleanup = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)

// RefreshLocation is the time zone the daily refresh is scheduled in.
const RefreshLocation = "Asia/Taipei"
