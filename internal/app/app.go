// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/nchu-course-helper/internal/alias"
	"github.com/garyellow/nchu-course-helper/internal/api"
	"github.com/garyellow/nchu-course-helper/internal/buildinfo"
	"github.com/garyellow/nchu-course-helper/internal/catalog"
	"github.com/garyellow/nchu-course-helper/internal/config"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/maintenance"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/r2client"
	"github.com/garyellow/nchu-course-helper/internal/ratelimit"
	"github.com/garyellow/nchu-course-helper/internal/scraper"
	"github.com/garyellow/nchu-course-helper/internal/search"
	"github.com/garyellow/nchu-course-helper/internal/sentry"
	"github.com/garyellow/nchu-course-helper/internal/snapshot"
	"github.com/garyellow/nchu-course-helper/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg        *config.Config
	logger     *logger.Logger
	db         *storage.DB
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	holder     *search.Holder
	catalog    *catalog.Service
	apiHandler *api.Handler
	limiter    *ratelimit.KeyedLimiter
	snapshots  *snapshot.Manager           // nil when R2 is disabled
	schedule   *maintenance.R2ScheduleStore // nil when R2 is disabled
	location   *time.Location
	server     *http.Server
	wg         sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	log := NewLogger(cfg, m)

	// Set as default logger so package-level slog.*Context() calls pick up
	// request IDs through the context handler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Version).
		WithField("commit", buildinfo.Commit).
		Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).WithField("cache_ttl", cfg.CacheTTL).Info("Database connected")

	holder := search.NewHolder(alias.Default())
	fetcher := NewFetcher(cfg, m, log)

	var (
		snapshots *snapshot.Manager
		schedule  *maintenance.R2ScheduleStore
		publisher catalog.Publisher
	)
	if cfg.R2.Enabled {
		snapshots, schedule, err = newR2Components(ctx, cfg, log)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		publisher = snapshots
		log.WithField("bucket", cfg.R2.BucketName).
			WithField("snapshot_key", cfg.R2.SnapshotKey).
			WithField("owner", schedule.Owner()).
			Info("R2 snapshot distribution enabled")
	}

	svc := catalog.NewService(fetcher, db, holder, catalog.ServiceOptions{
		Publisher: publisher,
		Metrics:   m,
		Logger:    log,
	})

	var clientLimiter *ratelimit.KeyedLimiter
	if cfg.ClientRateBurst > 0 {
		clientLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:          "client",
			Burst:         cfg.ClientRateBurst,
			RefillRate:    cfg.ClientRateRefill,
			CleanupPeriod: config.RateLimiterCleanup,
			Metrics:       m,
		})
	}

	handler := api.NewHandler(api.Options{
		Holder:         holder,
		Catalog:        svc,
		AdminToken:     cfg.AdminToken,
		MaxLimit:       cfg.SearchMaxLimit,
		RefreshTimeout: config.RefreshTimeout,
		Metrics:        m,
		Logger:         log,
	})

	app := &Application{
		cfg:        cfg,
		logger:     log,
		db:         db,
		metrics:    m,
		registry:   registry,
		holder:     holder,
		catalog:    svc,
		apiHandler: handler,
		limiter:    clientLimiter,
		snapshots:  snapshots,
		schedule:   schedule,
		location:   refreshLocation(),
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router(ratelimit.NewPerSecond(cfg.APIRateLimitRPS)),
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	if !cfg.AdminEnabled() {
		log.Info("ADMIN_TOKEN not set, admin routes disabled")
	}
	log.Info("Initialization complete")
	return app, nil
}

// NewLogger builds the service logger with Better Stack shipping when configured.
// Records dropped by the shipping queue are counted on m when it is non-nil.
func NewLogger(cfg *config.Config, m *metrics.Metrics) *logger.Logger {
	opts := logger.Options{
		Level:               cfg.LogLevel,
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	}
	if m != nil {
		opts.Async.OnDrop = m.RecordLogDropped
	}
	log := logger.NewWithOptions(opts)

	log = log.WithField("service", "nchu-course-helper")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	return log
}

// NewFetcher builds the catalog fetcher from configuration.
func NewFetcher(cfg *config.Config, m *metrics.Metrics, log *logger.Logger) *catalog.Fetcher {
	client := scraper.NewClient(scraper.Options{
		Timeout:      cfg.ScraperTimeout,
		MaxRetries:   cfg.ScraperMaxRetries,
		RetryInitial: config.ScraperRetryInitial,
		MinInterval:  config.ScraperRateLimit,
		Metrics:      m,
		Logger:       log,
	})
	return catalog.NewFetcher(client, catalog.FetcherOptions{
		BaseURL:     cfg.CatalogBaseURL,
		Careers:     cfg.CatalogCareers,
		Concurrency: config.ScraperMaxConcurrency,
		Metrics:     m,
		Logger:      log,
	})
}

// NewSnapshotManager connects to R2 and returns the snapshot manager.
func NewSnapshotManager(ctx context.Context, cfg *config.Config, log *logger.Logger) (*snapshot.Manager, *r2client.Client, error) {
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    r2client.EndpointForAccount(cfg.R2.AccountID),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("r2: %w", err)
	}
	mgr := snapshot.New(client, snapshot.Config{
		SnapshotKey:    cfg.R2.SnapshotKey,
		PollInterval:   cfg.R2.PollInterval,
		RequestTimeout: config.R2Request,
	}, log)
	return mgr, client, nil
}

func newR2Components(ctx context.Context, cfg *config.Config, log *logger.Logger) (*snapshot.Manager, *maintenance.R2ScheduleStore, error) {
	mgr, client, err := NewSnapshotManager(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	store, err := maintenance.NewR2ScheduleStore(client, cfg.R2.ScheduleKey, config.R2Request)
	if err != nil {
		return nil, nil, fmt.Errorf("schedule store: %w", err)
	}
	return mgr, store, nil
}

// refreshLocation returns the refresh time zone, falling back to UTC+8 when
// zone data is unavailable.
func refreshLocation() *time.Location {
	loc, err := time.LoadLocation(config.RefreshLocation)
	if err != nil {
		return time.FixedZone(config.RefreshLocation, 8*60*60)
	}
	return loc
}

// router builds the HTTP routes. global may be nil.
func (a *Application) router(global *ratelimit.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentry.Middleware())
	router.Use(api.RequestID())
	router.Use(api.SecurityHeaders())
	router.Use(api.Logging(a.logger, a.metrics))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	limited := router.Group("", api.RateLimit(global, a.limiter, a.metrics))
	a.apiHandler.Register(limited)
	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"version": buildinfo.Version,
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	indexed := a.holder.Load().Len()
	if indexed == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "catalog not loaded",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"database":   "connected",
		"courses":    indexed,
		"refreshing": a.catalog.Refreshing(),
	})
}

// Run starts the HTTP server and background jobs.
//
// Shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context to stop background jobs
//  3. Wait for background jobs (refresh, cleanup) to return
//  4. Close resources in order (HTTP server, admin refreshes, database, limiters, logger)
//
// Jobs are drained before the database closes so a refresh never writes to a
// closed handle.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startHTTPServer starts the HTTP server in a goroutine. The returned channel
// receives an error if the listener fails.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops the HTTP server and closes resources. It must run after
// background jobs have returned.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for admin refreshes to complete...")
	if err := a.apiHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Admin refresh shutdown timeout")
	}

	if a.snapshots != nil {
		a.snapshots.StopPolling()
	}

	a.logger.Info("Closing resources...")
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}

	sentry.Flush(2 * time.Second)
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
