package app

import (
	"context"
	"errors"
	"time"

	"github.com/garyellow/nchu-course-helper/internal/catalog"
	"github.com/garyellow/nchu-course-helper/internal/config"
	"github.com/garyellow/nchu-course-helper/internal/course"
	"github.com/garyellow/nchu-course-helper/internal/ctxutil"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
)

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.startupLoad(ctx)
		a.dailyRefresh(ctx)
	})
	a.wg.Go(func() {
		a.cacheCleanup(ctx)
	})
	a.wg.Go(func() {
		a.logStats(ctx)
	})
	a.wg.Go(func() {
		a.updateIndexMetrics(ctx)
	})
}

// startupLoad serves the cached catalog immediately, then brings it up to
// date: from the shared snapshot when R2 is enabled, otherwise by refreshing.
func (a *Application) startupLoad(ctx context.Context) {
	ctx = ctxutil.WithJob(ctx, "startup_load")

	if n, err := a.catalog.LoadFromCache(ctx); err != nil {
		if errors.Is(err, domerrors.ErrCacheEmpty) {
			a.logger.InfoContext(ctx, "Catalog cache empty, waiting for first refresh")
		} else {
			a.logger.WithError(err).ErrorContext(ctx, "Failed to load cached catalog")
		}
	} else {
		a.logger.WithField("courses", n).InfoContext(ctx, "Catalog loaded from cache")
	}

	if a.snapshots != nil {
		installed, err := a.snapshots.Sync(ctx, a.installSnapshot)
		if err != nil && ctx.Err() == nil {
			a.logger.WithError(err).WarnContext(ctx, "Initial snapshot sync failed")
		}
		a.snapshots.StartPolling(ctx, a.installSnapshot)

		// With shared snapshots only the daily claim triggers a fetch, unless
		// there is nothing at all to serve.
		if installed || a.holder.Load().Len() > 0 {
			return
		}
	}
	a.runRefresh(ctx, catalog.TriggerStartup)
}

func (a *Application) installSnapshot(ctx context.Context, courses []course.Course) error {
	_, err := a.catalog.Install(ctx, courses)
	return err
}

// dailyRefresh refreshes the catalog every day at RefreshHour in Asia/Taipei.
func (a *Application) dailyRefresh(ctx context.Context) {
	a.logger.Debug("Daily refresh job started")
	defer a.logger.Debug("Daily refresh job stopped")

	for {
		next := nextRunAt(time.Now(), a.cfg.RefreshHour, a.location)
		a.logger.WithField("next_run", next.Format(time.RFC3339)).
			Info("Scheduled next catalog refresh (Taiwan time)")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Debug("Daily refresh received shutdown signal")
			return
		case <-timer.C:
			if a.claimRefresh(ctx) {
				a.runRefresh(ctx, catalog.TriggerDaily)
			}
		}
	}
}

// claimRefresh reports whether this instance should run the daily refresh.
// Without R2 every instance refreshes on its own.
func (a *Application) claimRefresh(ctx context.Context) bool {
	if a.schedule == nil {
		return true
	}
	claimed, err := a.schedule.ClaimRefresh(ctx, time.Now(), config.RefreshClaimGap)
	if err != nil {
		a.logger.WithError(err).Warn("Refresh claim failed, refreshing locally")
		return true
	}
	if !claimed {
		a.logger.Info("Daily refresh claimed by another instance, waiting for its snapshot")
	}
	return claimed
}

func (a *Application) runRefresh(ctx context.Context, trigger string) {
	ctx, cancel := context.WithTimeout(ctxutil.WithJob(ctx, trigger+"_refresh"), config.RefreshTimeout)
	defer cancel()

	report, err := a.catalog.Refresh(ctx, trigger)
	if err != nil {
		if errors.Is(err, domerrors.ErrRefreshInProgress) {
			a.logger.WithField("trigger", trigger).Info("Refresh already running, skipped")
			return
		}
		a.logger.WithError(err).WithField("trigger", trigger).ErrorContext(ctx, "Catalog refresh failed")
		return
	}
	a.logger.WithField("trigger", trigger).
		WithField("indexed", report.Indexed).
		WithField("failed", report.Failed).
		WithField("duration_ms", report.Duration.Milliseconds()).
		InfoContext(ctx, "Catalog refresh completed")
}

// nextRunAt returns the next occurrence of hour:00 in loc strictly after now.
func nextRunAt(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}

// cacheCleanup deletes careers not refreshed within CacheTTL.
func (a *Application) cacheCleanup(ctx context.Context) {
	a.logger.Debug("Cache cleanup job started")
	defer a.logger.Debug("Cache cleanup job stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(config.CacheCleanupInitialDelay):
		a.runCacheCleanup(ctx)
	}

	ticker := time.NewTicker(config.CacheCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runCacheCleanup(ctx)
		}
	}
}

func (a *Application) runCacheCleanup(ctx context.Context) {
	start := time.Now()
	deleted, err := a.db.DeleteExpired(ctx, a.cfg.CacheTTL)
	if err != nil {
		a.logger.WithError(err).Error("Failed to cleanup expired courses")
		return
	}
	a.logger.WithField("deleted", deleted).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Cache cleanup completed")
}

// logStats writes one summary line per StatsLogInterval.
func (a *Application) logStats(ctx context.Context) {
	ticker := time.NewTicker(config.StatsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.writeStats(ctx)
		}
	}
}

func (a *Application) writeStats(ctx context.Context) {
	stats, err := a.catalog.Stats(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to collect catalog stats")
		return
	}

	entry := a.logger.WithField("indexed", stats.Indexed).
		WithField("cached", stats.Cached).
		WithField("refreshing", stats.Refreshing)
	if last := stats.LastRefresh; last != nil {
		entry = entry.WithField("last_refresh", last.StartedAt.In(a.location).Format(time.RFC3339)).
			WithField("last_trigger", last.Trigger).
			WithField("last_successful", last.Successful)
	}
	if a.limiter != nil {
		entry = entry.WithField("tracked_clients", a.limiter.ActiveCount())
	}
	entry.Info("Catalog stats")
}

// updateIndexMetrics periodically records cache and index sizes.
func (a *Application) updateIndexMetrics(ctx context.Context) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordIndexMetrics(ctx)
		}
	}
}

func (a *Application) recordIndexMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	a.metrics.SetIndexSize(a.holder.Load().Len())

	counts, err := a.db.CountByCareer(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count cached courses")
		return
	}
	for _, c := range counts {
		a.metrics.SetCatalogCourses(c.Career, c.Count)
	}
}
