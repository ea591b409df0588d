package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyellow/nchu-course-helper/internal/course"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/search"
	"github.com/garyellow/nchu-course-helper/internal/sentry"
	"github.com/garyellow/nchu-course-helper/internal/storage"
)

// Refresh triggers, used as log fields and metric labels.
const (
	TriggerStartup  = "startup"
	TriggerDaily    = "daily"
	TriggerAdmin    = "admin"
	TriggerCLI      = "cli"
	TriggerSnapshot = "snapshot"
)

// CareerFetcher downloads every configured career.
type CareerFetcher interface {
	FetchAll(ctx context.Context) (map[string][]course.Course, error)
	Careers() []string
}

// Store persists catalog courses between refreshes.
type Store interface {
	ReplaceCareer(ctx context.Context, career string, courses []course.Course) error
	LoadCourses(ctx context.Context, careerOrder []string) ([]course.Course, error)
	CountCourses(ctx context.Context) (int, error)
	CountByCareer(ctx context.Context) ([]storage.CareerCount, error)
}

// Publisher distributes a freshly built catalog to other instances.
type Publisher interface {
	Publish(ctx context.Context, courses []course.Course) error
}

// RefreshReport describes one completed refresh attempt.
type RefreshReport struct {
	Trigger    string         `json:"trigger"`
	StartedAt  time.Time      `json:"startedAt"`
	Duration   time.Duration  `json:"duration"`
	Fetched    map[string]int `json:"fetched"`
	Failed     []string       `json:"failed"`
	Indexed    int            `json:"indexed"`
	Published  bool           `json:"published"`
	Error      string         `json:"error,omitempty"`
	Successful bool           `json:"successful"`
}

// Stats is a point-in-time view of the catalog.
type Stats struct {
	Indexed     int                   `json:"indexed"`
	Cached      int                   `json:"cached"`
	Careers     []storage.CareerCount `json:"careers"`
	Refreshing  bool                  `json:"refreshing"`
	LastRefresh *RefreshReport        `json:"lastRefresh,omitempty"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Publisher Publisher        // optional
	Metrics   *metrics.Metrics // optional
	Logger    *logger.Logger   // optional
}

// Service keeps the search index in sync with the upstream catalog.
type Service struct {
	fetcher   CareerFetcher
	store     Store
	holder    *search.Holder
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
	wrapper   *domerrors.ErrorWrapper

	running atomic.Bool
	mu      sync.RWMutex
	last    *RefreshReport
}

// NewService creates a catalog service writing snapshots into holder.
func NewService(fetcher CareerFetcher, store Store, holder *search.Holder, opts ServiceOptions) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewWithWriter("info", io.Discard)
	}
	return &Service{
		fetcher:   fetcher,
		store:     store,
		holder:    holder,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    log.WithModule("catalog"),
		wrapper:   domerrors.NewWrapper("catalog", "refresh"),
	}
}

// Holder returns the index holder the service rebuilds.
func (s *Service) Holder() *search.Holder {
	return s.holder
}

// Refreshing reports whether a refresh is running.
func (s *Service) Refreshing() bool {
	return s.running.Load()
}

// Refresh downloads every career, persists the successful ones, rebuilds the
// index from the cache and publishes the result.
//
// Careers that fail keep their previously cached rows. A partial refresh is
// not an error; its report lists the failed careers. Only one refresh runs at
// a time, a concurrent call returns ErrRefreshInProgress.
func (s *Service) Refresh(ctx context.Context, trigger string) (*RefreshReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.recordRefresh(trigger, "skipped", 0)
		return nil, domerrors.ErrRefreshInProgress
	}
	defer s.running.Store(false)

	report := &RefreshReport{
		Trigger:   trigger,
		StartedAt: time.Now(),
		Fetched:   make(map[string]int),
		Failed:    []string{},
	}
	s.logger.InfoContext(ctx, "catalog refresh started", "trigger", trigger)

	err := s.refresh(ctx, report)
	report.Duration = time.Since(report.StartedAt)

	status := "success"
	switch {
	case err != nil:
		status = "error"
		report.Error = err.Error()
		sentry.CaptureRefreshFailure(ctx, trigger, report.Failed, err)
		s.logger.WithError(err).ErrorContext(ctx, "catalog refresh failed",
			"trigger", trigger,
			"failed", report.Failed,
			"duration_ms", report.Duration.Milliseconds())
	case len(report.Failed) > 0:
		status = "partial"
		report.Successful = true
		s.logger.WarnContext(ctx, "catalog refresh partially succeeded",
			"trigger", trigger,
			"failed", report.Failed,
			"indexed", report.Indexed,
			"duration_ms", report.Duration.Milliseconds())
	default:
		report.Successful = true
		s.logger.InfoContext(ctx, "catalog refresh completed",
			"trigger", trigger,
			"indexed", report.Indexed,
			"published", report.Published,
			"duration_ms", report.Duration.Milliseconds())
	}
	s.recordRefresh(trigger, status, report.Duration.Seconds())

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if err != nil {
		return report, s.wrapper.Wrap(err, "課程資料更新失敗")
	}
	return report, nil
}

func (s *Service) refresh(ctx context.Context, report *RefreshReport) error {
	results, fetchErr := s.fetcher.FetchAll(ctx)
	report.Failed = append(report.Failed, FailedCareers(fetchErr)...)
	if results == nil {
		if fetchErr == nil {
			fetchErr = domerrors.ErrCatalogUnavailable
		}
		return fetchErr
	}
	if fetchErr != nil {
		sentry.CaptureRefreshFailure(ctx, report.Trigger, report.Failed, fetchErr)
	}

	for _, career := range s.fetcher.Careers() {
		courses, ok := results[career]
		if !ok {
			continue
		}
		if err := s.store.ReplaceCareer(ctx, career, courses); err != nil {
			return fmt.Errorf("failed to cache career %s: %w", career, err)
		}
		report.Fetched[career] = len(courses)
	}

	courses, err := s.store.LoadCourses(ctx, s.fetcher.Careers())
	if err != nil {
		return fmt.Errorf("failed to reload cached courses: %w", err)
	}
	report.Indexed = s.install(courses)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, courses); err != nil {
			s.logger.WithError(err).WarnContext(ctx, "catalog snapshot publish failed")
			sentry.CaptureExceptionWithContext(ctx, err)
		} else {
			report.Published = true
		}
	}
	return nil
}

// LoadFromCache builds the index from the on-disk cache. It returns
// ErrCacheEmpty when nothing is cached yet.
func (s *Service) LoadFromCache(ctx context.Context) (int, error) {
	courses, err := s.store.LoadCourses(ctx, s.fetcher.Careers())
	if err != nil {
		return 0, fmt.Errorf("failed to load cached courses: %w", err)
	}
	if len(courses) == 0 {
		return 0, domerrors.ErrCacheEmpty
	}
	n := s.install(courses)
	s.logger.InfoContext(ctx, "catalog index loaded from cache", "indexed", n)
	return n, nil
}

// Install caches courses received from another instance and rebuilds the
// index from them.
func (s *Service) Install(ctx context.Context, courses []course.Course) (int, error) {
	byCareer := make(map[string][]course.Course)
	for _, c := range courses {
		byCareer[c.Career] = append(byCareer[c.Career], c)
	}

	var errs []error
	for career, list := range byCareer {
		if career == "" {
			continue
		}
		if err := s.store.ReplaceCareer(ctx, career, list); err != nil {
			errs = append(errs, fmt.Errorf("failed to cache career %s: %w", career, err))
		}
	}

	n := s.install(courses)
	s.recordRefresh(TriggerSnapshot, "success", 0)
	s.logger.InfoContext(ctx, "catalog snapshot installed", "indexed", n)
	return n, errors.Join(errs...)
}

func (s *Service) install(courses []course.Course) int {
	engine := s.holder.Rebuild(courses)
	if s.metrics != nil {
		s.metrics.SetIndexSize(engine.Len())
	}
	return engine.Len()
}

// Stats reports index and cache sizes and the most recent refresh.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	cached, err := s.store.CountCourses(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count cached courses: %w", err)
	}
	careers, err := s.store.CountByCareer(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count cached careers: %w", err)
	}

	st := Stats{
		Indexed:    s.holder.Load().Len(),
		Cached:     cached,
		Careers:    careers,
		Refreshing: s.running.Load(),
	}
	s.mu.RLock()
	if s.last != nil {
		last := *s.last
		st.LastRefresh = &last
	}
	s.mu.RUnlock()
	return st, nil
}

// LastRefresh returns the most recent refresh report, or nil.
func (s *Service) LastRefresh() *RefreshReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	last := *s.last
	return &last
}

func (s *Service) recordRefresh(trigger, status string, seconds float64) {
	if s.metrics != nil {
		s.metrics.RecordRefresh(trigger, status, seconds)
	}
}
