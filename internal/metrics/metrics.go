// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Catalog fetch metrics
	CatalogRequestsTotal   *prometheus.CounterVec
	CatalogDurationSeconds *prometheus.HistogramVec
	CatalogCourses         *prometheus.GaugeVec

	// Refresh metrics
	RefreshTotal           *prometheus.CounterVec
	RefreshDurationSeconds prometheus.Histogram

	// Index metrics
	IndexCourses prometheus.Gauge

	// Query metrics
	SearchRequestsTotal   *prometheus.CounterVec
	SearchDurationSeconds prometheus.Histogram
	ScheduleBuildsTotal   *prometheus.CounterVec
	ScheduleConflicts     prometheus.Histogram

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPErrorsTotal   *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec
	RateLimiterClients      *prometheus.GaugeVec

	// Singleflight metrics
	SingleflightDedupTotal *prometheus.CounterVec

	// Log shipping metrics
	LogRecordsDropped prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		CatalogRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_catalog_requests_total",
				Help: "Total number of catalog fetches by career and status",
			},
			[]string{"career", "status"}, // status: success, error, network, timeout, canceled
		),

		CatalogDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nchu_catalog_duration_seconds",
				Help:    "Catalog fetch duration in seconds by career",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"career"},
		),

		CatalogCourses: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nchu_catalog_courses",
				Help: "Number of courses returned by the last successful fetch by career",
			},
			[]string{"career"},
		),

		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_refresh_total",
				Help: "Total number of catalog refreshes by trigger and status",
			},
			[]string{"trigger", "status"}, // status: success, partial, error, skipped
		),

		RefreshDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nchu_refresh_duration_seconds",
				Help:    "Duration of a full catalog refresh",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		IndexCourses: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nchu_index_courses",
				Help: "Number of courses in the active search snapshot",
			},
		),

		SearchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_search_requests_total",
				Help: "Total number of course searches by outcome",
			},
			[]string{"outcome"}, // outcome: hit, empty, invalid
		),

		SearchDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nchu_search_duration_seconds",
				Help:    "Course search duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),

		ScheduleBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_schedule_builds_total",
				Help: "Total number of timetable builds by conflict state",
			},
			[]string{"conflict"}, // conflict: true, false
		),

		ScheduleConflicts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nchu_schedule_conflicts",
				Help:    "Number of conflicting cells per timetable build",
				Buckets: []float64{0, 1, 2, 4, 8, 16},
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"}, // status: 2xx, 4xx, 5xx
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: invalid_input, not_found, rate_limit, internal
		),

		RateLimiterWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nchu_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"limiter_type"}, // limiter_type: scraper, api
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"},
		),

		RateLimiterClients: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nchu_rate_limiter_clients",
				Help: "Number of clients currently tracked by a keyed rate limiter",
			},
			[]string{"limiter_type"},
		),

		SingleflightDedupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nchu_singleflight_dedup_total",
				Help: "Total number of deduplicated requests (requests that waited instead of executing)",
			},
			[]string{"module"},
		),

		LogRecordsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nchu_log_records_dropped_total",
				Help: "Total number of log records dropped because the remote shipping queue was full",
			},
		),
	}
}

// RecordCatalogFetch records a catalog fetch for one career.
func (m *Metrics) RecordCatalogFetch(career, status string, duration float64) {
	m.CatalogRequestsTotal.WithLabelValues(career, status).Inc()
	m.CatalogDurationSeconds.WithLabelValues(career).Observe(duration)
}

// SetCatalogCourses records the course count of a successful career fetch.
func (m *Metrics) SetCatalogCourses(career string, count int) {
	m.CatalogCourses.WithLabelValues(career).Set(float64(count))
}

// RecordRefresh records a finished refresh.
func (m *Metrics) RecordRefresh(trigger, status string, duration float64) {
	m.RefreshTotal.WithLabelValues(trigger, status).Inc()
	if status != "skipped" {
		m.RefreshDurationSeconds.Observe(duration)
	}
}

// SetIndexSize records the active snapshot size.
func (m *Metrics) SetIndexSize(n int) {
	m.IndexCourses.Set(float64(n))
}

// RecordSearch records a search request.
func (m *Metrics) RecordSearch(outcome string, duration float64) {
	m.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome != "invalid" {
		m.SearchDurationSeconds.Observe(duration)
	}
}

// RecordSchedule records a timetable build and its conflict count.
func (m *Metrics) RecordSchedule(conflicts int) {
	state := "false"
	if conflicts > 0 {
		state = "true"
	}
	m.ScheduleBuildsTotal.WithLabelValues(state).Inc()
	m.ScheduleConflicts.Observe(float64(conflicts))
}

// RecordHTTPRequest records a served request by status class.
func (m *Metrics) RecordHTTPRequest(route string, status int) {
	m.HTTPRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterClients records how many keys a keyed limiter tracks.
func (m *Metrics) SetRateLimiterClients(limiterType string, count int) {
	m.RateLimiterClients.WithLabelValues(limiterType).Set(float64(count))
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordLogDropped counts one log record dropped before remote shipping.
func (m *Metrics) RecordLogDropped() {
	m.LogRecordsDropped.Inc()
}
