// Package api exposes course search, schedule preview and catalog
// administration over HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/nchu-course-helper/internal/catalog"
	"github.com/garyellow/nchu-course-helper/internal/ctxutil"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/search"
)

const (
	defaultMaxLimit       = 100
	defaultRefreshTimeout = 10 * time.Minute

	// maxScheduleCourses bounds one schedule preview request.
	maxScheduleCourses = 60
)

// Catalog is the catalog service as seen by the admin routes.
type Catalog interface {
	Refresh(ctx context.Context, trigger string) (*catalog.RefreshReport, error)
	Refreshing() bool
	Stats(ctx context.Context) (catalog.Stats, error)
}

// Options configures a Handler.
type Options struct {
	Holder         *search.Holder
	Catalog        Catalog // optional, admin routes are disabled without it
	AdminToken     string  // admin routes are disabled when empty
	MaxLimit       int
	RefreshTimeout time.Duration
	Metrics        *metrics.Metrics // optional
	Logger         *logger.Logger   // optional
}

// Handler serves the HTTP API.
type Handler struct {
	holder         *search.Holder
	catalog        Catalog
	adminToken     string
	maxLimit       int
	refreshTimeout time.Duration
	metrics        *metrics.Metrics
	logger         *logger.Logger

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewWithWriter("info", io.Discard)
	}
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Handler{
		holder:         opts.Holder,
		catalog:        opts.Catalog,
		adminToken:     opts.AdminToken,
		maxLimit:       maxLimit,
		refreshTimeout: refreshTimeout,
		metrics:        opts.Metrics,
		logger:         log.WithModule("api"),
		bgCtx:          bgCtx,
		bgCancel:       bgCancel,
	}
}

// Register mounts the public /api routes and, when configured, /admin.
func (h *Handler) Register(r gin.IRouter) {
	v := r.Group("/api")
	v.GET("/courses", h.searchCourses)
	v.GET("/courses/:code", h.getCourse)
	v.GET("/departments", h.listDepartments)
	v.GET("/careers", h.listCareers)
	v.GET("/periods", h.listPeriods)
	v.POST("/schedule", h.buildSchedule)

	if h.catalog != nil && h.adminToken != "" {
		admin := r.Group("/admin", AdminAuth(h.adminToken))
		admin.POST("/refresh", h.triggerRefresh)
		admin.GET("/stats", h.catalogStats)
	}
}

// Shutdown cancels background refreshes started by the admin route and waits
// for them to return.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.bgCancel()

	done := make(chan struct{})
	go func() {
		h.bgWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// respondError writes err with the status derived from its kind. Server-side
// failures are logged and hidden behind a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := domerrors.HTTPStatus(err)
	msg := domerrors.GetUserMessage(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).ErrorContext(c.Request.Context(), "request failed",
			"route", c.FullPath())
		if msg == err.Error() {
			msg = http.StatusText(status)
		}
	}
	if h.metrics != nil {
		h.metrics.RecordHTTPError(errorType(status), c.FullPath())
	}

	requestID, _ := ctxutil.GetRequestID(c.Request.Context())
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, RequestID: requestID})
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}
