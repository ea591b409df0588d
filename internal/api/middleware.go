package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyellow/nchu-course-helper/internal/ctxutil"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/ratelimit"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// RequestID takes the caller's X-Request-Id (or X-Correlation-Id) or
// generates one, stores it and the client IP on the request context and
// echoes the ID in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-Id")
		}
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// Logging logs each request with a status-based level:
// 5xx=Error, 4xx=Warn except 404, everything else Debug.
func Logging(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if m != nil {
			m.RecordHTTPRequest(route, status)
		}

		ctx := c.Request.Context()
		entry := log.WithField("http_method", c.Request.Method).
			WithField("http_path", path).
			WithField("http_route", route).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds())
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.ErrorContext(ctx, "HTTP request failed")
		case status >= 400 && status != http.StatusNotFound:
			entry.WarnContext(ctx, "HTTP request rejected")
		default:
			entry.DebugContext(ctx, "HTTP request completed")
		}
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// RateLimit rejects requests with 429 when the global bucket or the caller's
// per-IP bucket is empty. Either limiter may be nil.
func RateLimit(global *ratelimit.Limiter, perClient *ratelimit.KeyedLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perClient != nil && !perClient.Allow(c.ClientIP()) {
			reject(c)
			return
		}
		if global != nil && !global.Allow() {
			if m != nil {
				m.RecordRateLimiterDrop("global")
			}
			reject(c)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context) {
	requestID, _ := ctxutil.GetRequestID(c.Request.Context())
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
		Error:     domerrors.ErrRateLimitExceeded.Error(),
		RequestID: requestID,
	})
}

// AdminAuth requires "Authorization: Bearer <token>".
func AdminAuth(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), expected) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: domerrors.ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}
