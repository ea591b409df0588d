package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/nchu-course-helper/internal/ctxutil"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/ratelimit"
)

func echoRequestID(c *gin.Context) {
	id, _ := ctxutil.GetRequestID(c.Request.Context())
	c.String(http.StatusOK, id)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", echoRequestID)

	t.Run("propagates caller id", func(t *testing.T) {
		w := do(r, http.MethodGet, "/", "", RequestIDHeader, "abc-123")
		assert.Equal(t, "abc-123", w.Body.String())
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("accepts correlation id", func(t *testing.T) {
		w := do(r, http.MethodGet, "/", "", "X-Correlation-Id", "corr-1")
		assert.Equal(t, "corr-1", w.Body.String())
	})

	t.Run("generates when absent", func(t *testing.T) {
		w := do(r, http.MethodGet, "/", "")
		assert.Len(t, w.Body.String(), 36)
		assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		long := strings.Repeat("x", maxRequestIDLength+1)
		w := do(r, http.MethodGet, "/", "", RequestIDHeader, long)
		assert.NotEqual(t, long, w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("debug", &buf)
	m := metrics.New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(RequestID(), Logging(log, m))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(r, http.MethodGet, "/ok", "", RequestIDHeader, "log-1")
	do(r, http.MethodGet, "/boom", "")
	do(r, http.MethodGet, "/missing", "")

	out := buf.String()
	assert.Contains(t, out, `"http_route":"/ok"`)
	assert.Contains(t, out, `"request_id":"log-1"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"http_route":"unmatched"`)

	assert.Equal(t, 3, testutil.CollectAndCount(m.HTTPRequestsTotal))
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/ok", "2xx")), 0)
}

func TestRateLimit_Global(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := gin.New()
	r.Use(RequestID(), RateLimit(ratelimit.New(2, 0.001), nil, m))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)

	w := do(r, http.MethodGet, "/", "", RequestIDHeader, "rl-1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "rl-1", decode[errorResponse](t, w).RequestID)
}

func TestRateLimit_PerClient(t *testing.T) {
	perClient := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "client",
		Burst:      1,
		RefillRate: 0.001,
	})
	t.Cleanup(perClient.Stop)

	r := gin.New()
	r.Use(RateLimit(nil, perClient, nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}
