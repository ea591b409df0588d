// Package scraper provides the HTTP client used to download the course
// catalog: rate limited, retried with backoff, with rotating User-Agents.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"github.com/klauspost/compress/gzip"

	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/ratelimit"
)

// maxBodySize bounds a single catalog response. The largest career document
// is a few megabytes.
const maxBodySize = 64 << 20

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryInitial time.Duration
	MinInterval  time.Duration // Minimum spacing between outgoing requests

	Metrics *metrics.Metrics // optional
	Logger  *logger.Logger   // optional
}

// Client is an HTTP client for catalog downloads.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	retry       RetryPolicy
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewClient creates a new scraper client.
func NewClient(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.NewWithWriter("info", io.Discard)
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: ratelimit.NewEvery(opts.MinInterval),
		metrics:     opts.Metrics,
		logger:      log,
	}
	c.retry = RetryPolicy{
		MaxRetries:   opts.MaxRetries,
		InitialDelay: opts.RetryInitial,
		MaxDelay:     30 * time.Second,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying catalog request",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err)
		},
	}
	return c
}

// GetBytes performs a GET request with rate limiting and retries and returns
// the decoded body. 4xx responses other than 408/429 are not retried.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := RetryWithBackoff(ctx, c.retry, func() error {
		waitStart := time.Now()
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return &permanentError{err: err}
		}
		if c.metrics != nil {
			c.metrics.RecordRateLimiterWait("scraper", time.Since(waitStart).Seconds())
		}

		b, err := c.fetch(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "application/json,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &permanentError{err: ctx.Err()}
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if !statusErr.Retryable() {
			return nil, &permanentError{err: statusErr}
		}
		return nil, statusErr
	}

	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, &permanentError{err: fmt.Errorf("response from %s exceeds %d bytes", url, maxBodySize)}
	}
	return body, nil
}
