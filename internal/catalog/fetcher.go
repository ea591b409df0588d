// Package catalog downloads the NCHU course catalog, keeps the SQLite cache
// current and rebuilds the in-memory search snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/nchu-course-helper/internal/course"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/scraper"
)

// Getter downloads a URL. *scraper.Client satisfies it.
type Getter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	BaseURL     string
	Careers     []string
	Concurrency int

	Metrics *metrics.Metrics // optional
	Logger  *logger.Logger   // optional
}

// Fetcher downloads and decodes catalog documents, one per career.
type Fetcher struct {
	client      Getter
	baseURL     string
	careers     []string
	concurrency int
	flight      scraper.Group[[]course.Course]
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewFetcher creates a Fetcher. Careers default to every known career code.
func NewFetcher(client Getter, opts FetcherOptions) *Fetcher {
	careers := make([]string, 0, len(opts.Careers))
	for _, c := range opts.Careers {
		careers = append(careers, strings.ToUpper(strings.TrimSpace(c)))
	}
	if len(careers) == 0 {
		for _, cc := range course.CareerCodes {
			careers = append(careers, cc.Code)
		}
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewWithWriter("info", io.Discard)
	}

	return &Fetcher{
		client:      client,
		baseURL:     opts.BaseURL,
		careers:     careers,
		concurrency: concurrency,
		metrics:     opts.Metrics,
		logger:      log,
	}
}

// Careers returns the configured career codes in fetch order.
func (f *Fetcher) Careers() []string {
	return append([]string(nil), f.careers...)
}

// CareerURL returns the catalog URL of one career.
func (f *Fetcher) CareerURL(code string) string {
	sep := "?"
	if strings.Contains(f.baseURL, "?") {
		sep = "&"
	}
	return f.baseURL + sep + "p_career=" + url.QueryEscape(code)
}

// FetchCareer downloads one career. Concurrent calls for the same career
// share a single request.
func (f *Fetcher) FetchCareer(ctx context.Context, code string) ([]course.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !course.IsCareerCode(code) {
		return nil, domerrors.NewValidationError("career", fmt.Sprintf("unknown career code %q", code))
	}

	courses, shared, err := f.flight.Do(ctx, code, func(ctx context.Context) ([]course.Course, error) {
		return f.download(ctx, code)
	})
	if shared && f.metrics != nil {
		f.metrics.RecordSingleflightDedup("catalog")
	}
	if err != nil {
		return nil, &domerrors.CareerError{Career: code, Err: err}
	}
	return courses, nil
}

func (f *Fetcher) download(ctx context.Context, code string) ([]course.Course, error) {
	target := f.CareerURL(code)
	start := time.Now()

	body, err := f.client.GetBytes(ctx, target)
	if err != nil {
		f.record(code, fetchStatus(err), start)
		var statusErr *scraper.StatusError
		status := 0
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		return nil, domerrors.NewScraperError(target, status, err)
	}

	courses, skipped, err := Decode(body, code)
	if err != nil {
		f.record(code, "decode_error", start)
		return nil, domerrors.NewScraperError(target, 0, err)
	}
	f.record(code, "success", start)
	if f.metrics != nil {
		f.metrics.SetCatalogCourses(code, len(courses))
	}

	f.logger.InfoContext(ctx, "fetched catalog career",
		"career", code,
		"career_name", course.CareerName(code),
		"courses", len(courses),
		"skipped", skipped,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds())
	return courses, nil
}

func (f *Fetcher) record(code, status string, start time.Time) {
	if f.metrics != nil {
		f.metrics.RecordCatalogFetch(code, status, time.Since(start).Seconds())
	}
}

func fetchStatus(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case scraper.IsNetworkError(err):
		return "network"
	default:
		return "error"
	}
}

// FetchAll downloads every configured career with bounded concurrency.
//
// A failing career does not stop the others. The returned map holds every
// career that succeeded; the error joins one *CareerError per failed career.
// When every career fails the error also wraps ErrCatalogUnavailable and the
// map is nil.
func (f *Fetcher) FetchAll(ctx context.Context) (map[string][]course.Course, error) {
	var (
		mu      sync.Mutex
		results = make(map[string][]course.Course, len(f.careers))
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, code := range f.careers {
		g.Go(func() error {
			courses, err := f.FetchCareer(gctx, code)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.WarnContext(gctx, "catalog career fetch failed", "career", code, "error", err)
				errs = append(errs, err)
				return nil
			}
			results[code] = courses
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", domerrors.ErrCatalogUnavailable, errors.Join(errs...))
	}
	return results, errors.Join(errs...)
}

// FailedCareers lists the career codes reported by the CareerErrors in err.
func FailedCareers(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case nil:
		case *domerrors.CareerError:
			out = append(out, v.Career)
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(v.Unwrap())
		}
	}
	walk(err)
	return out
}

// Decode parses one catalog document. ASCII control characters
// (U+0000-U+001F, U+007F-U+009F) are removed first because the catalog emits
// raw control bytes inside string literals. Records without a code are
// skipped and counted; every record is tagged with career.
func Decode(body []byte, career string) ([]course.Course, int, error) {
	var doc struct {
		Course []course.Course `json:"course"`
	}
	if err := json.Unmarshal([]byte(StripControl(string(body))), &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to decode catalog: %w", err)
	}

	out := make([]course.Course, 0, len(doc.Course))
	skipped := 0
	for _, c := range doc.Course {
		c.Code = strings.TrimSpace(c.Code)
		if c.Code == "" {
			skipped++
			continue
		}
		c.Career = career
		out = append(out, c)
	}
	return out, skipped, nil
}

// StripControl removes C0 and C1 control characters and DEL.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x1f || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
}
