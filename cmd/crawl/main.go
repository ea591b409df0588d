// Package main fetches the course catalog once into the SQLite cache and
// optionally publishes it to R2 for running servers to pick up.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/garyellow/nchu-course-helper/internal/alias"
	"github.com/garyellow/nchu-course-helper/internal/app"
	"github.com/garyellow/nchu-course-helper/internal/catalog"
	"github.com/garyellow/nchu-course-helper/internal/config"
	"github.com/garyellow/nchu-course-helper/internal/course"
	"github.com/garyellow/nchu-course-helper/internal/metrics"
	"github.com/garyellow/nchu-course-helper/internal/search"
	"github.com/garyellow/nchu-course-helper/internal/storage"
)

// CLI flags
var (
	careersFlag = flag.String("careers", "", "Comma-separated career codes to fetch (default: CATALOG_CAREERS)")
	publishFlag = flag.Bool("publish", false, "Upload the resulting catalog snapshot to R2")
	timeoutFlag = flag.Duration("timeout", config.RefreshTimeout, "Overall time limit")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadForMode(config.CrawlMode)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *careersFlag != "" {
		careers, err := parseCareers(*careersFlag)
		if err != nil {
			return err
		}
		cfg.CatalogCareers = careers
	}
	if *publishFlag && !cfg.R2.Enabled {
		return fmt.Errorf("-publish requires %s=true", config.EnvR2Enabled)
	}

	m := metrics.New(prometheus.NewRegistry())
	log := app.NewLogger(cfg, m)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = log.Shutdown(ctx)
	}()
	log.WithField("careers", cfg.CatalogCareers).Info("Starting catalog crawl")

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { _ = db.Close() }()

	opts := catalog.ServiceOptions{Metrics: m, Logger: log}
	if *publishFlag {
		mgr, _, err := app.NewSnapshotManager(ctx, cfg, log)
		if err != nil {
			return err
		}
		opts.Publisher = mgr
	}

	svc := catalog.NewService(app.NewFetcher(cfg, m, log), db, search.NewHolder(alias.Default()), opts)
	report, err := svc.Refresh(ctx, catalog.TriggerCLI)
	if report != nil {
		printReport(os.Stdout, cfg.CatalogCareers, report)
	}
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	if *publishFlag && !report.Published {
		return fmt.Errorf("snapshot publish failed")
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("careers failed: %s", strings.Join(report.Failed, ","))
	}
	return nil
}

// parseCareers splits a comma-separated list of career codes, upper-casing
// and dropping blanks. Unknown codes are rejected.
func parseCareers(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if !course.IsCareerCode(code) {
			return nil, fmt.Errorf("unknown career code %q", code)
		}
		out = append(out, code)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no career codes in %q", s)
	}
	return out, nil
}

func printReport(w io.Writer, careers []string, report *catalog.RefreshReport) {
	failed := make(map[string]bool, len(report.Failed))
	for _, c := range report.Failed {
		failed[c] = true
	}

	for _, code := range careers {
		name := course.CareerName(code)
		switch {
		case failed[code]:
			_, _ = fmt.Fprintf(w, "  %s %-6s failed\n", code, name)
		default:
			_, _ = fmt.Fprintf(w, "  %s %-6s %d courses\n", code, name, report.Fetched[code])
		}
	}
	_, _ = fmt.Fprintf(w, "✅ %d courses indexed in %v", report.Indexed, report.Duration.Round(time.Millisecond))
	if report.Published {
		_, _ = fmt.Fprint(w, ", snapshot published")
	}
	_, _ = fmt.Fprintln(w)
}
