// Package main provides the course helper HTTP server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata" // Asia/Taipei for the daily refresh on minimal images

	"github.com/garyellow/nchu-course-helper/internal/app"
	"github.com/garyellow/nchu-course-helper/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	application, err := app.Initialize(context.Background(), cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}
