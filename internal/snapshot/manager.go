// Package snapshot distributes the built course catalog through R2.
// The refreshing instance publishes a zstd-compressed JSON document; other
// instances poll its ETag and install the catalog when it changes.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/garyellow/nchu-course-helper/internal/course"
	"github.com/garyellow/nchu-course-helper/internal/logger"
	"github.com/garyellow/nchu-course-helper/internal/r2client"
)

// FormatVersion is bumped when Document changes incompatibly.
const FormatVersion = 1

// ErrNotFound indicates no snapshot exists in R2.
var ErrNotFound = errors.New("snapshot: not found")

// ObjectStore is the subset of the R2 client the manager needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	HeadObject(ctx context.Context, key string) (string, error)
}

// InstallFunc receives a newly downloaded catalog.
type InstallFunc func(ctx context.Context, courses []course.Course) error

// Document is the published object.
type Document struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Courses     []course.Course `json:"courses"`
}

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey    string        // e.g. "snapshots/catalog.json.zst"
	PollInterval   time.Duration // How often to check for a new snapshot
	RequestTimeout time.Duration // Per R2 call, 0 = none
}

// Manager publishes and follows the catalog snapshot.
type Manager struct {
	client ObjectStore
	config Config
	logger *logger.Logger

	mu          sync.RWMutex
	currentETag string

	pollMu     sync.Mutex
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates a new snapshot manager.
func New(client ObjectStore, cfg Config, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewWithWriter("info", io.Discard)
	}
	return &Manager{
		client: client,
		config: cfg,
		logger: log.WithModule("snapshot"),
	}
}

// Publish uploads courses as the current snapshot.
func (m *Manager) Publish(ctx context.Context, courses []course.Course) error {
	data, err := r2client.EncodeJSON(Document{
		Version:     FormatVersion,
		GeneratedAt: time.Now().UTC(),
		Courses:     courses,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	etag, err := m.client.Upload(ctx, m.config.SnapshotKey, bytes.NewReader(data), r2client.ContentTypeZstd)
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}

	m.SetCurrentETag(etag)
	m.logger.InfoContext(ctx, "snapshot published",
		"courses", len(courses),
		"bytes", len(data),
		"etag", etag)
	return nil
}

// Fetch downloads the current snapshot. It returns ErrNotFound when none has
// been published.
func (m *Manager) Fetch(ctx context.Context) ([]course.Course, string, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	body, etag, err := m.client.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("download snapshot: %w", err)
	}
	defer func() { _ = body.Close() }()

	var doc Document
	if err := r2client.DecodeJSON(body, &doc); err != nil {
		return nil, "", fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, "", fmt.Errorf("snapshot: unsupported format version %d", doc.Version)
	}
	return doc.Courses, etag, nil
}

// Sync installs the remote snapshot when its ETag differs from the current
// one. It reports whether a new catalog was installed.
func (m *Manager) Sync(ctx context.Context, install InstallFunc) (bool, error) {
	headCtx, cancel := m.withTimeout(ctx)
	remoteETag, err := m.client.HeadObject(headCtx, m.config.SnapshotKey)
	cancel()
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("head snapshot: %w", err)
	}
	if remoteETag == m.CurrentETag() {
		return false, nil
	}

	courses, etag, err := m.Fetch(ctx)
	if err != nil {
		return false, err
	}
	if err := install(ctx, courses); err != nil {
		return false, fmt.Errorf("install snapshot: %w", err)
	}

	m.SetCurrentETag(etag)
	m.logger.InfoContext(ctx, "snapshot installed",
		"courses", len(courses),
		"etag", etag)
	return true, nil
}

// StartPolling calls Sync every PollInterval until ctx is done or
// StopPolling is called.
func (m *Manager) StartPolling(ctx context.Context, install InstallFunc) {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if m.pollCancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.pollCancel = cancel
	m.pollDone = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(m.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				m.logger.Info("snapshot polling stopped")
				return
			case <-ticker.C:
				if _, err := m.Sync(pollCtx, install); err != nil && pollCtx.Err() == nil {
					m.logger.WithError(err).Warn("snapshot poll failed")
				}
			}
		}
	}()

	m.logger.Info("snapshot polling started",
		"interval", m.config.PollInterval.String(),
		"snapshot_key", m.config.SnapshotKey)
}

// StopPolling stops the polling goroutine and waits for it to exit.
func (m *Manager) StopPolling() {
	m.pollMu.Lock()
	cancel, done := m.pollCancel, m.pollDone
	m.pollCancel, m.pollDone = nil, nil
	m.pollMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// CurrentETag returns the ETag of the snapshot last published or installed.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}

// SetCurrentETag sets the current ETag.
func (m *Manager) SetCurrentETag(etag string) {
	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.config.RequestTimeout)
}
