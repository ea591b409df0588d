package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// lockedBuffer is a bytes.Buffer safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Count(sub string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Count(b.buf.Bytes(), []byte(sub))
}

type failingHandler struct {
	slog.Handler
}

func (h *failingHandler) Handle(context.Context, slog.Record) error { return errors.New("ship failed") }
func (h *failingHandler) Enabled(context.Context, slog.Level) bool  { return true }

// blockingHandler holds every record until release is closed.
type blockingHandler struct {
	slog.Handler
	release chan struct{}
}

func (h *blockingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *blockingHandler) Handle(context.Context, slog.Record) error {
	<-h.release
	return nil
}

func TestFanout_LevelsAndAttrs(t *testing.T) {
	t.Parallel()

	var debugBuf, errorBuf bytes.Buffer
	mh := newFanout(
		nil,
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if len(mh) != 2 {
		t.Fatalf("Expected 2 handlers after filtering nils, got %d", len(mh))
	}
	if !mh.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected debug enabled when any handler accepts it")
	}

	slog.New(mh.WithAttrs([]slog.Attr{slog.String("module", "api")})).Info("search", "total", 3)

	var entry map[string]any
	if err := json.Unmarshal(debugBuf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if entry["module"] != "api" || entry["total"] != float64(3) {
		t.Errorf("Unexpected entry: %v", entry)
	}
	if errorBuf.Len() != 0 {
		t.Errorf("Error handler should not receive info records, got %s", errorBuf.String())
	}
}

func TestFanout_CollectsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mh := newFanout(slog.NewJSONHandler(&buf, nil), &failingHandler{})

	err := mh.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0))
	if err == nil {
		t.Fatal("Expected error from failing handler")
	}
	if buf.Len() == 0 {
		t.Error("Healthy handler should still have written the record")
	}
}

func TestAsyncHandler_DeliversBeforeShutdown(t *testing.T) {
	t.Parallel()

	buf := &lockedBuffer{}
	ah := NewAsyncHandler(slog.NewJSONHandler(buf, nil), AsyncOptions{BufferSize: 256})
	logger := slog.New(ah)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Go(func() { logger.Info("queued", "i", i) })
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ah.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := buf.Count("queued"); got != 100 {
		t.Errorf("Expected 100 delivered records, got %d", got)
	}

	// Records after shutdown are dropped, and a second shutdown is a no-op.
	logger.Info("late")
	if err := ah.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if buf.Count("late") != 0 {
		t.Error("Expected record after shutdown to be dropped")
	}
}

func TestAsyncHandler_DropsWhenFull(t *testing.T) {
	t.Parallel()

	var onDrop atomic.Int32
	remote := &blockingHandler{release: make(chan struct{})}
	ah := NewAsyncHandler(remote, AsyncOptions{BufferSize: 1, OnDrop: func() { onDrop.Add(1) }})
	logger := slog.New(ah)

	for i := range 10 {
		logger.Warn("refresh failed", "attempt", i)
	}

	// At most one record is in flight and one buffered.
	if got := ah.Dropped(); got < 8 {
		t.Errorf("Dropped() = %d, want at least 8", got)
	}
	if got := uint64(onDrop.Load()); got != ah.Dropped() {
		t.Errorf("OnDrop calls = %d, want %d", got, ah.Dropped())
	}

	close(remote.release)
	if err := ah.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestAsyncHandler_NilShutdown(t *testing.T) {
	t.Parallel()

	var ah *AsyncHandler
	if err := ah.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown() error = %v", err)
	}
}
