package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()
	l := New(10, 5)
	if l.maxTokens != 10 {
		t.Errorf("maxTokens = %v, want 10", l.maxTokens)
	}
	if l.refillRate != 5 {
		t.Errorf("refillRate = %v, want 5", l.refillRate)
	}
	if l.tokens != 10 {
		t.Errorf("initial tokens = %v, want 10", l.tokens)
	}
}

func TestNewPerSecond(t *testing.T) {
	t.Parallel()
	l := NewPerSecond(50)
	if l.refillRate != 50 || l.maxTokens != 100 {
		t.Errorf("NewPerSecond(50) = rate %v burst %v, want 50/100", l.refillRate, l.maxTokens)
	}
	small := NewPerSecond(0.2)
	if small.maxTokens != 1 {
		t.Errorf("NewPerSecond(0.2) burst = %v, want 1", small.maxTokens)
	}
}

func TestNewEvery(t *testing.T) {
	t.Parallel()
	l := NewEvery(500 * time.Millisecond)
	if l.maxTokens != 1 || l.refillRate != 2 {
		t.Errorf("NewEvery(500ms) = rate %v burst %v, want 2/1", l.refillRate, l.maxTokens)
	}

	unlimited := NewEvery(0)
	for i := range 5 {
		if !unlimited.Allow() {
			t.Fatalf("NewEvery(0) denied request %d", i+1)
		}
	}
}

func TestAllow(t *testing.T) {
	t.Parallel()
	t.Run("allows when tokens available", func(t *testing.T) {
		t.Parallel()
		l := New(5, 1)
		for i := 0; i < 5; i++ {
			if !l.Allow() {
				t.Errorf("Allow() = false on attempt %d, want true", i+1)
			}
		}
	})

	t.Run("denies when no tokens", func(t *testing.T) {
		t.Parallel()
		l := New(2, 0)
		l.Allow()
		l.Allow()
		if l.Allow() {
			t.Error("Allow() = true when no tokens, want false")
		}
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		l := New(1, 100)
		l.Allow()

		time.Sleep(20 * time.Millisecond)

		if !l.Allow() {
			t.Error("Allow() = false after refill time, want true")
		}
	})
}

func TestWait(t *testing.T) {
	t.Parallel()
	t.Run("returns immediately when tokens available", func(t *testing.T) {
		t.Parallel()
		l := New(5, 1)

		start := time.Now()
		err := l.Wait(context.Background())
		elapsed := time.Since(start)

		if err != nil {
			t.Errorf("Wait() error = %v, want nil", err)
		}
		if elapsed > 10*time.Millisecond {
			t.Errorf("Wait() took %v, expected immediate return", elapsed)
		}
	})

	t.Run("waits for token", func(t *testing.T) {
		t.Parallel()
		l := New(1, 50) // 20ms per token
		l.Allow()

		start := time.Now()
		err := l.Wait(context.Background())
		elapsed := time.Since(start)

		if err != nil {
			t.Errorf("Wait() error = %v, want nil", err)
		}
		if elapsed < 15*time.Millisecond {
			t.Errorf("Wait() took %v, expected ~20ms wait", elapsed)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()
		l := New(0, 0.1)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
		}
	})

	t.Run("zero refill waits for cancellation", func(t *testing.T) {
		t.Parallel()
		l := New(0, 0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() error = %v, want context.Canceled", err)
		}
	})
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	l := New(100, 0)

	var wg sync.WaitGroup
	allowed := make(chan struct{}, 200)

	for range 50 {
		wg.Go(func() {
			if l.Allow() {
				allowed <- struct{}{}
			}
			if l.Allow() {
				allowed <- struct{}{}
			}
		})
	}

	wg.Wait()
	close(allowed)

	count := 0
	for range allowed {
		count++
	}

	if count != 100 {
		t.Errorf("concurrent Allow() allowed %d requests, want 100", count)
	}
}

func TestIsFull(t *testing.T) {
	t.Parallel()
	t.Run("full when at max capacity", func(t *testing.T) {
		t.Parallel()
		if !New(10, 1).IsFull() {
			t.Error("IsFull() = false for new limiter, want true")
		}
	})

	t.Run("not full after consuming tokens", func(t *testing.T) {
		t.Parallel()
		l := New(10, 0)
		l.Allow()
		if l.IsFull() {
			t.Error("IsFull() = true after Allow(), want false")
		}
	})

	t.Run("becomes full after refill", func(t *testing.T) {
		t.Parallel()
		l := New(1, 100)
		l.Allow()

		time.Sleep(20 * time.Millisecond)

		if !l.IsFull() {
			t.Error("IsFull() = false after refill, want true")
		}
	})
}
