package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapper(t *testing.T) {
	wrapper := NewWrapper("catalog", "refresh")

	t.Run("Wrap returns nil for nil error", func(t *testing.T) {
		if got := wrapper.Wrap(nil, "課程資料更新失敗"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
		if got := wrapper.Wrapf(nil, "學制 %s 更新失敗", "U"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("Wrap keeps module, operation and cause", func(t *testing.T) {
		wrapped := wrapper.Wrap(ErrCatalogUnavailable, "課程資料更新失敗")

		var we *WrappedError
		if !errors.As(wrapped, &we) {
			t.Fatal("expected WrappedError type")
		}
		if we.Module != "catalog" || we.Operation != "refresh" {
			t.Errorf("unexpected context %s:%s", we.Module, we.Operation)
		}
		if !errors.Is(wrapped, ErrCatalogUnavailable) {
			t.Error("wrapped error should unwrap to cause")
		}
		want := "[catalog:refresh] 課程資料更新失敗: course catalog unavailable"
		if wrapped.Error() != want {
			t.Errorf("expected %q, got %q", want, wrapped.Error())
		}
	})

	t.Run("Wrapf formats message", func(t *testing.T) {
		wrapped := wrapper.Wrapf(errors.New("timeout"), "學制 %s 更新失敗", "G")
		if got := GetUserMessage(wrapped); got != "學制 G 更新失敗" {
			t.Errorf("expected formatted message, got %q", got)
		}
	})
}

func TestGetUserMessage(t *testing.T) {
	if got := GetUserMessage(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}

	inner := NewWrapper("storage", "load").Wrap(errors.New("disk I/O"), "讀取快取失敗")
	outer := fmt.Errorf("startup: %w", inner)
	if got := GetUserMessage(outer); got != "讀取快取失敗" {
		t.Errorf("expected message through fmt wrapping, got %q", got)
	}

	if got := GetUserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("expected 'plain error', got %q", got)
	}
}
