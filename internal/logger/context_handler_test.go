package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/garyellow/nchu-course-helper/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		setupContext   func(context.Context) context.Context
		expectedFields map[string]string
	}{
		{
			name: "extracts all context values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "req-abc-123")
				ctx = ctxutil.WithClientIP(ctx, "203.0.113.9")
				return ctxutil.WithJob(ctx, "hourly_stats")
			},
			expectedFields: map[string]string{
				"request_id": "req-abc-123",
				"client_ip":  "203.0.113.9",
				"job":        "hourly_stats",
			},
		},
		{
			name: "extracts partial context values",
			setupContext: func(ctx context.Context) context.Context {
				return ctxutil.WithJob(ctx, "daily_refresh")
			},
			expectedFields: map[string]string{"job": "daily_refresh"},
		},
		{
			name:           "handles empty context",
			setupContext:   func(ctx context.Context) context.Context { return ctx },
			expectedFields: map[string]string{},
		},
		{
			name: "skips empty string values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "")
				return ctxutil.WithClientIP(ctx, "198.51.100.4")
			},
			expectedFields: map[string]string{"client_ip": "198.51.100.4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewContextHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			slog.New(handler).InfoContext(tt.setupContext(context.Background()), "test message")

			output := buf.String()
			for key, value := range tt.expectedFields {
				if !strings.Contains(output, `"`+key+`":"`+value+`"`) {
					t.Errorf("Expected field %s=%s not found in output: %s", key, value, output)
				}
			}
			for _, field := range []string{"request_id", "client_ip", "job"} {
				if _, want := tt.expectedFields[field]; !want && strings.Contains(output, `"`+field+`"`) {
					t.Errorf("Unexpected field %s found in output: %s", field, output)
				}
			}
		})
	}
}

func TestContextHandler_Enabled(t *testing.T) {
	handler := NewContextHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := context.Background()

	if handler.Enabled(ctx, slog.LevelDebug) {
		t.Error("Expected debug to be disabled at info level")
	}
	if !handler.Enabled(ctx, slog.LevelError) {
		t.Error("Expected error to be enabled at info level")
	}
}

func TestContextHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	handler := NewContextHandler(slog.NewJSONHandler(&buf, nil))

	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("service", "nchu-course-helper")}).WithGroup("catalog"))
	ctx := ctxutil.WithRequestID(context.Background(), "req-9")
	logger.InfoContext(ctx, "refreshed", "careers", 6)

	output := buf.String()
	if !strings.Contains(output, `"service":"nchu-course-helper"`) {
		t.Errorf("Expected service attribute not found in output: %s", output)
	}
	if !strings.Contains(output, `"catalog":{`) || !strings.Contains(output, `"careers":6`) {
		t.Errorf("Expected catalog group not found in output: %s", output)
	}
	if !strings.Contains(output, `"req-9"`) {
		t.Errorf("Expected request ID not found in output: %s", output)
	}
}
