package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterHandler_DropsMatchingRecords(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewFilterHandler(base, []string{"ResizeObserver", "  ", "hot update"}))

	logger.Info("ResizeObserver loop limit exceeded")
	logger.Warn("[HMR] Hot Update applied")
	logger.Info("user logged in")

	out := buf.String()
	assert.NotContains(t, out, "ResizeObserver")
	assert.NotContains(t, out, "Hot Update")
	assert.Contains(t, out, "user logged in")
}

func TestFilterHandler_KeepsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFilterHandler(slog.NewTextHandler(&buf, nil), []string{"noisy"}))

	logger.Error("noisy but fatal")

	assert.Contains(t, buf.String(), "noisy but fatal")
}

func TestFilterHandler_WithAttrsKeepsPatterns(t *testing.T) {
	var buf bytes.Buffer
	h := NewFilterHandler(slog.NewTextHandler(&buf, nil), []string{"noisy"})
	logger := slog.New(h).With("component", "ws")

	logger.Info("noisy frame")
	logger.Info("clean frame")

	assert.NotContains(t, buf.String(), "noisy frame")
	assert.Contains(t, buf.String(), "component=ws")
}

func TestCtxHandler_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(7))
	logger.InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), "request_id=req-1")
	assert.Contains(t, buf.String(), "user_id=7")
}
