package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
		ServiceName: "helpdesk-bridge",
		Environment: "test",
	})

	ctx := WithCycle(context.Background(), "c-1", "tickets")
	ctx = WithTicketID(ctx, "101")
	logger.InfoContext(ctx, "ticket updated")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ticket updated", record["msg"])
	assert.Equal(t, "helpdesk-bridge", record["service"])
	assert.Equal(t, "test", record["environment"])
	assert.Equal(t, "c-1", record["cycle_id"])
	assert.Equal(t, "tickets", record["cycle"])
	assert.Equal(t, "101", record["ticket_id"])
	assert.Equal(t, "c-1", GetCycleID(ctx))
}

func TestNewLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-9")
	logger.With("component", "admin_http").InfoContext(ctx, "http request")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-9", record["request_id"])
	assert.Equal(t, "admin_http", record["component"])
	assert.NotContains(t, record, "service", "empty service name is not logged")
	assert.Equal(t, "req-9", GetRequestID(ctx))
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
