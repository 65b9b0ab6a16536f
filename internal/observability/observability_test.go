package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"retail-dashboard/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestLoggerFrom(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithSessionID(WithRequestID(context.Background(), "req-7"), "sess-3")
	LoggerFrom(ctx, base).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "sess-3", entry["session_id"])

	buf.Reset()
	LoggerFrom(context.Background(), base).Info("bare")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestContextIDs(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetSessionID(context.Background()))
	assert.Equal(t, "r", GetRequestID(WithRequestID(context.Background(), "r")))
}

func TestTracerProvider_LogsFinishedSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tp := NewTracerProvider(config.TracingConfig{Enabled: true, ServiceName: "test", SampleRatio: 1}, logger)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, parent := StartSpan(context.Background(), "pipeline.run", attribute.Int("filtered", 42))
	_, child := StartSpan(ctx, "pipeline.filter")
	SetSpanError(child, errors.New("bad criteria"))
	child.End()
	parent.End()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "pipeline.filter", first["operation"])
	assert.Equal(t, "Error", first["status"])
	assert.NotEmpty(t, first["parent_id"])
	assert.Equal(t, "test", first["service"])

	assert.Equal(t, "pipeline.run", second["operation"])
	assert.Equal(t, "42", second["filtered"])
	assert.Nil(t, second["parent_id"])
}

func TestTracerProvider_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tp := NewTracerProvider(config.TracingConfig{Enabled: false, SampleRatio: 1}, logger)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := StartSpan(context.Background(), "ignored")
	span.End()

	assert.Empty(t, buf.String())
	SetSpanError(span, nil)
}
