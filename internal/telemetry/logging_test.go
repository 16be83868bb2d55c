package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestLoggerInjectsSpanContext(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0xa1, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7, 0xa8}

	tracedCtx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	t.Run("record inside a span carries trace and span IDs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, slog.LevelInfo)

		logger.InfoContext(tracedCtx, "order placed", slog.String("orderId", "ord-1"))

		entry := decodeLogLine(t, buf.Bytes())
		if got := entry["trace_id"]; got != traceID.String() {
			t.Errorf("trace_id = %v, want %s", got, traceID.String())
		}
		if got := entry["span_id"]; got != spanID.String() {
			t.Errorf("span_id = %v, want %s", got, spanID.String())
		}
		if got := entry["orderId"]; got != "ord-1" {
			t.Errorf("orderId = %v, want ord-1", got)
		}
	})

	t.Run("record outside any span has no trace fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, slog.LevelInfo)

		logger.InfoContext(context.Background(), "startup complete")

		entry := decodeLogLine(t, buf.Bytes())
		if _, ok := entry["trace_id"]; ok {
			t.Error("expected no trace_id outside a span")
		}
		if _, ok := entry["span_id"]; ok {
			t.Error("expected no span_id outside a span")
		}
	})

	t.Run("derived loggers keep injecting", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, slog.LevelInfo).With(slog.String("component", "checkout"))

		logger.InfoContext(tracedCtx, "cart cleared")

		entry := decodeLogLine(t, buf.Bytes())
		if got := entry["component"]; got != "checkout" {
			t.Errorf("component = %v, want checkout", got)
		}
		if got := entry["trace_id"]; got != traceID.String() {
			t.Errorf("trace_id = %v, want %s", got, traceID.String())
		}
	})

	t.Run("level threshold still applies", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, slog.LevelWarn)

		logger.InfoContext(tracedCtx, "too quiet")

		if buf.Len() != 0 {
			t.Errorf("expected record below the level threshold to be dropped, got %q", buf.String())
		}
	})
}

func decodeLogLine(t *testing.T, line []byte) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}

	return entry
}
