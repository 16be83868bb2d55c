package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	return recorder
}

func TestSpanHelpers(t *testing.T) {
	t.Run("successful operation ends with Ok status", func(t *testing.T) {
		recorder := newSpanRecorder(t)

		_, span := StartSpan(context.Background(), "CheckoutStore.PlaceOrder")
		AddSpanAttributes(span, attribute.String("user.id", "u1"))
		AddSpanEvent(span, "cart cleared")
		SetSpanSuccess(span)
		span.End()

		ended := recorder.Ended()
		if len(ended) != 1 {
			t.Fatalf("expected 1 ended span, got %d", len(ended))
		}

		got := ended[0]
		if got.Name() != "CheckoutStore.PlaceOrder" {
			t.Errorf("span name = %q", got.Name())
		}
		if got.Status().Code != codes.Ok {
			t.Errorf("status = %v, want Ok", got.Status().Code)
		}
		if !hasAttribute(got.Attributes(), "user.id", "u1") {
			t.Errorf("missing user.id attribute, got %v", got.Attributes())
		}
		if len(got.Events()) != 1 || got.Events()[0].Name != "cart cleared" {
			t.Errorf("events = %v, want one cart cleared event", got.Events())
		}
	})

	t.Run("failed operation records the error", func(t *testing.T) {
		recorder := newSpanRecorder(t)
		failure := errors.New("order not found")

		_, span := StartSpan(context.Background(), "OrderRepository.GetByID")
		RecordSpanError(span, failure)
		span.End()

		got := recorder.Ended()[0]
		if got.Status().Code != codes.Error {
			t.Fatalf("status = %v, want Error", got.Status().Code)
		}
		if got.Status().Description != failure.Error() {
			t.Errorf("status description = %q", got.Status().Description)
		}
		if len(got.Events()) == 0 {
			t.Error("expected an exception event on the span")
		}
	})

	t.Run("helpers tolerate nil spans and nil errors", func(t *testing.T) {
		AddSpanAttributes(nil, attribute.String("k", "v"))
		AddSpanEvent(nil, "noop")
		RecordSpanError(nil, errors.New("ignored"))
		SetSpanSuccess(nil)

		recorder := newSpanRecorder(t)
		_, span := StartSpan(context.Background(), "noop")
		RecordSpanError(span, nil)
		span.End()

		if got := recorder.Ended()[0]; got.Status().Code == codes.Error {
			t.Error("nil error must not mark the span failed")
		}
	})
}

func TestTraceAndSpanIDFromContext(t *testing.T) {
	if id := TraceID(context.Background()); id != "" {
		t.Errorf("TraceID outside a span = %q, want empty", id)
	}
	if id := SpanID(context.Background()); id != "" {
		t.Errorf("SpanID outside a span = %q, want empty", id)
	}

	newSpanRecorder(t)
	ctx, span := StartSpan(context.Background(), "ids")
	defer span.End()

	if TraceID(ctx) != span.SpanContext().TraceID().String() {
		t.Error("TraceID does not match the active span context")
	}
	if SpanID(ctx) != span.SpanContext().SpanID().String() {
		t.Error("SpanID does not match the active span context")
	}
}

func hasAttribute(attrs []attribute.KeyValue, key, value string) bool {
	for _, attr := range attrs {
		if string(attr.Key) == key && attr.Value.AsString() == value {
			return true
		}
	}

	return false
}
