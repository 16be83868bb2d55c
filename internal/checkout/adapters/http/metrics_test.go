package http

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{code: 200, want: "2xx"},
		{code: 201, want: "2xx"},
		{code: 404, want: "4xx"},
		{code: 409, want: "4xx"},
		{code: 500, want: "5xx"},
		{code: 42, want: "unknown"},
		{code: 700, want: "unknown"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestRecordRequestLabels(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequest(ctx, "POST", "/api/checkout", 201, 0.050)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	var counted bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			counted = true

			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("http_requests_total is %T, want Sum[int64]", m.Data)
			}
			if len(sum.DataPoints) != 1 {
				t.Fatalf("expected 1 data point, got %d", len(sum.DataPoints))
			}

			attrs := sum.DataPoints[0].Attributes
			for key, want := range map[string]string{
				"method":       "POST",
				"route":        "/api/checkout",
				"status_code":  "201",
				"status_class": "2xx",
			} {
				got, ok := attrs.Value(attribute.Key(key))
				if !ok || got.AsString() != want {
					t.Errorf("attribute %s = %v, want %s", key, got.AsString(), want)
				}
			}
		}
	}

	if !counted {
		t.Fatal("http_requests_total metric not found")
	}
}
