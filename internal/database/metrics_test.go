package database

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordQuery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordQuery(ctx, "create_order", 0.020, nil)
	metrics.RecordQuery(ctx, "sales_summary", 0.135, nil)
	metrics.RecordQuery(ctx, "get_order_by_id", 0.004, errors.New("conn closed"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	t.Run("durations are split by operation and status", func(t *testing.T) {
		data := findMetric(t, rm, "db_query_duration_seconds")

		histogram, ok := data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatalf("db_query_duration_seconds is %T, want Histogram[float64]", data)
		}
		if len(histogram.DataPoints) != 3 {
			t.Fatalf("expected 3 data points, got %d", len(histogram.DataPoints))
		}

		for _, dp := range histogram.DataPoints {
			op, ok := dp.Attributes.Value(attribute.Key("operation"))
			if !ok {
				t.Fatal("data point missing operation attribute")
			}

			status, _ := dp.Attributes.Value(attribute.Key("status"))
			want := "success"
			if op.AsString() == "get_order_by_id" {
				want = "error"
			}
			if status.AsString() != want {
				t.Errorf("operation %s has status %s, want %s", op.AsString(), status.AsString(), want)
			}
		}
	})

	t.Run("only the failed query counts as an error", func(t *testing.T) {
		data := findMetric(t, rm, "db_query_errors_total")

		sum, ok := data.(metricdata.Sum[int64])
		if !ok {
			t.Fatalf("db_query_errors_total is %T, want Sum[int64]", data)
		}
		if len(sum.DataPoints) != 1 {
			t.Fatalf("expected 1 error data point, got %d", len(sum.DataPoints))
		}
		if got := sum.DataPoints[0].Value; got != 1 {
			t.Errorf("error count = %d, want 1", got)
		}

		op, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("operation"))
		if op.AsString() != "get_order_by_id" {
			t.Errorf("error operation = %s, want get_order_by_id", op.AsString())
		}
	})
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Aggregation {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}

	t.Fatalf("metric %s not found", name)
	return nil
}
