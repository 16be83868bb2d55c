package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
	"github.com/oseilabs/storefront/internal/notify"
	"github.com/oseilabs/storefront/internal/telemetry"
)

type ObservableNotifier struct {
	sink    ports.NotificationSink
	metrics *notify.Metrics
}

func NewObservableNotifier(sink ports.NotificationSink, metrics *notify.Metrics) *ObservableNotifier {
	return &ObservableNotifier{
		sink:    sink,
		metrics: metrics,
	}
}

func (n *ObservableNotifier) OrderPlaced(ctx context.Context, order domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "NotificationSink.OrderPlaced")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("event.type", "order.placed"),
		attribute.String("topic", notify.DefaultTopic),
	)

	start := time.Now()
	err := n.sink.OrderPlaced(ctx, order)
	duration := time.Since(start).Seconds()

	n.metrics.RecordPublish(ctx, notify.DefaultTopic, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
