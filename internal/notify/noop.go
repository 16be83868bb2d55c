package notify

import (
	"context"
	"log/slog"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// NoopSink logs order notifications without sending them anywhere. Useful for
// local dev before wiring Kafka.
type NoopSink struct{}

// NewNoopSink returns a new no-op notification sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) OrderPlaced(_ context.Context, order domain.Order) error {
	slog.Debug("notification::order_placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total_cents", order.TotalCents,
	)
	return nil
}
