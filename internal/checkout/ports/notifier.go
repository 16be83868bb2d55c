package ports

import (
	"context"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// NotificationSink receives a read-only projection of a completed order.
// Delivery is best effort: callers log failures and never roll back or fail
// the checkout because of them.
type NotificationSink interface {
	OrderPlaced(ctx context.Context, order domain.Order) error
}
