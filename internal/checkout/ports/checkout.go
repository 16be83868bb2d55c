package ports

import (
	"context"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// OrderBuilder converts the locked cart snapshot into the order to persist.
// It runs inside the store's per-user critical section and must be free of
// writes; returning an error aborts the checkout with the cart untouched.
type OrderBuilder func(ctx context.Context, cart *domain.Cart) (*domain.Order, error)

// CheckoutStore executes the cart-to-order transition. Implementations
// guarantee that order creation and cart clearing are observable as one
// atomic unit, and that concurrent checkouts or cart mutations for the same
// user serialize against the read-build-write sequence.
//
// Stores without multi-document transactions use a compensating sequence
// keyed by the order's cart fingerprint: the order is written first, then the
// cart is cleared. A clear failure leaves the order standing with CartCleared
// false for Reconcile to retry; the caller still reports success. A retry of
// an already-placed cart replays the stored order instead of duplicating it.
type CheckoutStore interface {
	PlaceOrder(ctx context.Context, userID string, build OrderBuilder) (*domain.Order, error)
	Reconcile(ctx context.Context) (int, error)
}
