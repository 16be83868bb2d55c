package ports

import (
	"context"
	"errors"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// ErrCacheMiss is returned by CartCache.Get when the key is absent.
var ErrCacheMiss = errors.New("cart not in cache")

// CartCache is a read-through cache in front of the cart repository. Every
// cart mutation must invalidate the user's entry.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
