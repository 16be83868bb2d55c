package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// CartRepository provides an in-memory cart store useful for local
// development and tests.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository constructs a new in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

// GetByUser fetches the user's cart.
func (r *CartRepository) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return copyCart(cart), nil
}

// Save upserts the whole cart aggregate.
func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.UserID] = *copyCart(*cart)
	return nil
}

// Clear empties the items of an existing cart record.
func (r *CartRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		return domain.ErrCartNotFound
	}
	cart.Items = []domain.CartItem{}
	cart.UpdatedAt = time.Now().UTC()
	r.carts[userID] = cart
	return nil
}

func copyCart(cart domain.Cart) *domain.Cart {
	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return &cart
}
