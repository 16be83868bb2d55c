package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// CheckoutStore executes the cart-to-order transition against the in-memory
// repositories using the compensating sequence: order first, cart clear
// second, keyed by the cart fingerprint. A per-user mutex spans the whole
// read-build-write section so concurrent checkouts serialize.
type CheckoutStore struct {
	carts  *CartRepository
	orders *OrderRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// ClearHook runs between order creation and cart clearing. Tests inject
	// failures here to exercise the recovery path; a non-nil error skips the
	// clear and leaves the order flagged for Reconcile.
	ClearHook func(userID string) error
}

// NewCheckoutStore constructs a checkout store over the given repositories.
func NewCheckoutStore(carts *CartRepository, orders *OrderRepository) *CheckoutStore {
	return &CheckoutStore{
		carts:  carts,
		orders: orders,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *CheckoutStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// PlaceOrder runs the builder against the locked cart snapshot, persists the
// order and clears the cart. A retry of a checkout whose clear is still
// pending replays the stored order; a clear failure after the order write
// still reports success. A checkout already in flight for the user fails
// with ErrCheckoutConflict rather than queueing.
func (s *CheckoutStore) PlaceOrder(ctx context.Context, userID string, build ports.OrderBuilder) (*domain.Order, error) {
	lock := s.userLock(userID)
	if !lock.TryLock() {
		return nil, domain.ErrCheckoutConflict
	}
	defer lock.Unlock()

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	order, err := build(ctx, cart)
	if err != nil {
		return nil, err
	}

	// A pending order with this fingerprint means a previous submission of
	// this exact cart was interrupted before the clear; replay it. Orders
	// whose clear completed are finished purchases and never match, so the
	// same basket bought again later produces a fresh order.
	if existing := s.orders.findPendingByFingerprint(userID, order.CartFingerprint); existing != nil {
		s.clearAndFlag(ctx, *existing)
		return s.orders.GetByID(ctx, existing.ID)
	}

	if err := s.orders.Create(ctx, *order); err != nil {
		return nil, err
	}

	if s.ClearHook != nil {
		if err := s.ClearHook(userID); err != nil {
			// The order stands; Reconcile retries the clear later.
			return order, nil
		}
	}

	s.clearAndFlag(ctx, *order)
	order.CartCleared = true
	return order, nil
}

func (s *CheckoutStore) clearAndFlag(ctx context.Context, order domain.Order) {
	if order.CartCleared {
		return
	}
	if err := s.carts.Clear(ctx, order.UserID); err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return
	}
	s.orders.markCartCleared(order.ID)
}

// Reconcile retries cart clears for orders whose checkout was interrupted
// between the order write and the clear. It never creates orders.
func (s *CheckoutStore) Reconcile(ctx context.Context) (int, error) {
	pending := s.orders.pendingClears()

	cleared := 0
	for _, order := range pending {
		lock := s.userLock(order.UserID)
		lock.Lock()
		s.clearAndFlag(ctx, order)
		lock.Unlock()
		cleared++
	}
	return cleared, nil
}
