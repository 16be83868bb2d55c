package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// CheckoutStore places orders with the compensating sequence: insert the
// order flagged cart_cleared = false, clear the cart, then flag the order.
// The unique (user_id, cart_fingerprint) index over pending orders is the
// cross-process guard against double submission while a clear is
// outstanding; once the clear lands the fingerprint is released, so the same
// basket bought again later creates a fresh order. The per-user mutex only
// serializes checkouts inside one process.
type CheckoutStore struct {
	carts  *CartRepository
	orders *OrderRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

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

	if err := s.orders.Create(ctx, *order); err != nil {
		// A duplicate key on the pending-fingerprint index means this exact
		// cart was already submitted and its clear is still outstanding;
		// replay that order instead of charging twice.
		if mongo.IsDuplicateKeyError(err) || mongo.IsDuplicateKeyError(errors.Unwrap(err)) {
			return s.replay(ctx, userID, order.CartFingerprint)
		}
		return nil, err
	}

	if err := s.clearAndFlag(ctx, order.ID, userID); err != nil {
		// The order stands; Reconcile retries the clear later.
		return order, nil
	}
	order.CartCleared = true

	return order, nil
}

func (s *CheckoutStore) replay(ctx context.Context, userID, fingerprint string) (*domain.Order, error) {
	var doc orderDoc
	err := s.orders.orders.FindOne(ctx, bson.M{
		"user_id":          userID,
		"cart_fingerprint": fingerprint,
		"cart_cleared":     false,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Reconcile finished the clear between our insert and this read; the
		// client retries against the now-empty cart.
		return nil, domain.ErrCheckoutConflict
	}
	if err != nil {
		return nil, fmt.Errorf("find pending order by fingerprint: %w", err)
	}

	if err := s.clearAndFlag(ctx, doc.ID, userID); err == nil {
		doc.CartCleared = true
	}

	return doc.toDomain(), nil
}

func (s *CheckoutStore) clearAndFlag(ctx context.Context, orderID, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return err
	}

	update := bson.M{"$set": bson.M{"cart_cleared": true}}
	if _, err := s.orders.orders.UpdateOne(ctx, bson.M{"_id": orderID}, update); err != nil {
		return fmt.Errorf("mark cart cleared: %w", err)
	}

	return nil
}

// Reconcile finishes checkouts interrupted between the order insert and the
// cart clear. It never creates orders.
func (s *CheckoutStore) Reconcile(ctx context.Context) (int, error) {
	cursor, err := s.orders.orders.Find(ctx, bson.M{"cart_cleared": false})
	if err != nil {
		return 0, fmt.Errorf("query pending clears: %w", err)
	}
	defer cursor.Close(ctx)

	type pending struct {
		orderID string
		userID  string
	}
	var work []pending
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return 0, fmt.Errorf("decode pending clear: %w", err)
		}
		work = append(work, pending{orderID: doc.ID, userID: doc.UserID})
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("iterate pending clears: %w", err)
	}

	cleared := 0
	for _, p := range work {
		lock := s.userLock(p.userID)
		lock.Lock()
		err := s.clearAndFlag(ctx, p.orderID, p.userID)
		lock.Unlock()
		if err != nil {
			return cleared, err
		}
		cleared++
	}

	return cleared, nil
}
