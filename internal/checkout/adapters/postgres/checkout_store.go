package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// CheckoutStore places orders in a single transaction. The user's advisory
// lock serializes checkout against cart writes, so the cart read, the order
// insert and the cart clear commit or roll back together.
type CheckoutStore struct {
	pool   *pgxpool.Pool
	orders *OrderRepository
}

func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{
		pool:   pool,
		orders: NewOrderRepository(pool),
	}
}

func (s *CheckoutStore) PlaceOrder(ctx context.Context, userID string, build ports.OrderBuilder) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tryLockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	cart, err := loadCart(ctx, tx, userID)
	if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	order, err := build(ctx, cart)
	if err != nil {
		return nil, err
	}

	// A pending order with this fingerprint is a checkout whose cart clear
	// never landed; replay it instead of charging twice. Completed orders
	// release their fingerprint, so rebuying the identical basket later
	// creates a fresh order.
	existingID, err := findPendingOrderByFingerprint(ctx, tx, userID, order.CartFingerprint)
	if err != nil {
		return nil, err
	}
	if existingID != "" {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit checkout replay: %w", err)
		}
		return s.orders.GetByID(ctx, existingID)
	}

	order.CartCleared = true
	if err := insertOrder(ctx, tx, *order); err != nil {
		return nil, err
	}

	if err := clearCart(ctx, tx, userID); err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	return order, nil
}

// Reconcile clears carts left behind by orders flagged cart_cleared = false.
// The transactional path never produces such rows; this covers data imported
// from deployments on the non-transactional drivers.
func (s *CheckoutStore) Reconcile(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id FROM orders WHERE cart_cleared = false`)
	if err != nil {
		return 0, fmt.Errorf("query pending clears: %w", err)
	}
	defer rows.Close()

	type pending struct {
		orderID string
		userID  string
	}
	var work []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.orderID, &p.userID); err != nil {
			return 0, fmt.Errorf("scan pending clear: %w", err)
		}
		work = append(work, p)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate pending clears: %w", err)
	}

	cleared := 0
	for _, p := range work {
		if err := s.finishClear(ctx, p.orderID, p.userID); err != nil {
			return cleared, err
		}
		cleared++
	}

	return cleared, nil
}

func (s *CheckoutStore) finishClear(ctx context.Context, orderID, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockUser(ctx, tx, userID); err != nil {
		return err
	}

	if err := clearCart(ctx, tx, userID); err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET cart_cleared = true WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("mark cart cleared: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}

	return nil
}

func findPendingOrderByFingerprint(ctx context.Context, q querier, userID, fingerprint string) (string, error) {
	var id string
	err := q.QueryRow(ctx, `
		SELECT id FROM orders
		WHERE user_id = $1 AND cart_fingerprint = $2 AND cart_cleared = false
	`, userID, fingerprint).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("select pending order by fingerprint: %w", err)
	}
	return id, nil
}
