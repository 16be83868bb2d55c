package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return loadCart(ctx, r.pool, userID)
}

// Save replaces the stored cart with the given one inside a single
// transaction, holding the user's advisory lock so it cannot interleave with
// a checkout.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save cart: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockUser(ctx, tx, cart.UserID); err != nil {
		return err
	}

	query := `
		INSERT INTO carts (user_id, created_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.Exec(ctx, query, cart.UserID, cart.CreatedAt, cart.UpdatedAt); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, cart.UserID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	for _, item := range cart.Items {
		query := `
			INSERT INTO cart_items (id, user_id, product_id, quantity, unit_price_cents, added_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err := tx.Exec(ctx, query,
			item.ID,
			cart.UserID,
			item.ProductID,
			item.Quantity,
			item.UnitPriceCents,
			item.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}

	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear cart: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockUser(ctx, tx, userID); err != nil {
		return err
	}

	if err := clearCart(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clear cart: %w", err)
	}

	return nil
}

func loadCart(ctx context.Context, q querier, userID string) (*domain.Cart, error) {
	query := `
		SELECT user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var cart domain.Cart
	err := q.QueryRow(ctx, query, userID).Scan(
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	itemsQuery := `
		SELECT id, product_id, quantity, unit_price_cents, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at, id
	`

	rows, err := q.Query(ctx, itemsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return &cart, nil
}

func clearCart(ctx context.Context, q querier, userID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	result, err := q.Exec(ctx, `
		UPDATE carts
		SET updated_at = now()
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}
