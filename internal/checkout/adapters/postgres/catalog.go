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

// ProductCatalog reads the products table owned by the catalog service.
type ProductCatalog struct {
	pool *pgxpool.Pool
}

func NewProductCatalog(pool *pgxpool.Pool) *ProductCatalog {
	return &ProductCatalog{pool: pool}
}

func (c *ProductCatalog) GetProduct(ctx context.Context, productID string) (*ports.Product, error) {
	query := `
		SELECT id, name, price_cents
		FROM products
		WHERE id = $1
	`

	var product ports.Product
	err := c.pool.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.PriceCents,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &product, nil
}
