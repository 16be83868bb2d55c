package ports

import "context"

// Product is the read-only catalog projection this core consumes. The
// catalog is an external collaborator; nothing here writes to it.
type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

// ProductCatalog resolves a product reference to its current projection,
// or domain.ErrProductNotFound.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
}
