package memory

import (
	"context"
	"sync"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// ProductCatalog is a map-backed catalog for tests and local runs.
type ProductCatalog struct {
	mu       sync.RWMutex
	products map[string]ports.Product
}

// NewProductCatalog creates an empty in-memory catalog.
func NewProductCatalog() *ProductCatalog {
	return &ProductCatalog{
		products: make(map[string]ports.Product),
	}
}

// Put adds or replaces a product.
func (c *ProductCatalog) Put(product ports.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products[product.ID] = product
}

// GetProduct returns the product by ID or ErrProductNotFound.
func (c *ProductCatalog) GetProduct(ctx context.Context, productID string) (*ports.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}
