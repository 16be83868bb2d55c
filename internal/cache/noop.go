package cache

import (
	"context"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// NoopCartCache misses on every read. Used when no Redis address is
// configured.
type NoopCartCache struct{}

func NewNoopCartCache() *NoopCartCache {
	return &NoopCartCache{}
}

func (NoopCartCache) Get(_ context.Context, _ string) (*domain.Cart, error) {
	return nil, ports.ErrCacheMiss
}

func (NoopCartCache) Set(_ context.Context, _ string, _ *domain.Cart) error {
	return nil
}

func (NoopCartCache) Delete(_ context.Context, _ string) error {
	return nil
}
