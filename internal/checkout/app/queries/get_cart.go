package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
	"golang.org/x/sync/singleflight"
)

// GetCartQuery represents a request to read the caller's cart.
type GetCartQuery struct {
	UserID string
}

func (q GetCartQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	return nil
}

// GetCartQueryHandler reads the cart through the cache, collapsing
// concurrent misses for the same user into one repository read. A user with
// no cart record gets an empty cart back rather than an error.
type GetCartQueryHandler struct {
	carts  ports.CartRepository
	cache  ports.CartCache
	logger *slog.Logger
	sfg    singleflight.Group
}

func NewGetCartQueryHandler(carts ports.CartRepository, cache ports.CartCache, logger *slog.Logger) *GetCartQueryHandler {
	return &GetCartQueryHandler{carts: carts, cache: cache, logger: logger}
}

func (h *GetCartQueryHandler) Handle(ctx context.Context, query GetCartQuery) (*domain.Cart, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	v, err, _ := h.sfg.Do(query.UserID, func() (any, error) {
		cart, err := h.cache.Get(ctx, query.UserID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ports.ErrCacheMiss) {
			h.logger.WarnContext(ctx, "cart cache read failed", "user_id", query.UserID, "error", err)
		}

		cart, err = h.carts.GetByUser(ctx, query.UserID)
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.NewCart(query.UserID, time.Now().UTC()), nil
		}
		if err != nil {
			return nil, err
		}

		if err := h.cache.Set(ctx, query.UserID, cart); err != nil {
			h.logger.WarnContext(ctx, "cart cache write failed", "user_id", query.UserID, "error", err)
		}

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}
