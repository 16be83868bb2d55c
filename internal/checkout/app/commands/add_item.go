package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type AddItemCommand struct {
	UserID    string
	ProductID string
	Quantity  int
}

func (c AddItemCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	if strings.TrimSpace(c.ProductID) == "" {
		return domain.ValidationError("product_id is required")
	}
	if c.Quantity < 1 {
		return domain.ValidationError("quantity must be at least 1")
	}
	return nil
}

type AddItemCommandHandler struct {
	carts   ports.CartRepository
	catalog ports.ProductCatalog
}

func NewAddItemCommandHandler(carts ports.CartRepository, catalog ports.ProductCatalog) *AddItemCommandHandler {
	return &AddItemCommandHandler{carts: carts, catalog: catalog}
}

// Handle adds a product to the user's cart, creating the cart on first use.
// The catalog price is snapshotted on first add; re-adding the same product
// increments the existing line and keeps its original snapshot.
func (h *AddItemCommandHandler) Handle(ctx context.Context, cmd AddItemCommand) (*domain.Cart, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	product, err := h.catalog.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	cart, err := h.carts.GetByUser(ctx, cmd.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrCartNotFound) {
			return nil, err
		}
		cart = domain.NewCart(cmd.UserID, now)
	}

	itemID, err := domain.NewID()
	if err != nil {
		return nil, err
	}

	cart.Upsert(itemID, product.ID, cmd.Quantity, product.PriceCents, now)

	if err := h.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}
