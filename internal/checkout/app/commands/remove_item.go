package commands

import (
	"context"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// RemoveItemCommand removes a cart line either by its line id or by the
// product it references. Exactly one of ItemID and ProductID must be set.
type RemoveItemCommand struct {
	UserID    string
	ItemID    string
	ProductID string
}

func (c RemoveItemCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	hasItem := strings.TrimSpace(c.ItemID) != ""
	hasProduct := strings.TrimSpace(c.ProductID) != ""
	if hasItem == hasProduct {
		return domain.ValidationError("exactly one of item_id and product_id is required")
	}
	return nil
}

type RemoveItemCommandHandler struct {
	carts ports.CartRepository
}

func NewRemoveItemCommandHandler(carts ports.CartRepository) *RemoveItemCommandHandler {
	return &RemoveItemCommandHandler{carts: carts}
}

// Handle filters the matching line out of the cart and resaves it. A missing
// cart is ErrCartNotFound; a line that matches nothing leaves the cart
// unchanged without error.
func (h *RemoveItemCommandHandler) Handle(ctx context.Context, cmd RemoveItemCommand) (*domain.Cart, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cart, err := h.carts.GetByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if cmd.ItemID != "" {
		cart.RemoveItem(cmd.ItemID, now)
	} else {
		cart.RemoveProduct(cmd.ProductID, now)
	}

	if err := h.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}
