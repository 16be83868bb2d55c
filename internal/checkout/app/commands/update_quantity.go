package commands

import (
	"context"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type UpdateQuantityCommand struct {
	UserID   string
	ItemID   string
	Quantity int
}

func (c UpdateQuantityCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	if strings.TrimSpace(c.ItemID) == "" {
		return domain.ValidationError("item_id is required")
	}
	if c.Quantity < 1 {
		return domain.ValidationError("quantity must be at least 1")
	}
	return nil
}

type UpdateQuantityCommandHandler struct {
	carts ports.CartRepository
}

func NewUpdateQuantityCommandHandler(carts ports.CartRepository) *UpdateQuantityCommandHandler {
	return &UpdateQuantityCommandHandler{carts: carts}
}

// Handle replaces a line's quantity. The line's price snapshot is untouched.
func (h *UpdateQuantityCommandHandler) Handle(ctx context.Context, cmd UpdateQuantityCommand) (*domain.Cart, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cart, err := h.carts.GetByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if err := cart.SetQuantity(cmd.ItemID, cmd.Quantity, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := h.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}
