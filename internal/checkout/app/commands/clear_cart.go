package commands

import (
	"context"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type ClearCartCommand struct {
	UserID string
}

func (c ClearCartCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	return nil
}

type ClearCartCommandHandler struct {
	carts ports.CartRepository
}

func NewClearCartCommandHandler(carts ports.CartRepository) *ClearCartCommandHandler {
	return &ClearCartCommandHandler{carts: carts}
}

// Handle empties the cart. It fails with ErrCartNotFound when no cart record
// exists; clearing an already empty cart succeeds again.
func (h *ClearCartCommandHandler) Handle(ctx context.Context, cmd ClearCartCommand) (*domain.Cart, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cart, err := h.carts.GetByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	cart.Clear(time.Now().UTC())

	if err := h.carts.Save(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}
