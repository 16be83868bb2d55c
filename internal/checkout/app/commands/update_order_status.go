package commands

import (
	"context"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type UpdateOrderStatusCommand struct {
	OrderID string
	Status  domain.OrderStatus
}

func (c UpdateOrderStatusCommand) Validate() error {
	if strings.TrimSpace(c.OrderID) == "" {
		return domain.ValidationError("order_id is required")
	}
	if !c.Status.Valid() {
		return domain.ValidationError("status is not recognized")
	}
	return nil
}

// UpdateOrderStatusCommandHandler applies an administrative status change.
// Set membership is the only rule; a forward-only transition graph is
// pending product review.
type UpdateOrderStatusCommandHandler struct {
	orders ports.OrderRepository
}

func NewUpdateOrderStatusCommandHandler(orders ports.OrderRepository) *UpdateOrderStatusCommandHandler {
	return &UpdateOrderStatusCommandHandler{orders: orders}
}

func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := h.orders.UpdateStatus(ctx, cmd.OrderID, cmd.Status); err != nil {
		return nil, err
	}

	order.Status = cmd.Status
	order.UpdatedAt = time.Now().UTC()

	return order, nil
}
