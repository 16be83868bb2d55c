package queries

import (
	"context"
	"strings"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// GetOrderQuery represents a request to retrieve one of the caller's orders.
type GetOrderQuery struct {
	OrderID string
	UserID  string
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return domain.ValidationError("order_id is required")
	}
	if strings.TrimSpace(q.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	return nil
}

// GetOrderQueryHandler retrieves an order scoped to its owner. An order that
// belongs to someone else is indistinguishable from a missing one.
type GetOrderQueryHandler struct {
	orders ports.OrderRepository
}

func NewGetOrderQueryHandler(orders ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{orders: orders}
}

func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	return h.orders.GetByIDForUser(ctx, query.OrderID, query.UserID)
}
