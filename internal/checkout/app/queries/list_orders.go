package queries

import (
	"context"
	"strings"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// ListOrdersQuery pages through the caller's orders, newest first.
type ListOrdersQuery struct {
	UserID   string
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

func (q ListOrdersQuery) Validate() error {
	if strings.TrimSpace(q.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	if q.Status != nil && !q.Status.Valid() {
		return domain.ValidationError("status is not recognized")
	}
	return nil
}

type ListOrdersQueryHandler struct {
	orders ports.OrderRepository
}

func NewListOrdersQueryHandler(orders ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{orders: orders}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	return h.orders.List(ctx, ports.ListFilter{
		UserID:   query.UserID,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}
