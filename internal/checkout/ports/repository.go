package ports

import (
	"context"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// CartRepository persists the per-user cart aggregate. Save upserts the whole
// aggregate; last write wins on concurrent quantity updates.
type CartRepository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, userID string) error
}

// OrderRepository exposes persistence operations for the immutable order
// aggregate. Only the status fields are ever updated after Create.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Summary(ctx context.Context, since, until time.Time) (*SalesSummary, error)
}

// ListFilter narrows list queries by owner, status and pagination.
type ListFilter struct {
	UserID   string
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

// SalesSummary is the admin reporting projection over orders. Cancelled
// orders are excluded from all revenue figures.
type SalesSummary struct {
	TotalRevenueCents int64           `json:"totalRevenueCents"`
	TotalOrders       int64           `json:"totalOrders"`
	RecentOrders      []domain.Order  `json:"recentOrders"`
	DailySales        []DailyRevenue  `json:"dailySales"`
	RevenueByMethod   []MethodRevenue `json:"revenueByMethod"`
}

// DailyRevenue is one day's sales inside the requested range.
type DailyRevenue struct {
	Day          string `json:"day"`
	RevenueCents int64  `json:"revenueCents"`
}

// MethodRevenue is revenue attributed to one payment method.
type MethodRevenue struct {
	Method       domain.PaymentMethod `json:"method"`
	RevenueCents int64                `json:"revenueCents"`
}
