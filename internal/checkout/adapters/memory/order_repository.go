package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// OrderRepository provides an in-memory order store useful for local
// development and tests.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository constructs a new in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

// Create stores a new order instance.
func (r *OrderRepository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *copyOrder(order)
	return nil
}

// GetByID fetches a single order by identifier.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

// GetByIDForUser fetches an order scoped to its owner. Someone else's order
// looks identical to a missing one.
func (r *OrderRepository) GetByIDForUser(_ context.Context, id, userID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok || order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

// List returns orders respecting the provided filter, newest first.
// Pagination is 1-based.
func (r *OrderRepository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, *copyOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// UpdateStatus sets the status and updatedAt timestamp for an order.
func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return nil
}

// Summary computes the admin reporting projection. Cancelled orders are
// excluded from all revenue figures; counts include every order.
func (r *OrderRepository) Summary(_ context.Context, since, until time.Time) (*ports.SalesSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &ports.SalesSummary{}
	daily := make(map[string]int64)
	byMethod := make(map[domain.PaymentMethod]int64)
	var recent []domain.Order

	for _, order := range r.orders {
		recent = append(recent, *copyOrder(order))

		if order.CreatedAt.Before(since) || order.CreatedAt.After(until) {
			continue
		}

		summary.TotalOrders++

		if order.Status == domain.StatusCancelled {
			continue
		}

		summary.TotalRevenueCents += order.TotalCents
		byMethod[order.PaymentMethod] += order.TotalCents
		daily[order.CreatedAt.UTC().Format("2006-01-02")] += order.TotalCents
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}
	summary.RecentOrders = recent

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		summary.DailySales = append(summary.DailySales, ports.DailyRevenue{Day: day, RevenueCents: daily[day]})
	}

	methods := make([]string, 0, len(byMethod))
	for method := range byMethod {
		methods = append(methods, string(method))
	}
	sort.Strings(methods)
	for _, method := range methods {
		summary.RevenueByMethod = append(summary.RevenueByMethod, ports.MethodRevenue{
			Method:       domain.PaymentMethod(method),
			RevenueCents: byMethod[domain.PaymentMethod(method)],
		})
	}

	return summary, nil
}

func (r *OrderRepository) findPendingByFingerprint(userID, fingerprint string) *domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.UserID == userID && order.CartFingerprint == fingerprint && !order.CartCleared {
			return copyOrder(order)
		}
	}
	return nil
}

func (r *OrderRepository) markCartCleared(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return
	}
	order.CartCleared = true
	r.orders[id] = order
}

func (r *OrderRepository) pendingClears() []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []domain.Order
	for _, order := range r.orders {
		if !order.CartCleared {
			pending = append(pending, *copyOrder(order))
		}
	}
	return pending
}

func copyOrder(order domain.Order) *domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return &order
}
