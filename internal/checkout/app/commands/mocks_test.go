package commands_test

import (
	"context"
	"errors"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type mockCartRepository struct {
	carts  map[string]*domain.Cart
	saveFn func(ctx context.Context, cart *domain.Cart) error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepository) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	cart, ok := m.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, cart)
	}
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	m.carts[cart.UserID] = &copied
	return nil
}

func (m *mockCartRepository) Clear(_ context.Context, userID string) error {
	cart, ok := m.carts[userID]
	if !ok {
		return domain.ErrCartNotFound
	}
	cart.Items = nil
	return nil
}

type mockOrderRepository struct {
	orders         map[string]*domain.Order
	updateStatusFn func(ctx context.Context, id string, status domain.OrderStatus) error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepository) Create(_ context.Context, order domain.Order) error {
	m.orders[order.ID] = &order
	return nil
}

func (m *mockOrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	order, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) List(_ context.Context, _ ports.ListFilter) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	order, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepository) Summary(_ context.Context, _, _ time.Time) (*ports.SalesSummary, error) {
	return &ports.SalesSummary{}, nil
}

type mockCatalog struct {
	products map[string]ports.Product
}

func newMockCatalog(products ...ports.Product) *mockCatalog {
	c := &mockCatalog{products: make(map[string]ports.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (m *mockCatalog) GetProduct(_ context.Context, productID string) (*ports.Product, error) {
	product, ok := m.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

type mockSink struct {
	orderPlacedFn func(ctx context.Context, order domain.Order) error
	placed        []domain.Order
}

func (m *mockSink) OrderPlaced(ctx context.Context, order domain.Order) error {
	if m.orderPlacedFn != nil {
		return m.orderPlacedFn(ctx, order)
	}
	m.placed = append(m.placed, order)
	return nil
}

// fakeCheckoutStore runs the builder against the cart repository without any
// locking. Good enough for command-level tests; concurrency behavior is
// covered by the store adapters' own tests.
type fakeCheckoutStore struct {
	carts  *mockCartRepository
	orders *mockOrderRepository
}

func (s *fakeCheckoutStore) PlaceOrder(ctx context.Context, userID string, build ports.OrderBuilder) (*domain.Order, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return nil, err
	}

	order, err := build(ctx, cart)
	if err != nil {
		return nil, err
	}

	order.CartCleared = true
	if err := s.orders.Create(ctx, *order); err != nil {
		return nil, err
	}
	_ = s.carts.Clear(ctx, userID)

	return order, nil
}

func (s *fakeCheckoutStore) Reconcile(_ context.Context) (int, error) {
	return 0, nil
}

func validAddress() domain.Address {
	return domain.Address{
		Street:  "14 Oxford St",
		Town:    "Osu",
		Region:  "Greater Accra",
		Phone:   "+233201234567",
		Country: "Ghana",
	}
}
