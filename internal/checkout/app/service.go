package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/app/commands"
	"github.com/oseilabs/storefront/internal/checkout/app/queries"
	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/metrics"
	"github.com/oseilabs/storefront/internal/checkout/ports"
	"github.com/oseilabs/storefront/internal/checkout/pricing"
)

// Service bundles the cart and checkout use cases exposed to the API. It
// owns cache invalidation and totals derivation so no caller ever sees a
// stored total.
type Service struct {
	policy  pricing.Policy
	cache   ports.CartCache
	logger  *slog.Logger
	metrics *metrics.Metrics

	addItem           *commands.AddItemCommandHandler
	updateQuantity    *commands.UpdateQuantityCommandHandler
	removeItem        *commands.RemoveItemCommandHandler
	clearCart         *commands.ClearCartCommandHandler
	placeOrder        commands.PlaceOrderHandler
	updateOrderStatus *commands.UpdateOrderStatusCommandHandler

	getCart      *queries.GetCartQueryHandler
	getOrder     *queries.GetOrderQueryHandler
	listOrders   *queries.ListOrdersQueryHandler
	salesSummary *queries.SalesSummaryQueryHandler

	store ports.CheckoutStore
}

// NewService wires required dependencies.
func NewService(
	carts ports.CartRepository,
	orders ports.OrderRepository,
	store ports.CheckoutStore,
	catalog ports.ProductCatalog,
	cache ports.CartCache,
	notifier ports.NotificationSink,
	policy pricing.Policy,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	placeOrderCore := commands.NewPlaceOrderCommandHandler(store, catalog, policy, notifier, logger)

	return &Service{
		policy:  policy,
		cache:   cache,
		logger:  logger,
		metrics: m,

		addItem:           commands.NewAddItemCommandHandler(carts, catalog),
		updateQuantity:    commands.NewUpdateQuantityCommandHandler(carts),
		removeItem:        commands.NewRemoveItemCommandHandler(carts),
		clearCart:         commands.NewClearCartCommandHandler(carts),
		placeOrder:        commands.NewObservablePlaceOrderHandler(placeOrderCore, logger, m),
		updateOrderStatus: commands.NewUpdateOrderStatusCommandHandler(orders),

		getCart:      queries.NewGetCartQueryHandler(carts, cache, logger),
		getOrder:     queries.NewGetOrderQueryHandler(orders),
		listOrders:   queries.NewListOrdersQueryHandler(orders),
		salesSummary: queries.NewSalesSummaryQueryHandler(orders),

		store: store,
	}
}

// CartView pairs a cart with its freshly computed totals.
type CartView struct {
	Cart   *domain.Cart  `json:"cart"`
	Totals domain.Totals `json:"totals"`
}

// OrderReceipt is the checkout response. The shipping address and payment
// method are write-only inputs and are not echoed back.
type OrderReceipt struct {
	OrderID   string             `json:"orderId"`
	Status    domain.OrderStatus `json:"status"`
	Items     []domain.OrderItem `json:"items"`
	Totals    domain.Totals      `json:"totals"`
	CreatedAt time.Time          `json:"createdAt"`
}

// AddItemInput captures the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityInput captures the payload for changing a line's quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// CheckoutInput captures the payload for placing an order.
type CheckoutInput struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
}

func (s *Service) view(cart *domain.Cart) *CartView {
	return &CartView{Cart: cart, Totals: pricing.Compute(s.policy, cart.Items)}
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "cart cache invalidation failed", "user_id", userID, "error", err)
	}
}

// GetCart returns the cart with fresh totals, an empty view when the user
// has no cart yet.
func (s *Service) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.getCart.Handle(ctx, queries.GetCartQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	return s.view(cart), nil
}

// AddItem adds a product to the cart at the current catalog price.
func (s *Service) AddItem(ctx context.Context, userID string, input AddItemInput) (*CartView, error) {
	cart, err := s.addItem.Handle(ctx, commands.AddItemCommand{
		UserID:    userID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCartMutation(ctx, "add_item")
	s.invalidate(ctx, userID)
	return s.view(cart), nil
}

// UpdateQuantity changes the quantity of an existing cart line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, input UpdateQuantityInput) (*CartView, error) {
	cart, err := s.updateQuantity.Handle(ctx, commands.UpdateQuantityCommand{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: input.Quantity,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCartMutation(ctx, "update_quantity")
	s.invalidate(ctx, userID)
	return s.view(cart), nil
}

// RemoveItem deletes a cart line by id.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*CartView, error) {
	cart, err := s.removeItem.Handle(ctx, commands.RemoveItemCommand{
		UserID: userID,
		ItemID: itemID,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCartMutation(ctx, "remove_item")
	s.invalidate(ctx, userID)
	return s.view(cart), nil
}

// ClearCart empties the cart.
func (s *Service) ClearCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.clearCart.Handle(ctx, commands.ClearCartCommand{UserID: userID})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCartMutation(ctx, "clear")
	s.invalidate(ctx, userID)
	return s.view(cart), nil
}

// Checkout converts the cart into an immutable order.
func (s *Service) Checkout(ctx context.Context, userID string, input CheckoutInput) (*OrderReceipt, error) {
	order, err := s.placeOrder.Handle(ctx, commands.PlaceOrderCommand{
		UserID:          userID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(input.PaymentMethod),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)

	return &OrderReceipt{
		OrderID:   order.ID,
		Status:    order.Status,
		Items:     order.Items,
		Totals:    order.Totals(),
		CreatedAt: order.CreatedAt,
	}, nil
}

// GetOrder retrieves one of the caller's orders.
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: orderID, UserID: userID})
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, query)
}

// UpdateOrderStatus applies an administrative status change.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	return s.updateOrderStatus.Handle(ctx, commands.UpdateOrderStatusCommand{
		OrderID: orderID,
		Status:  status,
	})
}

// SalesSummary returns the admin reporting projection.
func (s *Service) SalesSummary(ctx context.Context, query queries.SalesSummaryQuery) (*ports.SalesSummary, error) {
	return s.salesSummary.Handle(ctx, query)
}

// ReconcileCheckouts retries cart clears left behind by interrupted
// checkouts. Meant for a scheduled sweep; placed orders are never touched.
func (s *Service) ReconcileCheckouts(ctx context.Context) (int, error) {
	return s.store.Reconcile(ctx)
}
