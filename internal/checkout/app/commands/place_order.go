package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
	"github.com/oseilabs/storefront/internal/checkout/pricing"
)

type PlaceOrderCommand struct {
	UserID          string
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
}

func (c PlaceOrderCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return domain.ValidationError("user_id is required")
	}
	if err := c.ShippingAddress.Validate(); err != nil {
		return err
	}
	if !c.PaymentMethod.Valid() {
		return domain.ValidationError("payment_method is not recognized")
	}
	return nil
}

type PlaceOrderHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error)
}

// PlaceOrderCommandHandler is the checkout engine. It validates the request,
// then inside the store's per-user critical section re-reads the cart, joins
// the catalog for display names, recomputes totals with the pricing policy
// and materializes the immutable order. Order creation and cart clearing
// commit as one observable unit; the notification afterwards is best effort.
type PlaceOrderCommandHandler struct {
	store    ports.CheckoutStore
	catalog  ports.ProductCatalog
	policy   pricing.Policy
	notifier ports.NotificationSink
	logger   *slog.Logger
}

func NewPlaceOrderCommandHandler(
	store ports.CheckoutStore,
	catalog ports.ProductCatalog,
	policy pricing.Policy,
	notifier ports.NotificationSink,
	logger *slog.Logger,
) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{
		store:    store,
		catalog:  catalog,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
	}
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.store.PlaceOrder(ctx, cmd.UserID, func(ctx context.Context, cart *domain.Cart) (*domain.Order, error) {
		return h.buildOrder(ctx, cmd, cart)
	})
	if err != nil {
		return nil, err
	}

	// Once the order is committed, a sink failure must not surface to the
	// caller; the financial transaction already happened.
	if err := h.notifier.OrderPlaced(ctx, *order); err != nil {
		h.logger.WarnContext(ctx, "order notification failed",
			"order_id", order.ID,
			"error", err,
		)
	}

	return order, nil
}

func (h *PlaceOrderCommandHandler) buildOrder(ctx context.Context, cmd PlaceOrderCommand, cart *domain.Cart) (*domain.Order, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		// The catalog join is for the display name only. The price charged
		// is the cart's snapshot, never a fresh catalog read.
		product, err := h.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, domain.ErrProductGone
			}
			return nil, fmt.Errorf("resolve product %s: %w", line.ProductID, err)
		}

		items = append(items, domain.OrderItem{
			ProductID:            line.ProductID,
			Quantity:             line.Quantity,
			PriceAtPurchaseCents: line.UnitPriceCents,
			NameAtPurchase:       product.Name,
		})
	}

	totals := pricing.Compute(h.policy, cart.Items)

	orderID, err := domain.NewID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:              orderID,
		UserID:          cart.UserID,
		Items:           items,
		ShippingAddress: cmd.ShippingAddress,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		Status:          domain.StatusProcessing,
		SubtotalCents:   totals.SubtotalCents,
		TaxCents:        totals.TaxCents,
		ShippingCents:   totals.ShippingCents,
		TotalCents:      totals.TotalCents,
		CartFingerprint: cart.Fingerprint(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return &order, nil
}
