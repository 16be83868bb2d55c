package domain_test

import (
	"testing"
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

func validOrder() domain.Order {
	return domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Items: []domain.OrderItem{
			{ProductID: "prod-a", Quantity: 2, PriceAtPurchaseCents: 1000, NameAtPurchase: "Widget"},
		},
		ShippingAddress: domain.Address{
			Street:  "12 Harbour Rd",
			Town:    "Tema",
			Region:  "Greater Accra",
			Phone:   "+233200000000",
			Country: "Ghana",
		},
		PaymentMethod: domain.PaymentMobileMoney,
		PaymentStatus: domain.PaymentPending,
		Status:        domain.StatusProcessing,
		SubtotalCents: 2000,
		TaxCents:      0,
		ShippingCents: 599,
		TotalCents:    2599,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Order)
		wantErr bool
	}{
		{"valid order", func(o *domain.Order) {}, false},
		{"missing user", func(o *domain.Order) { o.UserID = " " }, true},
		{"empty items", func(o *domain.Order) { o.Items = nil }, true},
		{"zero quantity item", func(o *domain.Order) { o.Items[0].Quantity = 0 }, true},
		{"negative price item", func(o *domain.Order) { o.Items[0].PriceAtPurchaseCents = -1 }, true},
		{"missing item name", func(o *domain.Order) { o.Items[0].NameAtPurchase = "" }, true},
		{"missing street", func(o *domain.Order) { o.ShippingAddress.Street = "" }, true},
		{"missing town", func(o *domain.Order) { o.ShippingAddress.Town = "" }, true},
		{"missing region", func(o *domain.Order) { o.ShippingAddress.Region = "" }, true},
		{"missing phone", func(o *domain.Order) { o.ShippingAddress.Phone = "" }, true},
		{"missing country", func(o *domain.Order) { o.ShippingAddress.Country = "" }, true},
		{"optional digital address", func(o *domain.Order) { o.ShippingAddress.DigitalAddress = "" }, false},
		{"unknown payment method", func(o *domain.Order) { o.PaymentMethod = "barter" }, true},
		{"unknown payment status", func(o *domain.Order) { o.PaymentStatus = "maybe" }, true},
		{"unknown order status", func(o *domain.Order) { o.Status = "lost" }, true},
		{"negative shipping", func(o *domain.Order) { o.ShippingCents = -1; o.TotalCents = 1999 }, true},
		{"inconsistent total", func(o *domain.Order) { o.TotalCents = 9999 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			err := order.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Order.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderStatusValid(t *testing.T) {
	valid := []domain.OrderStatus{
		domain.StatusProcessing,
		domain.StatusShipped,
		domain.StatusDelivered,
		domain.StatusCancelled,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if domain.OrderStatus("pending").Valid() {
		t.Error("pending is not an order status")
	}
}

func TestPaymentMethodValid(t *testing.T) {
	valid := []domain.PaymentMethod{
		domain.PaymentCreditCard,
		domain.PaymentMobileMoney,
		domain.PaymentBankTransfer,
		domain.PaymentCashOnDelivery,
	}
	for _, m := range valid {
		if !m.Valid() {
			t.Errorf("expected %q to be valid", m)
		}
	}
	if domain.PaymentMethod("cheque").Valid() {
		t.Error("cheque is not a payment method")
	}
}
