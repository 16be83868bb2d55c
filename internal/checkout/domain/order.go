package domain

import (
	"strings"
	"time"
)

// OrderStatus captures the fulfillment lifecycle of an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the accepted values. Admin
// updates enforce set membership only, no transition graph.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks settlement as reported by the external payment
// collaborator. It is a label, not a settled transaction.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// PaymentMethod is the customer's chosen payment instrument.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentMobileMoney    PaymentMethod = "mobile_money"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentMobileMoney, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	default:
		return false
	}
}

// Address is the shipping destination, copied into the order by value.
type Address struct {
	Street         string `json:"street"`
	Town           string `json:"town"`
	Region         string `json:"region"`
	DigitalAddress string `json:"digitalAddress,omitempty"`
	Phone          string `json:"phone"`
	Country        string `json:"country"`
}

// Validate ensures all required address fields are present.
func (a Address) Validate() error {
	for _, field := range []struct {
		name, value string
	}{
		{"street", a.Street},
		{"town", a.Town},
		{"region", a.Region},
		{"phone", a.Phone},
		{"country", a.Country},
	} {
		if strings.TrimSpace(field.value) == "" {
			return ValidationError("shipping address " + field.name + " is required")
		}
	}
	return nil
}

// OrderItem is one purchased line. Price and name are copied at order
// creation and never resynchronized with the catalog, so the order always
// reflects what the customer was charged.
type OrderItem struct {
	ProductID            string `json:"productId"`
	Quantity             int    `json:"quantity"`
	PriceAtPurchaseCents int64  `json:"priceAtPurchaseCents"`
	NameAtPurchase       string `json:"nameAtPurchase"`
}

// Order is the immutable record produced by checkout. Only the two status
// fields evolve after creation; items, address and financial fields are fixed.
type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Status          OrderStatus   `json:"status"`
	SubtotalCents   int64         `json:"subtotalCents"`
	TaxCents        int64         `json:"taxCents"`
	ShippingCents   int64         `json:"shippingCents"`
	TotalCents      int64         `json:"totalCents"`
	CartFingerprint string        `json:"-"`
	CartCleared     bool          `json:"-"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return ValidationError("user_id is required")
	}
	if len(o.Items) == 0 {
		return ValidationError("order must contain at least one item")
	}
	for _, item := range o.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return ValidationError("order item product_id is required")
		}
		if item.Quantity < 1 {
			return ValidationError("order item quantity must be at least 1")
		}
		if item.PriceAtPurchaseCents < 0 {
			return ValidationError("order item price must not be negative")
		}
		if strings.TrimSpace(item.NameAtPurchase) == "" {
			return ValidationError("order item name is required")
		}
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if !o.PaymentMethod.Valid() {
		return ValidationError("payment_method is not recognized")
	}
	if !o.PaymentStatus.Valid() {
		return ValidationError("payment_status is not recognized")
	}
	if !o.Status.Valid() {
		return ValidationError("status is not recognized")
	}
	if o.SubtotalCents < 0 || o.TaxCents < 0 || o.ShippingCents < 0 {
		return ValidationError("financial fields must not be negative")
	}
	if o.TotalCents != o.SubtotalCents+o.TaxCents+o.ShippingCents {
		return ValidationError("total must equal subtotal plus tax plus shipping")
	}
	return nil
}

// Totals returns the order's fixed financial fields.
func (o Order) Totals() Totals {
	return Totals{
		SubtotalCents: o.SubtotalCents,
		TaxCents:      o.TaxCents,
		ShippingCents: o.ShippingCents,
		TotalCents:    o.TotalCents,
	}
}
