package mongo

import (
	"time"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// Persistence documents are kept separate from the domain types so bson field
// names stay stable when the domain structs change.

type cartDoc struct {
	UserID    string        `bson:"user_id"`
	Items     []cartItemDoc `bson:"items"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type cartItemDoc struct {
	ID             string    `bson:"id"`
	ProductID      string    `bson:"product_id"`
	Quantity       int       `bson:"quantity"`
	UnitPriceCents int64     `bson:"unit_price_cents"`
	AddedAt        time.Time `bson:"added_at"`
}

type orderDoc struct {
	ID              string         `bson:"_id"`
	UserID          string         `bson:"user_id"`
	Items           []orderItemDoc `bson:"items"`
	Street          string         `bson:"street"`
	Town            string         `bson:"town"`
	Region          string         `bson:"region"`
	DigitalAddress  string         `bson:"digital_address"`
	Phone           string         `bson:"phone"`
	Country         string         `bson:"country"`
	PaymentMethod   string         `bson:"payment_method"`
	PaymentStatus   string         `bson:"payment_status"`
	Status          string         `bson:"status"`
	SubtotalCents   int64          `bson:"subtotal_cents"`
	TaxCents        int64          `bson:"tax_cents"`
	ShippingCents   int64          `bson:"shipping_cents"`
	TotalCents      int64          `bson:"total_cents"`
	CartFingerprint string         `bson:"cart_fingerprint"`
	CartCleared     bool           `bson:"cart_cleared"`
	CreatedAt       time.Time      `bson:"created_at"`
	UpdatedAt       time.Time      `bson:"updated_at"`
}

type orderItemDoc struct {
	ProductID            string `bson:"product_id"`
	Quantity             int    `bson:"quantity"`
	PriceAtPurchaseCents int64  `bson:"price_at_purchase_cents"`
	NameAtPurchase       string `bson:"name_at_purchase"`
}

func toCartDoc(cart *domain.Cart) cartDoc {
	doc := cartDoc{
		UserID:    cart.UserID,
		Items:     make([]cartItemDoc, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		doc.Items = append(doc.Items, cartItemDoc{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			AddedAt:        item.AddedAt,
		})
	}
	return doc
}

func (d cartDoc) toDomain() *domain.Cart {
	cart := &domain.Cart{
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, item := range d.Items {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			AddedAt:        item.AddedAt,
		})
	}
	return cart
}

func toOrderDoc(order domain.Order) orderDoc {
	doc := orderDoc{
		ID:              order.ID,
		UserID:          order.UserID,
		Items:           make([]orderItemDoc, 0, len(order.Items)),
		Street:          order.ShippingAddress.Street,
		Town:            order.ShippingAddress.Town,
		Region:          order.ShippingAddress.Region,
		DigitalAddress:  order.ShippingAddress.DigitalAddress,
		Phone:           order.ShippingAddress.Phone,
		Country:         order.ShippingAddress.Country,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		Status:          string(order.Status),
		SubtotalCents:   order.SubtotalCents,
		TaxCents:        order.TaxCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
		CartFingerprint: order.CartFingerprint,
		CartCleared:     order.CartCleared,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID:            item.ProductID,
			Quantity:             item.Quantity,
			PriceAtPurchaseCents: item.PriceAtPurchaseCents,
			NameAtPurchase:       item.NameAtPurchase,
		})
	}
	return doc
}

func (d orderDoc) toDomain() *domain.Order {
	order := &domain.Order{
		ID:     d.ID,
		UserID: d.UserID,
		ShippingAddress: domain.Address{
			Street:         d.Street,
			Town:           d.Town,
			Region:         d.Region,
			DigitalAddress: d.DigitalAddress,
			Phone:          d.Phone,
			Country:        d.Country,
		},
		PaymentMethod:   domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(d.PaymentStatus),
		Status:          domain.OrderStatus(d.Status),
		SubtotalCents:   d.SubtotalCents,
		TaxCents:        d.TaxCents,
		ShippingCents:   d.ShippingCents,
		TotalCents:      d.TotalCents,
		CartFingerprint: d.CartFingerprint,
		CartCleared:     d.CartCleared,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, item := range d.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:            item.ProductID,
			Quantity:             item.Quantity,
			PriceAtPurchaseCents: item.PriceAtPurchaseCents,
			NameAtPurchase:       item.NameAtPurchase,
		})
	}
	return order
}
