// Package pricing derives tax and shipping from a cart's line items. Policies
// are pure functions of the subtotal and the lines, never stored state.
package pricing

import "github.com/oseilabs/storefront/internal/checkout/domain"

// Policy computes the tax and shipping components of a cart's totals.
type Policy interface {
	Tax(subtotalCents int64, items []domain.CartItem) int64
	Shipping(subtotalCents int64, items []domain.CartItem) int64
}

// FlatRate charges a basis-point tax on the subtotal and a flat shipping fee.
type FlatRate struct {
	TaxBasisPoints    int64
	ShippingFlatCents int64
}

// Default is zero tax and flat 5.99 shipping, applied uniformly on every
// code path.
func Default() FlatRate {
	return FlatRate{TaxBasisPoints: 0, ShippingFlatCents: 599}
}

func (p FlatRate) Tax(subtotalCents int64, _ []domain.CartItem) int64 {
	return subtotalCents * p.TaxBasisPoints / 10000
}

func (p FlatRate) Shipping(_ int64, _ []domain.CartItem) int64 {
	return p.ShippingFlatCents
}

// Compute derives the full totals for a set of cart lines. An empty cart
// yields zero totals; shipping is not charged on nothing.
func Compute(policy Policy, items []domain.CartItem) domain.Totals {
	if len(items) == 0 {
		return domain.Totals{}
	}

	var subtotal int64
	for _, item := range items {
		subtotal += int64(item.Quantity) * item.UnitPriceCents
	}

	tax := policy.Tax(subtotal, items)
	shipping := policy.Shipping(subtotal, items)

	return domain.Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shipping,
		TotalCents:    subtotal + tax + shipping,
	}
}
