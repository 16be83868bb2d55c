package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CartItem is one product line inside a cart. UnitPriceCents is the catalog
// price captured when the line was first added; later catalog repricing does
// not touch it.
type CartItem struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	AddedAt        time.Time `json:"addedAt"`
}

// Cart is the mutable per-user container of line items. There is at most one
// cart per user; it is created lazily on first mutation and never deleted,
// clearing just empties Items.
type Cart struct {
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Totals is the derived financial view of a cart. It is computed fresh on
// every externally visible read, never stored.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	TaxCents      int64 `json:"taxCents"`
	ShippingCents int64 `json:"shippingCents"`
	TotalCents    int64 `json:"totalCents"`
}

// NewCart returns an empty cart for the user.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Upsert adds a line for productID or, when one already exists, increments its
// quantity. The existing price snapshot wins on increments; the price at
// first add is what the customer is eventually charged.
func (c *Cart) Upsert(itemID, productID string, quantity int, unitPriceCents int64, now time.Time) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.UpdatedAt = now
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		ID:             itemID,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		AddedAt:        now,
	})
	c.UpdatedAt = now
}

// SetQuantity replaces the quantity of an existing line. The price snapshot
// is untouched.
func (c *Cart) SetQuantity(itemID string, quantity int, now time.Time) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			c.UpdatedAt = now
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItem filters out the line with the given id. Removing a line that is
// not present leaves the cart unchanged and is not an error.
func (c *Cart) RemoveItem(itemID string, now time.Time) {
	c.filter(func(item CartItem) bool { return item.ID != itemID }, now)
}

// RemoveProduct filters out the line referencing the given product, with the
// same no-op semantics as RemoveItem.
func (c *Cart) RemoveProduct(productID string, now time.Time) {
	c.filter(func(item CartItem) bool { return item.ProductID != productID }, now)
}

func (c *Cart) filter(keep func(CartItem) bool, now time.Time) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if keep(item) {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.UpdatedAt = now
}

// Clear empties the cart. The record itself persists for reuse.
func (c *Cart) Clear(now time.Time) {
	c.Items = []CartItem{}
	c.UpdatedAt = now
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// SubtotalCents sums quantity times unit price over all lines.
func (c *Cart) SubtotalCents() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += int64(item.Quantity) * item.UnitPriceCents
	}
	return subtotal
}

// Fingerprint identifies the cart contents independent of line order. It keys
// checkout idempotency: the same items at the same prices and quantities
// always produce the same fingerprint for a user.
func (c *Cart) Fingerprint() string {
	lines := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, fmt.Sprintf("%s:%d:%d", item.ProductID, item.Quantity, item.UnitPriceCents))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(c.UserID + "|" + strings.Join(lines, "|")))
	return hex.EncodeToString(sum[:])
}
