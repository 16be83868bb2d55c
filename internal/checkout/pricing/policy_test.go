package pricing_test

import (
	"testing"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/pricing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		policy pricing.FlatRate
		items  []domain.CartItem
		want   domain.Totals
	}{
		{
			name:   "two products with default policy",
			policy: pricing.Default(),
			items: []domain.CartItem{
				{ProductID: "prod-a", Quantity: 2, UnitPriceCents: 1000},
				{ProductID: "prod-b", Quantity: 1, UnitPriceCents: 500},
			},
			want: domain.Totals{
				SubtotalCents: 2500,
				TaxCents:      0,
				ShippingCents: 599,
				TotalCents:    3099,
			},
		},
		{
			name:   "empty cart yields zero totals",
			policy: pricing.Default(),
			items:  nil,
			want:   domain.Totals{},
		},
		{
			name:   "basis point tax",
			policy: pricing.FlatRate{TaxBasisPoints: 1250, ShippingFlatCents: 0},
			items: []domain.CartItem{
				{ProductID: "prod-a", Quantity: 1, UnitPriceCents: 10000},
			},
			want: domain.Totals{
				SubtotalCents: 10000,
				TaxCents:      1250,
				ShippingCents: 0,
				TotalCents:    11250,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.Compute(tt.policy, tt.items)
			if got != tt.want {
				t.Errorf("Compute() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
