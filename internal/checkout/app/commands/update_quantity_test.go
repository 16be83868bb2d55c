package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oseilabs/storefront/internal/checkout/app/commands"
	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

func seedCart(t *testing.T, carts *mockCartRepository, userID string) *domain.Cart {
	t.Helper()

	catalog := newMockCatalog(ports.Product{ID: "p1", Name: "Shea Butter", PriceCents: 1000})
	add := commands.NewAddItemCommandHandler(carts, catalog)

	cart, err := add.Handle(context.Background(), commands.AddItemCommand{
		UserID:    userID,
		ProductID: "p1",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("seeding cart failed: %v", err)
	}
	return cart
}

func TestUpdateQuantity(t *testing.T) {
	t.Run("replaces the line quantity and keeps the price snapshot", func(t *testing.T) {
		carts := newMockCartRepository()
		seeded := seedCart(t, carts, "u1")
		handler := commands.NewUpdateQuantityCommandHandler(carts)

		cart, err := handler.Handle(context.Background(), commands.UpdateQuantityCommand{
			UserID:   "u1",
			ItemID:   seeded.Items[0].ID,
			Quantity: 7,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if cart.Items[0].Quantity != 7 {
			t.Errorf("expected quantity 7, got %d", cart.Items[0].Quantity)
		}
		if cart.Items[0].UnitPriceCents != 1000 {
			t.Errorf("expected price snapshot unchanged, got %d", cart.Items[0].UnitPriceCents)
		}
	})

	t.Run("unknown item leaves the cart unchanged", func(t *testing.T) {
		carts := newMockCartRepository()
		seedCart(t, carts, "u1")
		handler := commands.NewUpdateQuantityCommandHandler(carts)

		_, err := handler.Handle(context.Background(), commands.UpdateQuantityCommand{
			UserID:   "u1",
			ItemID:   "nope",
			Quantity: 3,
		})
		if !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got: %v", err)
		}

		cart, err := carts.GetByUser(context.Background(), "u1")
		if err != nil {
			t.Fatalf("reading cart back failed: %v", err)
		}
		if cart.Items[0].Quantity != 2 {
			t.Errorf("expected stored quantity untouched at 2, got %d", cart.Items[0].Quantity)
		}
	})

	t.Run("missing cart surfaces cart not found", func(t *testing.T) {
		handler := commands.NewUpdateQuantityCommandHandler(newMockCartRepository())

		_, err := handler.Handle(context.Background(), commands.UpdateQuantityCommand{
			UserID:   "ghost",
			ItemID:   "i1",
			Quantity: 1,
		})
		if !errors.Is(err, domain.ErrCartNotFound) {
			t.Errorf("expected ErrCartNotFound, got: %v", err)
		}
	})
}

func TestRemoveItem(t *testing.T) {
	t.Run("removing an absent line is a no-op", func(t *testing.T) {
		carts := newMockCartRepository()
		seedCart(t, carts, "u1")
		handler := commands.NewRemoveItemCommandHandler(carts)

		cart, err := handler.Handle(context.Background(), commands.RemoveItemCommand{
			UserID: "u1",
			ItemID: "absent",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(cart.Items) != 1 {
			t.Errorf("expected cart untouched with 1 item, got %d", len(cart.Items))
		}
	})

	t.Run("removes an existing line", func(t *testing.T) {
		carts := newMockCartRepository()
		seeded := seedCart(t, carts, "u1")
		handler := commands.NewRemoveItemCommandHandler(carts)

		cart, err := handler.Handle(context.Background(), commands.RemoveItemCommand{
			UserID: "u1",
			ItemID: seeded.Items[0].ID,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(cart.Items) != 0 {
			t.Errorf("expected empty cart, got %d items", len(cart.Items))
		}
	})
}

func TestClearCart(t *testing.T) {
	t.Run("clears and is idempotent", func(t *testing.T) {
		carts := newMockCartRepository()
		seedCart(t, carts, "u1")
		handler := commands.NewClearCartCommandHandler(carts)

		for i := 0; i < 2; i++ {
			cart, err := handler.Handle(context.Background(), commands.ClearCartCommand{UserID: "u1"})
			if err != nil {
				t.Fatalf("clear %d failed: %v", i, err)
			}
			if !cart.IsEmpty() {
				t.Errorf("clear %d: expected empty cart", i)
			}
		}
	})

	t.Run("missing cart surfaces cart not found", func(t *testing.T) {
		handler := commands.NewClearCartCommandHandler(newMockCartRepository())

		_, err := handler.Handle(context.Background(), commands.ClearCartCommand{UserID: "ghost"})
		if !errors.Is(err, domain.ErrCartNotFound) {
			t.Errorf("expected ErrCartNotFound, got: %v", err)
		}
	})
}
