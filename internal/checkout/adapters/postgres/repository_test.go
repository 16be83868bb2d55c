//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/oseilabs/storefront/internal/checkout/adapters/postgres"
	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
	"github.com/oseilabs/storefront/internal/database"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testpostgres.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	projectRoot := findProjectRoot(t)
	migrationsPath := filepath.Join(projectRoot, "migrations")

	if err := database.RunMigrations(connStr, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, id, name string, priceCents int64) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, price_cents) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = $2, price_cents = $3`,
		id, name, priceCents)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
}

func seedCart(t *testing.T, carts *postgres.CartRepository, userID string, qty int) *domain.Cart {
	t.Helper()

	now := time.Now().UTC()
	cart := domain.NewCart(userID, now)
	cart.Upsert("i1", "p1", qty, 1000, now)
	if err := carts.Save(context.Background(), cart); err != nil {
		t.Fatalf("failed to seed cart: %v", err)
	}
	return cart
}

func testAddress() domain.Address {
	return domain.Address{
		Street:  "14 Oxford St",
		Town:    "Osu",
		Region:  "Greater Accra",
		Phone:   "+233201234567",
		Country: "Ghana",
	}
}

func testOrder(t *testing.T, userID, fingerprint string) domain.Order {
	t.Helper()

	id, err := domain.NewID()
	if err != nil {
		t.Fatalf("failed to generate id: %v", err)
	}

	now := time.Now().UTC()
	return domain.Order{
		ID:     id,
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 2, PriceAtPurchaseCents: 1000, NameAtPurchase: "Shea Butter"},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   domain.PaymentMobileMoney,
		PaymentStatus:   domain.PaymentPending,
		Status:          domain.StatusProcessing,
		SubtotalCents:   2000,
		ShippingCents:   599,
		TotalCents:      2599,
		CartFingerprint: fingerprint,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func buildFrom(order domain.Order) ports.OrderBuilder {
	return func(_ context.Context, cart *domain.Cart) (*domain.Order, error) {
		if cart == nil || cart.IsEmpty() {
			return nil, domain.ErrEmptyCart
		}
		built := order
		built.CartFingerprint = cart.Fingerprint()
		return &built, nil
	}
}

func TestCartRepository(t *testing.T) {
	pool := setupTestDB(t)
	carts := postgres.NewCartRepository(pool)
	ctx := context.Background()

	t.Run("unknown user maps to not found", func(t *testing.T) {
		_, err := carts.GetByUser(ctx, "nobody")
		if !errors.Is(err, domain.ErrCartNotFound) {
			t.Errorf("expected ErrCartNotFound, got: %v", err)
		}
	})

	t.Run("save and read back", func(t *testing.T) {
		seedCart(t, carts, "cart-user", 3)

		got, err := carts.GetByUser(ctx, "cart-user")
		if err != nil {
			t.Fatalf("failed to read cart: %v", err)
		}
		if len(got.Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(got.Items))
		}
		if got.Items[0].Quantity != 3 || got.Items[0].UnitPriceCents != 1000 {
			t.Errorf("unexpected line: %+v", got.Items[0])
		}
	})

	t.Run("save replaces the line set", func(t *testing.T) {
		now := time.Now().UTC()
		cart, err := carts.GetByUser(ctx, "cart-user")
		if err != nil {
			t.Fatalf("failed to read cart: %v", err)
		}

		cart.Upsert("i2", "p2", 1, 500, now)
		cart.RemoveItem("i1", now)
		if err := carts.Save(ctx, cart); err != nil {
			t.Fatalf("failed to save cart: %v", err)
		}

		got, err := carts.GetByUser(ctx, "cart-user")
		if err != nil {
			t.Fatalf("failed to read cart: %v", err)
		}
		if len(got.Items) != 1 || got.Items[0].ProductID != "p2" {
			t.Errorf("expected only p2 to remain, got %+v", got.Items)
		}
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		if err := carts.Clear(ctx, "cart-user"); err != nil {
			t.Fatalf("failed to clear cart: %v", err)
		}

		got, err := carts.GetByUser(ctx, "cart-user")
		if err != nil {
			t.Fatalf("failed to read cart: %v", err)
		}
		if !got.IsEmpty() {
			t.Errorf("expected empty cart, got %d items", len(got.Items))
		}
	})
}

func TestOrderRepository(t *testing.T) {
	pool := setupTestDB(t)
	orders := postgres.NewOrderRepository(pool)
	ctx := context.Background()

	order := testOrder(t, "order-user", "fp-1")
	if err := orders.Create(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	t.Run("round trips items and address", func(t *testing.T) {
		got, err := orders.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("failed to retrieve order: %v", err)
		}
		if got.TotalCents != 2599 {
			t.Errorf("expected total 2599, got %d", got.TotalCents)
		}
		if len(got.Items) != 1 || got.Items[0].NameAtPurchase != "Shea Butter" {
			t.Errorf("unexpected items: %+v", got.Items)
		}
		if got.ShippingAddress.Town != "Osu" {
			t.Errorf("expected town Osu, got %s", got.ShippingAddress.Town)
		}
	})

	t.Run("ownership scopes reads", func(t *testing.T) {
		if _, err := orders.GetByIDForUser(ctx, order.ID, "order-user"); err != nil {
			t.Fatalf("owner read failed: %v", err)
		}
		_, err := orders.GetByIDForUser(ctx, order.ID, "someone-else")
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got: %v", err)
		}
	})

	t.Run("list filters by user and status", func(t *testing.T) {
		status := domain.StatusProcessing
		got, err := orders.List(ctx, ports.ListFilter{UserID: order.UserID, Status: &status, Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("failed to list orders: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 order, got %d", len(got))
		}

		shipped := domain.StatusShipped
		got, err = orders.List(ctx, ports.ListFilter{UserID: order.UserID, Status: &shipped, Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("failed to list orders: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no shipped orders, got %d", len(got))
		}
	})

	t.Run("status updates persist", func(t *testing.T) {
		if err := orders.UpdateStatus(ctx, order.ID, domain.StatusShipped); err != nil {
			t.Fatalf("failed to update status: %v", err)
		}

		got, err := orders.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("failed to retrieve order: %v", err)
		}
		if got.Status != domain.StatusShipped {
			t.Errorf("expected status shipped, got %s", got.Status)
		}

		err = orders.UpdateStatus(ctx, "ghost", domain.StatusShipped)
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got: %v", err)
		}
	})

	t.Run("summary excludes cancelled revenue", func(t *testing.T) {
		cancelled := testOrder(t, "order-user-2", "fp-2")
		if err := orders.Create(ctx, cancelled); err != nil {
			t.Fatalf("failed to create order: %v", err)
		}
		if err := orders.UpdateStatus(ctx, cancelled.ID, domain.StatusCancelled); err != nil {
			t.Fatalf("failed to cancel order: %v", err)
		}

		now := time.Now().UTC()
		summary, err := orders.Summary(ctx, now.AddDate(0, 0, -6), now)
		if err != nil {
			t.Fatalf("failed to compute summary: %v", err)
		}
		if summary.TotalOrders != 2 {
			t.Errorf("expected 2 orders, got %d", summary.TotalOrders)
		}
		if summary.TotalRevenueCents != 2599 {
			t.Errorf("expected revenue 2599, got %d", summary.TotalRevenueCents)
		}
	})
}

func TestProductCatalog(t *testing.T) {
	pool := setupTestDB(t)
	catalog := postgres.NewProductCatalog(pool)
	ctx := context.Background()

	seedProduct(t, pool, "p1", "Shea Butter", 1000)

	t.Run("resolves a known product", func(t *testing.T) {
		product, err := catalog.GetProduct(ctx, "p1")
		if err != nil {
			t.Fatalf("failed to get product: %v", err)
		}
		if product.Name != "Shea Butter" || product.PriceCents != 1000 {
			t.Errorf("unexpected product: %+v", product)
		}
	})

	t.Run("unknown product maps to not found", func(t *testing.T) {
		_, err := catalog.GetProduct(ctx, "ghost")
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got: %v", err)
		}
	})
}

func TestCheckoutStore(t *testing.T) {
	pool := setupTestDB(t)
	carts := postgres.NewCartRepository(pool)
	orders := postgres.NewOrderRepository(pool)
	store := postgres.NewCheckoutStore(pool)
	ctx := context.Background()

	t.Run("creates the order and clears the cart atomically", func(t *testing.T) {
		seedCart(t, carts, "co-user", 2)

		order, err := store.PlaceOrder(ctx, "co-user", buildFrom(testOrder(t, "co-user", "")))
		if err != nil {
			t.Fatalf("checkout failed: %v", err)
		}
		if !order.CartCleared {
			t.Error("expected the cart cleared flag on the returned order")
		}

		cart, err := carts.GetByUser(ctx, "co-user")
		if err != nil {
			t.Fatalf("failed to read cart: %v", err)
		}
		if !cart.IsEmpty() {
			t.Error("expected cart to be empty after checkout")
		}

		if _, err := orders.GetByIDForUser(ctx, order.ID, "co-user"); err != nil {
			t.Errorf("failed to read the placed order back: %v", err)
		}
	})

	t.Run("empty cart aborts without an order", func(t *testing.T) {
		_, err := store.PlaceOrder(ctx, "co-empty", buildFrom(testOrder(t, "co-empty", "")))
		if !errors.Is(err, domain.ErrEmptyCart) {
			t.Errorf("expected ErrEmptyCart, got: %v", err)
		}
	})

	t.Run("rebuying the identical basket creates a new order", func(t *testing.T) {
		cart := seedCart(t, carts, "co-rebuy", 1)

		first, err := store.PlaceOrder(ctx, "co-rebuy", buildFrom(testOrder(t, "co-rebuy", "")))
		if err != nil {
			t.Fatalf("first checkout failed: %v", err)
		}

		// Same products, quantities and prices, added again after checkout.
		if err := carts.Save(ctx, cart); err != nil {
			t.Fatalf("failed to refill cart: %v", err)
		}

		second, err := store.PlaceOrder(ctx, "co-rebuy", buildFrom(testOrder(t, "co-rebuy", "")))
		if err != nil {
			t.Fatalf("second checkout failed: %v", err)
		}
		if second.ID == first.ID {
			t.Error("expected a fresh order for the repeat purchase, got the old one replayed")
		}

		got, err := orders.List(ctx, ports.ListFilter{UserID: "co-rebuy", Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("failed to list orders: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected two stored orders, got %d", len(got))
		}

		refilled, err := carts.GetByUser(ctx, "co-rebuy")
		if err != nil {
			t.Fatalf("failed to read cart: %v", err)
		}
		if !refilled.IsEmpty() {
			t.Error("expected cart cleared after the second purchase")
		}
	})
}
