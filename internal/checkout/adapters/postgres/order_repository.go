package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, `WHERE o.id = $1`, id)
}

func (r *OrderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	return r.getOne(ctx, `WHERE o.id = $1 AND o.user_id = $2`, id, userID)
}

func (r *OrderRepository) getOne(ctx context.Context, where string, args ...any) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		` + where

	order, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE ($1::text IS NULL OR o.user_id = $1)
		  AND ($2::text IS NULL OR o.status = $2)
		ORDER BY o.created_at DESC, o.id
		LIMIT $3 OFFSET $4
	`

	var userFilter *string
	if filter.UserID != "" {
		userFilter = &filter.UserID
	}
	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize

	rows, err := r.pool.Query(ctx, query, userFilter, statusFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var refs []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		refs = append(refs, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(refs))
	for _, ref := range refs {
		orders = append(orders, *ref)
	}

	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// Summary aggregates sales inside [since, until]. Cancelled orders count
// toward order volume but never toward revenue.
func (r *OrderRepository) Summary(ctx context.Context, since, until time.Time) (*ports.SalesSummary, error) {
	summary := &ports.SalesSummary{}

	totalsQuery := `
		SELECT
			COALESCE(SUM(total_cents) FILTER (WHERE status <> 'cancelled'), 0),
			COUNT(*)
		FROM orders
		WHERE created_at BETWEEN $1 AND $2
	`
	err := r.pool.QueryRow(ctx, totalsQuery, since, until).Scan(
		&summary.TotalRevenueCents,
		&summary.TotalOrders,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales totals: %w", err)
	}

	dailyQuery := `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, SUM(total_cents)
		FROM orders
		WHERE created_at BETWEEN $1 AND $2 AND status <> 'cancelled'
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.pool.Query(ctx, dailyQuery, since, until)
	if err != nil {
		return nil, fmt.Errorf("query daily sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var daily ports.DailyRevenue
		if err := rows.Scan(&daily.Day, &daily.RevenueCents); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		summary.DailySales = append(summary.DailySales, daily)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily sales: %w", err)
	}

	methodQuery := `
		SELECT payment_method, SUM(total_cents)
		FROM orders
		WHERE created_at BETWEEN $1 AND $2 AND status <> 'cancelled'
		GROUP BY payment_method
		ORDER BY payment_method
	`
	methodRows, err := r.pool.Query(ctx, methodQuery, since, until)
	if err != nil {
		return nil, fmt.Errorf("query revenue by method: %w", err)
	}
	defer methodRows.Close()

	for methodRows.Next() {
		var method ports.MethodRevenue
		if err := methodRows.Scan(&method.Method, &method.RevenueCents); err != nil {
			return nil, fmt.Errorf("scan revenue by method: %w", err)
		}
		summary.RevenueByMethod = append(summary.RevenueByMethod, method)
	}
	if err := methodRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue by method: %w", err)
	}

	recent, err := r.List(ctx, ports.ListFilter{Page: 1, PageSize: 5})
	if err != nil {
		return nil, err
	}
	summary.RecentOrders = recent

	return summary, nil
}

const orderColumns = `
	o.id, o.user_id,
	o.street, o.town, o.region, o.digital_address, o.phone, o.country,
	o.payment_method, o.payment_status, o.status,
	o.subtotal_cents, o.tax_cents, o.shipping_cents, o.total_cents,
	o.cart_fingerprint, o.cart_cleared,
	o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.ShippingAddress.Street,
		&order.ShippingAddress.Town,
		&order.ShippingAddress.Region,
		&order.ShippingAddress.DigitalAddress,
		&order.ShippingAddress.Phone,
		&order.ShippingAddress.Country,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&order.SubtotalCents,
		&order.TaxCents,
		&order.ShippingCents,
		&order.TotalCents,
		&order.CartFingerprint,
		&order.CartCleared,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	query := `
		SELECT order_id, product_id, quantity, price_at_purchase_cents, name_at_purchase
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(
			&orderID,
			&item.ProductID,
			&item.Quantity,
			&item.PriceAtPurchaseCents,
			&item.NameAtPurchase,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}

	return nil
}

func insertOrder(ctx context.Context, q querier, order domain.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id,
			street, town, region, digital_address, phone, country,
			payment_method, payment_status, status,
			subtotal_cents, tax_cents, shipping_cents, total_cents,
			cart_fingerprint, cart_cleared,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := q.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.ShippingAddress.Street,
		order.ShippingAddress.Town,
		order.ShippingAddress.Region,
		order.ShippingAddress.DigitalAddress,
		order.ShippingAddress.Phone,
		order.ShippingAddress.Country,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Status,
		order.SubtotalCents,
		order.TaxCents,
		order.ShippingCents,
		order.TotalCents,
		order.CartFingerprint,
		order.CartCleared,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		query := `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase_cents, name_at_purchase)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := q.Exec(ctx, query,
			order.ID,
			item.ProductID,
			item.Quantity,
			item.PriceAtPurchaseCents,
			item.NameAtPurchase,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}
