package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

type OrderRepository struct {
	orders *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{orders: db.Collection("orders")}
}

// EnsureIndexes creates the fingerprint uniqueness guard plus the list and
// reporting indexes.
// orderIndexModels returns the order collection's indexes. Only pending
// orders hold their fingerprint: the unique index blocks a double submission
// while the cart clear is outstanding, and releases the basket once the
// clear lands.
func orderIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "cart_fingerprint", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "cart_cleared", Value: false}}),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
}

func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.orders.Indexes().CreateMany(ctx, orderIndexModels()); err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}

	return nil
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	if _, err := r.orders.InsertOne(ctx, toOrderDoc(order)); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *OrderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc orderDoc
	err := r.orders.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	return doc.toDomain(), nil
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

	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := r.orders.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, *doc.toDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.orders.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// Summary aggregates sales inside [since, until]. Cancelled orders count
// toward order volume but never toward revenue.
func (r *OrderRepository) Summary(ctx context.Context, since, until time.Time) (*ports.SalesSummary, error) {
	summary := &ports.SalesSummary{}

	rangeFilter := bson.M{"created_at": bson.M{"$gte": since, "$lte": until}}

	total, err := r.orders.CountDocuments(ctx, rangeFilter)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	summary.TotalOrders = total

	revenueFilter := bson.M{
		"created_at": bson.M{"$gte": since, "$lte": until},
		"status":     bson.M{"$ne": string(domain.StatusCancelled)},
	}

	revenuePipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueFilter}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$total_cents"},
		}}},
	}
	if err := r.aggregateOne(ctx, revenuePipeline, func(doc bson.M) {
		summary.TotalRevenueCents = toInt64(doc["revenue"])
	}); err != nil {
		return nil, fmt.Errorf("aggregate revenue: %w", err)
	}

	dailyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueFilter}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$created_at",
			}},
			"revenue": bson.M{"$sum": "$total_cents"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if err := r.aggregateEach(ctx, dailyPipeline, func(doc bson.M) {
		summary.DailySales = append(summary.DailySales, ports.DailyRevenue{
			Day:          doc["_id"].(string),
			RevenueCents: toInt64(doc["revenue"]),
		})
	}); err != nil {
		return nil, fmt.Errorf("aggregate daily sales: %w", err)
	}

	methodPipeline := mongo.Pipeline{
		{{Key: "$match", Value: revenueFilter}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$payment_method",
			"revenue": bson.M{"$sum": "$total_cents"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	if err := r.aggregateEach(ctx, methodPipeline, func(doc bson.M) {
		summary.RevenueByMethod = append(summary.RevenueByMethod, ports.MethodRevenue{
			Method:       domain.PaymentMethod(doc["_id"].(string)),
			RevenueCents: toInt64(doc["revenue"]),
		})
	}); err != nil {
		return nil, fmt.Errorf("aggregate revenue by method: %w", err)
	}

	recent, err := r.List(ctx, ports.ListFilter{Page: 1, PageSize: 5})
	if err != nil {
		return nil, err
	}
	summary.RecentOrders = recent

	return summary, nil
}

func (r *OrderRepository) aggregateOne(ctx context.Context, pipeline mongo.Pipeline, fn func(bson.M)) error {
	return r.aggregateEach(ctx, pipeline, fn)
}

func (r *OrderRepository) aggregateEach(ctx context.Context, pipeline mongo.Pipeline, fn func(bson.M)) error {
	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		fn(doc)
	}

	return cursor.Err()
}

// toInt64 normalizes the numeric types the driver may decode sums into.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
