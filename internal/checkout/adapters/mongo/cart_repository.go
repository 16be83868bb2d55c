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
)

type CartRepository struct {
	carts *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{carts: db.Collection("carts")}
}

// cartIndexModels returns the cart collection's indexes. A cart row is kept
// for reuse after every clear, so there is deliberately no TTL expiry here.
func cartIndexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}

func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.carts.Indexes().CreateMany(ctx, cartIndexModels()); err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}

	return nil
}

func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDoc
	err := r.carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}

	return doc.toDomain(), nil
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	doc := toCartDoc(cart)

	filter := bson.M{"user_id": cart.UserID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := r.carts.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":      []cartItemDoc{},
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.carts.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if result.MatchedCount == 0 {
		return domain.ErrCartNotFound
	}

	return nil
}
