package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oseilabs/storefront/internal/checkout/domain"
	"github.com/oseilabs/storefront/internal/checkout/ports"
)

// ProductCatalog reads the products collection owned by the catalog service.
type ProductCatalog struct {
	products *mongo.Collection
}

func NewProductCatalog(db *mongo.Database) *ProductCatalog {
	return &ProductCatalog{products: db.Collection("products")}
}

func (c *ProductCatalog) GetProduct(ctx context.Context, productID string) (*ports.Product, error) {
	var doc struct {
		ID         string `bson:"_id"`
		Name       string `bson:"name"`
		PriceCents int64  `bson:"price_cents"`
	}

	err := c.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	return &ports.Product{
		ID:         doc.ID,
		Name:       doc.Name,
		PriceCents: doc.PriceCents,
	}, nil
}
