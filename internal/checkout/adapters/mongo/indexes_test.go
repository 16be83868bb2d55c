package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCartIndexesNeverExpireRows(t *testing.T) {
	for _, model := range cartIndexModels() {
		if model.Options != nil && model.Options.ExpireAfterSeconds != nil {
			t.Errorf("cart index %v has a TTL; cart rows must persist for reuse", model.Keys)
		}
	}
}

func TestOrderFingerprintIndexCoversOnlyPendingClears(t *testing.T) {
	found := false
	for _, model := range orderIndexModels() {
		keys, ok := model.Keys.(bson.D)
		if !ok || len(keys) != 2 || keys[1].Key != "cart_fingerprint" {
			continue
		}
		found = true

		if model.Options == nil || model.Options.Unique == nil || !*model.Options.Unique {
			t.Error("fingerprint index must be unique")
		}
		if model.Options == nil || model.Options.PartialFilterExpression == nil {
			t.Fatal("fingerprint index must be partial over pending clears")
		}
		filter, ok := model.Options.PartialFilterExpression.(bson.D)
		if !ok || len(filter) != 1 || filter[0].Key != "cart_cleared" || filter[0].Value != false {
			t.Errorf("expected partial filter on cart_cleared=false, got %v", model.Options.PartialFilterExpression)
		}
	}
	if !found {
		t.Fatal("no fingerprint index defined")
	}
}
