package pricingRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"clinicbook/database"
	"clinicbook/services/payment"
	"clinicbook/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cacheTTL = 10 * time.Minute

// servicePriceDoc is the catalog row shape in Mongo. Prices are maintained
// out-of-band by clinic staff tooling.
type servicePriceDoc struct {
	ServiceName    string  `bson:"service_name"`
	Classification string  `bson:"classification"`
	Amount         float64 `bson:"amount"`
	Currency       string  `bson:"currency"`
}

// MongoPricingRepo resolves catalog prices from the service_prices collection,
// with a short-lived Redis cache in front.
type MongoPricingRepo struct {
	collection *mongo.Collection
	cache      *redis.Client
}

func NewMongoPricingRepo() *MongoPricingRepo {
	return &MongoPricingRepo{
		collection: database.DB().Collection("service_prices"),
		cache:      utils.GetCacheClient(),
	}
}

// GetServicePrice looks up the price for a base service name and slot
// classification. A service with no row for the requested classification
// falls back to its standard price. Returns nil with no error when the
// service is not in the catalog at all.
func (r *MongoPricingRepo) GetServicePrice(ctx context.Context, baseServiceName, classification string) (*payment.ServicePrice, error) {
	cacheKey := fmt.Sprintf("price:%s:%s", baseServiceName, classification)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey).Result(); err == nil {
			var price payment.ServicePrice
			if json.Unmarshal([]byte(cached), &price) == nil {
				return &price, nil
			}
		}
	}

	doc, err := r.findOne(ctx, baseServiceName, classification)
	if err != nil {
		return nil, err
	}
	if doc == nil && classification != payment.SlotStandard {
		doc, err = r.findOne(ctx, baseServiceName, payment.SlotStandard)
		if err != nil {
			return nil, err
		}
	}
	if doc == nil {
		return nil, nil
	}

	price := &payment.ServicePrice{Amount: doc.Amount, Currency: doc.Currency}
	if r.cache != nil {
		if encoded, err := json.Marshal(price); err == nil {
			r.cache.Set(ctx, cacheKey, encoded, cacheTTL)
		}
	}
	return price, nil
}

func (r *MongoPricingRepo) findOne(ctx context.Context, name, classification string) (*servicePriceDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"service_name":   bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"},
		"classification": classification,
	}
	var doc servicePriceDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query service price: %w", err)
	}
	return &doc, nil
}

// EnsureIndexes creates the catalog lookup index.
func (r *MongoPricingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "service_name", Value: 1}, {Key: "classification", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_service_classification"),
	})
	return err
}
