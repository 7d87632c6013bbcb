package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the payments collection.
// Provider identifiers are unique once set; partial filters keep unset rows
// out of the unique constraints.
func (repo *MongoPaymentRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys: bson.D{{Key: "checkout_reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_checkout_reference").
				SetPartialFilterExpression(bson.M{"checkout_reference": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "checkout_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_checkout_id").
				SetPartialFilterExpression(bson.M{"checkout_id": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_transaction_id").
				SetPartialFilterExpression(bson.M{"transaction_id": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "payment_request_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("request_status_idx"),
		},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}

// EnsureIndexes creates the necessary indexes on the payment_requests collection.
func (repo *MongoPaymentRequestRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One open request per booking at any time.
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_open_per_booking").
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": openStatuses}}),
		},
		{
			Keys:    bson.D{{Key: "checkout_reference", Value: 1}},
			Options: options.Index().SetName("checkout_reference_idx"),
		},
		{
			Keys:    bson.D{{Key: "amount", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("amount_status_created_idx"),
		},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create payment request indexes: %w", err)
	}
	return nil
}
