package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"clinicbook/database"
	"clinicbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo constructs a new instance of MongoPaymentRepo.
func NewMongoPaymentRepo() *MongoPaymentRepo {
	db := database.DB()
	return &MongoPaymentRepo{coll: db.Collection("payments")}
}

func (repo *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Payment
	err := repo.coll.FindOne(ctxWithTimeout, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching payment: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a payment by its ID.
func (repo *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return repo.findOne(ctx, bson.M{"id": id})
}

// GetByCheckoutReference retrieves a payment by provider checkout reference.
func (repo *MongoPaymentRepo) GetByCheckoutReference(ctx context.Context, ref string) (*models.Payment, error) {
	if ref == "" {
		return nil, nil
	}
	return repo.findOne(ctx, bson.M{"checkout_reference": ref})
}

// GetByCheckoutID retrieves a payment by provider checkout id.
func (repo *MongoPaymentRepo) GetByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	if checkoutID == "" {
		return nil, nil
	}
	return repo.findOne(ctx, bson.M{"checkout_id": checkoutID})
}

// GetByTransactionID retrieves a payment by provider transaction id.
func (repo *MongoPaymentRepo) GetByTransactionID(ctx context.Context, txID string) (*models.Payment, error) {
	if txID == "" {
		return nil, nil
	}
	return repo.findOne(ctx, bson.M{"transaction_id": txID})
}

// MostRecentPendingSince returns the newest pending/processing payment created
// after the cutoff.
func (repo *MongoPaymentRepo) MostRecentPendingSince(ctx context.Context, cutoff time.Time) (*models.Payment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     bson.M{"$in": []string{models.PaymentStatusPending, models.PaymentStatusProcessing}},
		"created_at": bson.M{"$gte": cutoff},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var p models.Payment
	err := repo.coll.FindOne(ctxWithTimeout, filter, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching recent pending payment: %w", err)
	}
	return &p, nil
}

// Create inserts a new payment document.
func (repo *MongoPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, p); err != nil {
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func stampFields(status string, stamp SettlementStamp) bson.M {
	fields := bson.M{
		"status":               status,
		"event_id":             stamp.EventID,
		"event_type":           stamp.EventType,
		"webhook_processed_at": stamp.ProcessedAt,
		"updated_at":           time.Now().UTC(),
	}
	if stamp.CheckoutReference != "" {
		fields["checkout_reference"] = stamp.CheckoutReference
	}
	if stamp.CheckoutID != "" {
		fields["checkout_id"] = stamp.CheckoutID
	}
	if stamp.TransactionID != "" {
		fields["transaction_id"] = stamp.TransactionID
	}
	return fields
}

// ApplySettlement stamps a payment paid with a compare-and-set on the
// idempotency stamp. A matched count of zero means another delivery already
// settled the row or the row is terminal.
func (repo *MongoPaymentRepo) ApplySettlement(ctx context.Context, id string, stamp SettlementStamp) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id": id,
		"status": bson.M{"$nin": []string{
			models.PaymentStatusPaid,
			models.PaymentStatusRefunded,
			models.PaymentStatusCancelled,
		}},
		// Same event id twice is a replay, never re-applied. A different
		// event may still settle a row that saw an earlier failed outcome.
		"event_id": bson.M{"$ne": stamp.EventID},
	}
	update := bson.M{"$set": stampFields(models.PaymentStatusPaid, stamp)}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, fmt.Errorf("error settling payment %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

// MarkOutcome records a failed/cancelled outcome on a non-terminal payment.
// Same compare-and-set as ApplySettlement: a failed row is not terminal, so
// without the event id exclusion a redelivered failure event would re-stamp it.
func (repo *MongoPaymentRepo) MarkOutcome(ctx context.Context, id, status string, stamp SettlementStamp) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id": id,
		"status": bson.M{"$nin": []string{
			models.PaymentStatusPaid,
			models.PaymentStatusRefunded,
			models.PaymentStatusCancelled,
		}},
		"event_id": bson.M{"$ne": stamp.EventID},
	}
	update := bson.M{"$set": stampFields(status, stamp)}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, fmt.Errorf("error marking payment %s %s: %w", id, status, err)
	}
	return res.ModifiedCount == 1, nil
}

// MarkProcessing records an intermediate status; only pending rows move.
func (repo *MongoPaymentRepo) MarkProcessing(ctx context.Context, id string, stamp SettlementStamp) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": []string{models.PaymentStatusPending, models.PaymentStatusProcessing}},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentStatusProcessing,
		"event_type": stamp.EventType,
		"updated_at": time.Now().UTC(),
	}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, fmt.Errorf("error marking payment %s processing: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

// CancelDuplicate cancels a paid payment with an audit note.
func (repo *MongoPaymentRepo) CancelDuplicate(ctx context.Context, id, note string) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": models.PaymentStatusPaid}
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentStatusCancelled,
		"notes":      note,
		"updated_at": time.Now().UTC(),
	}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return false, fmt.Errorf("error cancelling duplicate payment %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

// ListPaid returns all payments currently in status paid.
func (repo *MongoPaymentRepo) ListPaid(ctx context.Context) ([]models.Payment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := repo.coll.Find(ctxWithTimeout, bson.M{"status": models.PaymentStatusPaid})
	if err != nil {
		return nil, fmt.Errorf("error listing paid payments: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var payments []models.Payment
	for cursor.Next(ctxWithTimeout) {
		var p models.Payment
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("error decoding payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return payments, nil
}
