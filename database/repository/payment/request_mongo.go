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

// MongoPaymentRequestRepo implements PaymentRequestRepository using MongoDB.
type MongoPaymentRequestRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRequestRepo constructs a new instance of MongoPaymentRequestRepo.
func NewMongoPaymentRequestRepo() *MongoPaymentRequestRepo {
	db := database.DB()
	return &MongoPaymentRequestRepo{coll: db.Collection("payment_requests")}
}

var openStatuses = []string{models.RequestStatusPending, models.RequestStatusSent}

func (repo *MongoPaymentRequestRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.PaymentRequest, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var pr models.PaymentRequest
	err := repo.coll.FindOne(ctxWithTimeout, filter, opts...).Decode(&pr)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching payment request: %w", err)
	}
	return &pr, nil
}

// GetByID retrieves a payment request by its ID.
func (repo *MongoPaymentRequestRepo) GetByID(ctx context.Context, id string) (*models.PaymentRequest, error) {
	return repo.findOne(ctx, bson.M{"id": id})
}

// GetActiveByBooking returns the open request for a booking, if any.
func (repo *MongoPaymentRequestRepo) GetActiveByBooking(ctx context.Context, bookingID string) (*models.PaymentRequest, error) {
	filter := bson.M{
		"booking_id": bookingID,
		"status":     bson.M{"$in": openStatuses},
	}
	return repo.findOne(ctx, filter)
}

// GetOpenByCheckoutReference returns the open request carrying the given
// checkout reference.
func (repo *MongoPaymentRequestRepo) GetOpenByCheckoutReference(ctx context.Context, ref string) (*models.PaymentRequest, error) {
	if ref == "" {
		return nil, nil
	}
	filter := bson.M{
		"checkout_reference": ref,
		"status":             bson.M{"$in": openStatuses},
	}
	return repo.findOne(ctx, filter)
}

// FindRecentOpenByAmount lists open requests with the given amount created
// after the cutoff, newest first.
func (repo *MongoPaymentRequestRepo) FindRecentOpenByAmount(ctx context.Context, amount float64, cutoff time.Time) ([]models.PaymentRequest, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"amount":     amount,
		"status":     bson.M{"$in": openStatuses},
		"created_at": bson.M{"$gte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding open requests by amount: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var requests []models.PaymentRequest
	for cursor.Next(ctxWithTimeout) {
		var pr models.PaymentRequest
		if err := cursor.Decode(&pr); err != nil {
			return nil, fmt.Errorf("error decoding payment request: %w", err)
		}
		requests = append(requests, pr)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return requests, nil
}

// Create inserts a new payment request document.
func (repo *MongoPaymentRequestRepo) Create(ctx context.Context, pr *models.PaymentRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, pr); err != nil {
		return fmt.Errorf("error creating payment request: %w", err)
	}
	return nil
}

func (repo *MongoPaymentRequestRepo) conditionalSet(ctx context.Context, filter, set bson.M) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updated_at"] = time.Now().UTC()
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("error updating payment request: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// MarkSentIfPending transitions pending -> sent.
func (repo *MongoPaymentRequestRepo) MarkSentIfPending(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": models.RequestStatusPending}
	return repo.conditionalSet(ctx, filter, bson.M{"status": models.RequestStatusSent})
}

// MarkPaidIfOpen settles an open request.
func (repo *MongoPaymentRequestRepo) MarkPaidIfOpen(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": bson.M{"$in": openStatuses}}
	return repo.conditionalSet(ctx, filter, bson.M{"status": models.RequestStatusPaid})
}

// CancelIfOpen cancels an open request with a note.
func (repo *MongoPaymentRequestRepo) CancelIfOpen(ctx context.Context, id, note string) (bool, error) {
	filter := bson.M{"id": id, "status": bson.M{"$in": openStatuses}}
	return repo.conditionalSet(ctx, filter, bson.M{
		"status": models.RequestStatusCancelled,
		"note":   note,
	})
}
