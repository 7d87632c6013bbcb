package webhooklogRepo

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

// WebhookLogRepository records webhook events that need manual review or
// reprocessing: unmatched events, dead-lettered writes, illegal transitions.
type WebhookLogRepository interface {
	Record(ctx context.Context, entry *models.WebhookLog) error
	List(ctx context.Context, kind string, limit int64) ([]models.WebhookLog, error)
	MarkResolved(ctx context.Context, id string) error
}

// MongoWebhookLogRepo implements WebhookLogRepository using MongoDB.
type MongoWebhookLogRepo struct {
	coll *mongo.Collection
}

// NewMongoWebhookLogRepo constructs a new instance of MongoWebhookLogRepo.
func NewMongoWebhookLogRepo() *MongoWebhookLogRepo {
	db := database.DB()
	return &MongoWebhookLogRepo{coll: db.Collection("webhook_logs")}
}

// Record inserts a new log entry.
func (repo *MongoWebhookLogRepo) Record(ctx context.Context, entry *models.WebhookLog) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, entry); err != nil {
		return fmt.Errorf("error recording webhook log: %w", err)
	}
	return nil
}

// List returns unresolved log entries, newest first. Kind is optional.
func (repo *MongoWebhookLogRepo) List(ctx context.Context, kind string, limit int64) ([]models.WebhookLog, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"resolved": false}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing webhook logs: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var entries []models.WebhookLog
	for cursor.Next(ctxWithTimeout) {
		var e models.WebhookLog
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("error decoding webhook log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return entries, nil
}

// MarkResolved flags an entry as handled.
func (repo *MongoWebhookLogRepo) MarkResolved(ctx context.Context, id string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := repo.coll.UpdateOne(ctxWithTimeout, bson.M{"id": id}, bson.M{"$set": bson.M{"resolved": true}})
	if err != nil {
		return fmt.Errorf("error resolving webhook log %s: %w", id, err)
	}
	return nil
}
