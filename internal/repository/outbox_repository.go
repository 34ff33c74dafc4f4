package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxRepository stores notifications whose write failed.
type OutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{
		collection: db.Collection("notification_outbox"),
	}
}

// Enqueue schedules notif for an immediate replay.
func (r *OutboxRepository) Enqueue(ctx context.Context, notif *models.Notification, cause error) error {
	now := time.Now()
	pending := models.PendingNotification{
		Notification:  *notif,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if cause != nil {
		pending.LastError = cause.Error()
	}

	if _, err := r.collection.InsertOne(ctx, pending); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// ListDue returns up to limit entries whose next attempt is not after now.
func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int64) ([]models.PendingNotification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "nextAttemptAt", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"nextAttemptAt": bson.M{"$lte": now}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	defer cursor.Close(ctx)

	pending := []models.PendingNotification{}
	if err := cursor.All(ctx, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode outbox: %w", err)
	}
	return pending, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete outbox entry: %w", err)
	}
	return nil
}

// RecordFailure stores the outcome of a failed replay and reschedules it.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, cause string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"attempts": attempts, "nextAttemptAt": next, "lastError": cause}},
	)
	if err != nil {
		return fmt.Errorf("failed to update outbox entry: %w", err)
	}
	return nil
}
