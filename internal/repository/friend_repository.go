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

type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection("friend_requests"),
	}
}

// CreateRequest stores a pending request. A second request for the same
// unordered pair fails with ErrDuplicate through the pairKey index.
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Status = models.FriendRequestPending
	req.PairKey = models.PairKey(req.Sender, req.Recipient)

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to send friend request: %w", translate(err))
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

// FindBetween returns the request between a and b in either direction.
func (r *FriendRepository) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender": a, "recipient": b},
			{"sender": b, "recipient": a},
		},
	}

	var req models.FriendRequest
	if err := r.collection.FindOne(ctx, filter).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to find friend request: %w", translate(err))
	}
	return &req, nil
}

func (r *FriendRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend request: %w", translate(err))
	}
	return &request, nil
}

// MarkAccepted flips a pending request to accepted. It reports false when the
// request was not pending anymore.
func (r *FriendRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.FriendRequestPending},
		bson.M{"$set": bson.M{"status": models.FriendRequestAccepted, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update request status: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *FriendRepository) GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	return r.find(ctx, bson.M{"recipient": recipientID, "status": status})
}

func (r *FriendRepository) GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	return r.find(ctx, bson.M{"sender": senderID, "status": status})
}

func (r *FriendRepository) GetRequestsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FriendRequest, error) {
	if len(ids) == 0 {
		return []models.FriendRequest{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *FriendRepository) find(ctx context.Context, filter bson.M) ([]models.FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.FriendRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode friend requests: %w", err)
	}
	return requests, nil
}
