package services

import (
	"context"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/pkg/stream"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the user directory. Implemented by repository.UserRepository.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetRecommendedUsers(ctx context.Context, userID primitive.ObjectID, exclude []primitive.ObjectID) ([]models.User, error)
}

// FriendRequestStore is the friend-request ledger. Implemented by repository.FriendRepository.
type FriendRequestStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) (bool, error)
	GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status string) ([]models.FriendRequest, error)
	GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status string) ([]models.FriendRequest, error)
	GetRequestsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FriendRequest, error)
}

// NotificationStore is the notification feed. Implemented by repository.NotificationRepository.
type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	UpsertNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, recipientID primitive.ObjectID, limit int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}

// OutboxStore holds notifications awaiting replay. Implemented by repository.OutboxRepository.
type OutboxStore interface {
	Enqueue(ctx context.Context, notif *models.Notification, cause error) error
	ListDue(ctx context.Context, now time.Time, limit int64) ([]models.PendingNotification, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	RecordFailure(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, cause string) error
}

// Notifier emits notifications as a side effect. It never fails its caller.
type Notifier interface {
	Emit(ctx context.Context, recipientID, senderID primitive.ObjectID, notifType, message string, data models.NotificationData)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// ChatProvider is the external chat/video provider.
type ChatProvider interface {
	UpsertUser(ctx context.Context, user stream.User) error
	UserToken(userID string) (string, error)
}
