package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationMessage        = "message"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Type      string             `bson:"type" json:"type"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	Data      NotificationData   `bson:"data" json:"data"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NotificationData is the type-specific payload of a notification.
type NotificationData struct {
	FriendRequestID *primitive.ObjectID `bson:"friendRequestId,omitempty" json:"friendRequestId,omitempty"`
}

// NotificationView is a notification with its references resolved.
type NotificationView struct {
	ID            primitive.ObjectID `json:"_id"`
	Recipient     primitive.ObjectID `json:"recipient"`
	Sender        *PublicUser        `json:"sender"`
	Type          string             `json:"type"`
	Message       string             `json:"message"`
	Read          bool               `json:"read"`
	FriendRequest *FriendRequest     `json:"friendRequest,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// IsValidNotificationType reports whether t is a known notification type.
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationFriendRequest, NotificationFriendAccepted, NotificationMessage:
		return true
	}
	return false
}
