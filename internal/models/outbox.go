package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingNotification is a notification whose write failed and awaits replay.
type PendingNotification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Notification  Notification       `bson:"notification" json:"notification"`
	Attempts      int                `bson:"attempts" json:"attempts"`
	LastError     string             `bson:"lastError" json:"lastError"`
	NextAttemptAt time.Time          `bson:"nextAttemptAt" json:"nextAttemptAt"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
