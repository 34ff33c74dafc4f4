package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

type FriendRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Status    string             `bson:"status" json:"status"` // "pending", "accepted"
	PairKey   string             `bson:"pairKey" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

// FriendRequestView is a request with both participants resolved.
type FriendRequestView struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    *PublicUser        `json:"sender"`
	Recipient *PublicUser        `json:"recipient"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
}
