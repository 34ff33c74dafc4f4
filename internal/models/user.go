package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a member of the language exchange.
type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email            string               `bson:"email" json:"email"`
	FullName         string               `bson:"fullName" json:"fullName"`
	Password         string               `bson:"password" json:"-"`
	Bio              string               `bson:"bio" json:"bio"`
	ProfilePic       string               `bson:"profilePic" json:"profilePic"`
	NativeLanguage   string               `bson:"nativeLanguage" json:"nativeLanguage"`
	LearningLanguage string               `bson:"learningLanguage" json:"learningLanguage"`
	Location         string               `bson:"location" json:"location"`
	IsOnboarded      bool                 `bson:"isOnboarded" json:"isOnboarded"`
	Friends          []primitive.ObjectID `bson:"friends" json:"friends"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// ProfileUpdate holds the fields set by onboarding.
type ProfileUpdate struct {
	FullName         string `bson:"fullName" json:"fullName"`
	Bio              string `bson:"bio" json:"bio"`
	NativeLanguage   string `bson:"nativeLanguage" json:"nativeLanguage"`
	LearningLanguage string `bson:"learningLanguage" json:"learningLanguage"`
	Location         string `bson:"location" json:"location"`
	ProfilePic       string `bson:"profilePic,omitempty" json:"profilePic,omitempty"`
}

// PublicUser is the subset of a profile shown to other users.
type PublicUser struct {
	ID               primitive.ObjectID `json:"_id"`
	FullName         string             `json:"fullName"`
	ProfilePic       string             `json:"profilePic"`
	NativeLanguage   string             `json:"nativeLanguage,omitempty"`
	LearningLanguage string             `json:"learningLanguage,omitempty"`
}

// Public returns the public projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		FullName:         u.FullName,
		ProfilePic:       AvatarURL(u.ProfilePic, u.FullName),
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}

const legacyAvatarHost = "avatar.iran.liara.run"

// AvatarURL replaces empty or legacy avatar links with a generated one.
func AvatarURL(profilePic, name string) string {
	if profilePic != "" && !strings.Contains(profilePic, legacyAvatarHost) {
		return profilePic
	}
	if name == "" {
		name = "User"
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=random&color=fff&size=200", url.QueryEscape(name))
}
