package mocks

import (
	"context"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/pkg/stream"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStoreMock struct {
	mock.Mock
}

func (m *UserStoreMock) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	var u *models.User
	if val := args.Get(0); val != nil {
		u = val.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserStoreMock) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	var u *models.User
	if val := args.Get(0); val != nil {
		u = val.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserStoreMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	var u *models.User
	if val := args.Get(0); val != nil {
		u = val.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserStoreMock) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	var u *models.User
	if val := args.Get(0); val != nil {
		u = val.(*models.User)
	}
	return u, args.Error(1)
}

func (m *UserStoreMock) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

func (m *UserStoreMock) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserStoreMock) GetRecommendedUsers(ctx context.Context, userID primitive.ObjectID, exclude []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, userID, exclude)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type FriendRequestStoreMock struct {
	mock.Mock
}

func (m *FriendRequestStoreMock) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	args := m.Called(ctx, req)
	var r *models.FriendRequest
	if val := args.Get(0); val != nil {
		r = val.(*models.FriendRequest)
	}
	return r, args.Error(1)
}

func (m *FriendRequestStoreMock) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	args := m.Called(ctx, id)
	var r *models.FriendRequest
	if val := args.Get(0); val != nil {
		r = val.(*models.FriendRequest)
	}
	return r, args.Error(1)
}

func (m *FriendRequestStoreMock) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	args := m.Called(ctx, a, b)
	var r *models.FriendRequest
	if val := args.Get(0); val != nil {
		r = val.(*models.FriendRequest)
	}
	return r, args.Error(1)
}

func (m *FriendRequestStoreMock) MarkAccepted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRequestStoreMock) GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	args := m.Called(ctx, recipientID, status)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

func (m *FriendRequestStoreMock) GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	args := m.Called(ctx, senderID, status)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

func (m *FriendRequestStoreMock) GetRequestsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FriendRequest, error) {
	args := m.Called(ctx, ids)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

type NotificationStoreMock struct {
	mock.Mock
}

func (m *NotificationStoreMock) CreateNotification(ctx context.Context, notif *models.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *NotificationStoreMock) UpsertNotification(ctx context.Context, notif *models.Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *NotificationStoreMock) GetUserNotifications(ctx context.Context, recipientID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, limit)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationStoreMock) MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *NotificationStoreMock) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationStoreMock) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

type OutboxStoreMock struct {
	mock.Mock
}

func (m *OutboxStoreMock) Enqueue(ctx context.Context, notif *models.Notification, cause error) error {
	args := m.Called(ctx, notif, cause)
	return args.Error(0)
}

func (m *OutboxStoreMock) ListDue(ctx context.Context, now time.Time, limit int64) ([]models.PendingNotification, error) {
	args := m.Called(ctx, now, limit)
	var list []models.PendingNotification
	if val := args.Get(0); val != nil {
		list = val.([]models.PendingNotification)
	}
	return list, args.Error(1)
}

func (m *OutboxStoreMock) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *OutboxStoreMock) RecordFailure(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, cause string) error {
	args := m.Called(ctx, id, attempts, next, cause)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Emit(ctx context.Context, recipientID, senderID primitive.ObjectID, notifType, message string, data models.NotificationData) {
	m.Called(ctx, recipientID, senderID, notifType, message, data)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

type ChatProviderMock struct {
	mock.Mock
}

func (m *ChatProviderMock) UpsertUser(ctx context.Context, user stream.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *ChatProviderMock) UserToken(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}
