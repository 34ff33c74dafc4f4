package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/internal/events"
	"github.com/Dias221467/Language_Exchange/internal/mocks"
	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mapCache struct {
	mu       sync.Mutex
	counts   map[string]int64
	versions map[string]int64
	hits     int
}

func newMapCache() *mapCache {
	return &mapCache{counts: map[string]int64{}, versions: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, userID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[userID]
	if ok {
		c.hits++
	}
	return n, ok
}

func (c *mapCache) Version(_ context.Context, userID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[userID], true
}

func (c *mapCache) SetIfVersion(_ context.Context, userID string, count, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userID] == version {
		c.counts[userID] = count
	}
}

func (c *mapCache) Invalidate(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, userID)
	c.versions[userID]++
}

// racingStore runs afterCount once, right after a count has been taken.
type racingStore struct {
	*mocks.MemoryNotifications
	afterCount func()
}

func (s *racingStore) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	n, err := s.MemoryNotifications.CountUnread(ctx, recipientID)
	if hook := s.afterCount; hook != nil {
		s.afterCount = nil
		hook()
	}
	return n, err
}

// lostAckStore stores notifications but reports the first insert as failed.
type lostAckStore struct {
	*mocks.MemoryNotifications
	failed bool
}

func (s *lostAckStore) CreateNotification(ctx context.Context, notif *models.Notification) error {
	if err := s.MemoryNotifications.CreateNotification(ctx, notif); err != nil {
		return err
	}
	if !s.failed {
		s.failed = true
		return errors.New("i/o timeout")
	}
	return nil
}

func emitN(f *fixture, recipient, sender primitive.ObjectID, n int) {
	for i := 0; i < n; i++ {
		f.notifier.Emit(context.Background(), recipient, sender, models.NotificationMessage,
			fmt.Sprintf("message %d", i), models.NotificationData{})
	}
}

func TestListCapsAndOrdersNewestFirst(t *testing.T) {
	f := newFixture()
	alice, bob := f.user("alice"), f.user("bob")
	emitN(f, bob, alice, NotificationLimit+10)

	views, err := f.notifier.List(context.Background(), bob)

	require.NoError(t, err)
	require.Len(t, views, NotificationLimit)
	for i := 1; i < len(views); i++ {
		assert.False(t, views[i].CreatedAt.After(views[i-1].CreatedAt), "notifications out of order at %d", i)
	}
	assert.Equal(t, fmt.Sprintf("message %d", NotificationLimit+9), views[0].Message)
	require.NotNil(t, views[0].Sender)
	assert.Equal(t, "alice", views[0].Sender.FullName)
	assert.Empty(t, views[0].Sender.NativeLanguage)
}

func TestListResolvesFriendRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user("alice"), f.user("bob")

	req, err := f.friends.SendFriendRequest(ctx, alice, bob)
	require.NoError(t, err)

	views, err := f.notifier.List(ctx, bob)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].FriendRequest)
	assert.Equal(t, req.ID, views[0].FriendRequest.ID)
}

func TestListEmpty(t *testing.T) {
	f := newFixture()

	views, err := f.notifier.List(context.Background(), f.user("alice"))

	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user("alice"), f.user("bob")
	emitN(f, bob, alice, 3)
	emitN(f, alice, bob, 2)

	count, err := f.notifier.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, f.notifier.MarkAllRead(ctx, bob))
	require.NoError(t, f.notifier.MarkAllRead(ctx, bob))

	views, err := f.notifier.List(ctx, bob)
	require.NoError(t, err)
	for _, v := range views {
		assert.True(t, v.Read)
	}
	count, err = f.notifier.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.notifier.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMarkRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user("alice"), f.user("bob")
	emitN(f, bob, alice, 1)
	id := f.notifications.All(bob)[0].ID

	err := f.notifier.MarkRead(ctx, id, alice)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = f.notifier.MarkRead(ctx, primitive.NewObjectID(), bob)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	require.NoError(t, f.notifier.MarkRead(ctx, id, bob))
	require.NoError(t, f.notifier.MarkRead(ctx, id, bob))
	assert.True(t, f.notifications.All(bob)[0].Read)
}

func TestUnreadCountIsCachedAndInvalidated(t *testing.T) {
	users := mocks.NewMemoryUsers()
	store := mocks.NewMemoryNotifications()
	unread := newMapCache()
	svc := NewNotificationService(store, mocks.NewMemoryOutbox(), users, mocks.NewMemoryFriendRequests(), unread, nil)
	ctx := context.Background()
	alice := users.Add(models.User{FullName: "alice"}).ID
	bob := users.Add(models.User{FullName: "bob"}).ID

	svc.Emit(ctx, bob, alice, models.NotificationMessage, "hi", models.NotificationData{})
	n, err := svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, unread.hits)

	svc.Emit(ctx, bob, alice, models.NotificationMessage, "again", models.NotificationData{})
	n, err = svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUnreadCountDoesNotCacheCountRacingMarkAllRead(t *testing.T) {
	users := mocks.NewMemoryUsers()
	store := &racingStore{MemoryNotifications: mocks.NewMemoryNotifications()}
	svc := NewNotificationService(store, mocks.NewMemoryOutbox(), users, mocks.NewMemoryFriendRequests(), newMapCache(), nil)
	ctx := context.Background()
	alice := users.Add(models.User{FullName: "alice"}).ID
	bob := users.Add(models.User{FullName: "bob"}).ID
	svc.Emit(ctx, bob, alice, models.NotificationMessage, "hi", models.NotificationData{})

	store.afterCount = func() { require.NoError(t, svc.MarkAllRead(ctx, bob)) }
	n, err := svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the in-flight poll saw the count before the change")

	n, err = svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReplayOutboxKeepsReadFlagOfLandedWrite(t *testing.T) {
	users := mocks.NewMemoryUsers()
	store := &lostAckStore{MemoryNotifications: mocks.NewMemoryNotifications()}
	outbox := mocks.NewMemoryOutbox()
	svc := NewNotificationService(store, outbox, users, mocks.NewMemoryFriendRequests(), newMapCache(), nil)
	ctx := context.Background()
	alice := users.Add(models.User{FullName: "alice"}).ID
	bob := users.Add(models.User{FullName: "bob"}).ID

	svc.Emit(ctx, bob, alice, models.NotificationMessage, "hi", models.NotificationData{})
	require.Equal(t, 1, outbox.Len())
	stored := store.All(bob)
	require.Len(t, stored, 1)
	require.NoError(t, svc.MarkRead(ctx, stored[0].ID, bob))

	delivered, err := svc.ReplayOutbox(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Zero(t, outbox.Len())
	after := store.All(bob)
	require.Len(t, after, 1)
	assert.True(t, after[0].Read)
	n, err := svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmitPublishesEvent(t *testing.T) {
	store := new(mocks.NotificationStoreMock)
	store.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Once()
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, events.RoutingNotificationCreated, mock.MatchedBy(func(e events.NotificationCreated) bool {
		return e.Type == models.NotificationFriendRequest && e.FriendRequestID != ""
	})).Return(errors.New("channel closed")).Once()

	svc := NewNotificationService(store, new(mocks.OutboxStoreMock), nil, nil, nil, publisher)
	reqID := primitive.NewObjectID()
	svc.Emit(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(),
		models.NotificationFriendRequest, "x sent you a friend request", models.NotificationData{FriendRequestID: &reqID})

	store.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestEmitSwallowsOutboxFailure(t *testing.T) {
	store := new(mocks.NotificationStoreMock)
	store.On("CreateNotification", mock.Anything, mock.Anything).Return(errors.New("down")).Once()
	outbox := new(mocks.OutboxStoreMock)
	outbox.On("Enqueue", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("still down")).Once()

	svc := NewNotificationService(store, outbox, nil, nil, nil, nil)

	assert.NotPanics(t, func() {
		svc.Emit(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), models.NotificationMessage, "hi", models.NotificationData{})
	})
	outbox.AssertExpectations(t)
}

func TestReplayOutboxDeliversOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice, bob := f.user("alice"), f.user("bob")
	notif := &models.Notification{
		ID:        primitive.NewObjectID(),
		Recipient: bob,
		Sender:    alice,
		Type:      models.NotificationFriendAccepted,
		Message:   "alice accepted your friend request",
	}
	require.NoError(t, f.outbox.Enqueue(ctx, notif, errors.New("timeout")))
	// The first write may have landed even though it reported failure.
	require.NoError(t, f.notifications.CreateNotification(ctx, notif))

	delivered, err := f.notifier.ReplayOutbox(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Zero(t, f.outbox.Len())
	assert.Len(t, f.notifications.All(bob), 1)
}

func TestReplayOutboxReschedulesFailures(t *testing.T) {
	store := new(mocks.NotificationStoreMock)
	store.On("UpsertNotification", mock.Anything, mock.Anything).Return(errors.New("down"))
	outbox := new(mocks.OutboxStoreMock)

	retry := models.PendingNotification{ID: primitive.NewObjectID(), Notification: models.Notification{ID: primitive.NewObjectID()}, Attempts: 0}
	exhausted := models.PendingNotification{ID: primitive.NewObjectID(), Notification: models.Notification{ID: primitive.NewObjectID()}, Attempts: MaxOutboxAttempts - 1}
	outbox.On("ListDue", mock.Anything, mock.Anything, int64(outboxBatchSize)).Return([]models.PendingNotification{retry, exhausted}, nil).Once()
	outbox.On("RecordFailure", mock.Anything, retry.ID, 1, mock.AnythingOfType("time.Time"), "down").Return(nil).Once()
	outbox.On("Delete", mock.Anything, exhausted.ID).Return(nil).Once()

	svc := NewNotificationService(store, outbox, nil, nil, nil, nil)
	delivered, err := svc.ReplayOutbox(context.Background())

	require.NoError(t, err)
	assert.Zero(t, delivered)
	outbox.AssertExpectations(t)
}

func TestReplayOutboxListFailure(t *testing.T) {
	outbox := new(mocks.OutboxStoreMock)
	outbox.On("ListDue", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()

	svc := NewNotificationService(new(mocks.NotificationStoreMock), outbox, nil, nil, nil, nil)
	_, err := svc.ReplayOutbox(context.Background())

	assert.True(t, apperror.Is(err, apperror.KindUnexpected))
}

func TestMarkReadStoreFailure(t *testing.T) {
	store := new(mocks.NotificationStoreMock)
	store.On("MarkAsRead", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("down")).Once()

	svc := NewNotificationService(store, nil, nil, nil, nil, nil)
	err := svc.MarkRead(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())

	assert.True(t, apperror.Is(err, apperror.KindUnexpected))
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

func TestOutboxBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, outboxBackoff(1))
	assert.Equal(t, 2*time.Minute, outboxBackoff(2))
	assert.Equal(t, 8*time.Minute, outboxBackoff(4))
	assert.Equal(t, maxOutboxDelay, outboxBackoff(9))
}
