package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clock hands out strictly increasing timestamps so newest-first ordering is
// deterministic in tests.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now()
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}

// MemoryUsers is an in-memory user directory.
type MemoryUsers struct {
	mu    sync.Mutex
	clock clock
	users map[primitive.ObjectID]models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: map[primitive.ObjectID]models.User{}}
}

// Add stores a user as is, assigning an ID when missing.
func (s *MemoryUsers) Add(user models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	s.users[user.ID] = user
	return copyUser(user)
}

func (s *MemoryUsers) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	now := s.clock.now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	s.users[user.ID] = *copyUser(*user)
	return user, nil
}

func (s *MemoryUsers) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemoryUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.FullName = update.FullName
	u.Bio = update.Bio
	u.NativeLanguage = update.NativeLanguage
	u.LearningLanguage = update.LearningLanguage
	u.Location = update.Location
	if update.ProfilePic != "" {
		u.ProfilePic = update.ProfilePic
	}
	u.IsOnboarded = true
	u.UpdatedAt = s.clock.now()
	s.users[id] = u
	return copyUser(u), nil
}

func (s *MemoryUsers) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	if !u.HasFriend(friendID) {
		u.Friends = append(append([]primitive.ObjectID{}, u.Friends...), friendID)
	}
	s.users[userID] = u
	return nil
}

func (s *MemoryUsers) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *copyUser(u))
		}
	}
	return users, nil
}

func (s *MemoryUsers) GetRecommendedUsers(ctx context.Context, userID primitive.ObjectID, exclude []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skip := map[primitive.ObjectID]bool{userID: true}
	for _, id := range exclude {
		skip[id] = true
	}
	users := []models.User{}
	for id, u := range s.users {
		if !skip[id] && u.IsOnboarded {
			users = append(users, *copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.Hex() < users[j].ID.Hex() })
	return users, nil
}

func copyUser(u models.User) *models.User {
	u.Friends = append([]primitive.ObjectID{}, u.Friends...)
	return &u
}

// MemoryFriendRequests is an in-memory friend-request ledger with the same
// unique pair constraint as the collection index.
type MemoryFriendRequests struct {
	mu       sync.Mutex
	clock    clock
	requests map[primitive.ObjectID]models.FriendRequest
}

func NewMemoryFriendRequests() *MemoryFriendRequests {
	return &MemoryFriendRequests{requests: map[primitive.ObjectID]models.FriendRequest{}}
}

func (s *MemoryFriendRequests) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.PairKey(req.Sender, req.Recipient)
	for _, r := range s.requests {
		if r.PairKey == key {
			return nil, repository.ErrDuplicate
		}
	}
	now := s.clock.now()
	req.ID = primitive.NewObjectID()
	req.Status = models.FriendRequestPending
	req.PairKey = key
	req.CreatedAt, req.UpdatedAt = now, now
	s.requests[req.ID] = *req
	return req, nil
}

func (s *MemoryFriendRequests) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryFriendRequests) FindBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if (r.Sender == a && r.Recipient == b) || (r.Sender == b && r.Recipient == a) {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemoryFriendRequests) MarkAccepted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != models.FriendRequestPending {
		return false, nil
	}
	r.Status = models.FriendRequestAccepted
	r.UpdatedAt = s.clock.now()
	s.requests[id] = r
	return true, nil
}

func (s *MemoryFriendRequests) GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	return s.filter(func(r models.FriendRequest) bool { return r.Recipient == recipientID && r.Status == status }), nil
}

func (s *MemoryFriendRequests) GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status string) ([]models.FriendRequest, error) {
	return s.filter(func(r models.FriendRequest) bool { return r.Sender == senderID && r.Status == status }), nil
}

func (s *MemoryFriendRequests) GetRequestsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FriendRequest, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return s.filter(func(r models.FriendRequest) bool { return want[r.ID] }), nil
}

func (s *MemoryFriendRequests) filter(keep func(models.FriendRequest) bool) []models.FriendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FriendRequest{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// MemoryNotifications is an in-memory notification feed.
type MemoryNotifications struct {
	mu            sync.Mutex
	clock         clock
	notifications map[primitive.ObjectID]models.Notification
}

func NewMemoryNotifications() *MemoryNotifications {
	return &MemoryNotifications{notifications: map[primitive.ObjectID]models.Notification{}}
}

func (s *MemoryNotifications) CreateNotification(ctx context.Context, notif *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if notif.ID.IsZero() {
		notif.ID = primitive.NewObjectID()
	}
	if _, exists := s.notifications[notif.ID]; exists {
		return repository.ErrDuplicate
	}
	s.stamp(notif)
	s.notifications[notif.ID] = *notif
	return nil
}

func (s *MemoryNotifications) UpsertNotification(ctx context.Context, notif *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.notifications[notif.ID]; exists {
		return nil
	}
	s.stamp(notif)
	s.notifications[notif.ID] = *notif
	return nil
}

func (s *MemoryNotifications) GetUserNotifications(ctx context.Context, recipientID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.Recipient == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryNotifications) MarkAsRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.Recipient != recipientID {
		return repository.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *MemoryNotifications) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for id, n := range s.notifications {
		if n.Recipient == recipientID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryNotifications) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.Recipient == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

// All returns every stored notification of recipientID, newest first.
func (s *MemoryNotifications) All(recipientID primitive.ObjectID) []models.Notification {
	out, _ := s.GetUserNotifications(context.Background(), recipientID, 0)
	return out
}

func (s *MemoryNotifications) stamp(notif *models.Notification) {
	now := s.clock.now()
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = now
	}
	notif.UpdatedAt = now
}

// MemoryOutbox is an in-memory notification outbox.
type MemoryOutbox struct {
	mu      sync.Mutex
	pending map[primitive.ObjectID]models.PendingNotification
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{pending: map[primitive.ObjectID]models.PendingNotification{}}
}

func (s *MemoryOutbox) Enqueue(ctx context.Context, notif *models.Notification, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.PendingNotification{
		ID:            primitive.NewObjectID(),
		Notification:  *notif,
		NextAttemptAt: time.Now(),
		CreatedAt:     time.Now(),
	}
	if cause != nil {
		p.LastError = cause.Error()
	}
	s.pending[p.ID] = p
	return nil
}

func (s *MemoryOutbox) ListDue(ctx context.Context, now time.Time, limit int64) ([]models.PendingNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PendingNotification{}
	for _, p := range s.pending {
		if !p.NextAttemptAt.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptAt.Before(out[j].NextAttemptAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryOutbox) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	return nil
}

func (s *MemoryOutbox) RecordFailure(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return nil
	}
	p.Attempts, p.NextAttemptAt, p.LastError = attempts, next, cause
	s.pending[id] = p
	return nil
}

// Len returns the number of queued entries.
func (s *MemoryOutbox) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
