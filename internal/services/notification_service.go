package services

import (
	"context"
	"errors"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/internal/cache"
	"github.com/Dias221467/Language_Exchange/internal/events"
	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/repository"
	"github.com/Dias221467/Language_Exchange/pkg/metrics"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// NotificationLimit caps List.
	NotificationLimit = 50
	// MaxOutboxAttempts is the number of failed replays after which an entry is dropped.
	MaxOutboxAttempts = 10

	outboxBatchSize = 100
	maxOutboxDelay  = time.Hour
)

type NotificationService struct {
	repo      NotificationStore
	outbox    OutboxStore
	users     UserStore
	requests  FriendRequestStore
	unread    cache.UnreadCache
	publisher EventPublisher
	now       func() time.Time
}

func NewNotificationService(
	repo NotificationStore,
	outbox OutboxStore,
	users UserStore,
	requests FriendRequestStore,
	unread cache.UnreadCache,
	publisher EventPublisher,
) *NotificationService {
	if unread == nil {
		unread = cache.NoopCache{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &NotificationService{
		repo:      repo,
		outbox:    outbox,
		users:     users,
		requests:  requests,
		unread:    unread,
		publisher: publisher,
		now:       time.Now,
	}
}

// Emit appends a notification. A failed write is queued in the outbox and
// logged; Emit never reports failure to the caller.
func (s *NotificationService) Emit(ctx context.Context, recipientID, senderID primitive.ObjectID, notifType, message string, data models.NotificationData) {
	// The side effect outlives a caller that has already gone away.
	ctx = context.WithoutCancel(ctx)

	notif := &models.Notification{
		ID:        primitive.NewObjectID(),
		Recipient: recipientID,
		Sender:    senderID,
		Type:      notifType,
		Message:   message,
		Read:      false,
		Data:      data,
	}
	log := logrus.WithFields(logrus.Fields{
		"notificationID": notif.ID.Hex(),
		"recipientID":    recipientID.Hex(),
		"type":           notifType,
	})

	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		log.WithError(err).Error("Failed to store notification, queueing for replay")
		if qerr := s.outbox.Enqueue(ctx, notif, err); qerr != nil {
			log.WithError(qerr).Error("Failed to queue notification, notification lost")
			metrics.NotificationEmitted(notifType, "lost")
			return
		}
		metrics.NotificationEmitted(notifType, "queued")
		return
	}

	metrics.NotificationEmitted(notifType, "stored")
	s.stored(ctx, notif)
}

func (s *NotificationService) stored(ctx context.Context, notif *models.Notification) {
	s.unread.Invalidate(ctx, notif.Recipient.Hex())

	event := events.NotificationCreated{
		NotificationID: notif.ID.Hex(),
		RecipientID:    notif.Recipient.Hex(),
		SenderID:       notif.Sender.Hex(),
		Type:           notif.Type,
		CreatedAt:      notif.CreatedAt,
	}
	if notif.Data.FriendRequestID != nil {
		event.FriendRequestID = notif.Data.FriendRequestID.Hex()
	}
	if err := s.publisher.Publish(ctx, events.RoutingNotificationCreated, event); err != nil {
		logrus.WithError(err).WithField("notificationID", notif.ID.Hex()).Warn("Failed to publish notification event")
	}
}

// List returns the newest notifications of a recipient with references resolved.
func (s *NotificationService) List(ctx context.Context, recipientID primitive.ObjectID) ([]models.NotificationView, error) {
	notifs, err := s.repo.GetUserNotifications(ctx, recipientID, NotificationLimit)
	if err != nil {
		return nil, apperror.Unexpected("failed to fetch notifications", err)
	}
	if len(notifs) == 0 {
		return []models.NotificationView{}, nil
	}

	senderIDs := make([]primitive.ObjectID, 0, len(notifs))
	requestIDs := []primitive.ObjectID{}
	seen := map[primitive.ObjectID]bool{}
	for _, n := range notifs {
		if !seen[n.Sender] {
			seen[n.Sender] = true
			senderIDs = append(senderIDs, n.Sender)
		}
		if n.Data.FriendRequestID != nil {
			requestIDs = append(requestIDs, *n.Data.FriendRequestID)
		}
	}

	senders, err := s.users.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, apperror.Unexpected("failed to resolve notification senders", err)
	}
	senderByID := make(map[primitive.ObjectID]models.PublicUser, len(senders))
	for i := range senders {
		p := senders[i].Public()
		// Notifications only show who acted.
		p.NativeLanguage, p.LearningLanguage = "", ""
		senderByID[senders[i].ID] = p
	}

	requestByID := map[primitive.ObjectID]models.FriendRequest{}
	if len(requestIDs) > 0 {
		reqs, err := s.requests.GetRequestsByIDs(ctx, requestIDs)
		if err != nil {
			return nil, apperror.Unexpected("failed to resolve friend requests", err)
		}
		for _, r := range reqs {
			requestByID[r.ID] = r
		}
	}

	views := make([]models.NotificationView, 0, len(notifs))
	for _, n := range notifs {
		view := models.NotificationView{
			ID:        n.ID,
			Recipient: n.Recipient,
			Type:      n.Type,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
		if sender, ok := senderByID[n.Sender]; ok {
			view.Sender = &sender
		}
		if n.Data.FriendRequestID != nil {
			if req, ok := requestByID[*n.Data.FriendRequestID]; ok {
				view.FriendRequest = &req
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// MarkRead marks one notification of actingUserID as read. Notifications of
// other users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, actingUserID primitive.ObjectID) error {
	if err := s.repo.MarkAsRead(ctx, notificationID, actingUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return apperror.Unexpected("failed to mark notification as read", err)
	}
	s.unread.Invalidate(ctx, actingUserID.Hex())
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) error {
	n, err := s.repo.MarkAllAsRead(ctx, recipientID)
	if err != nil {
		return apperror.Unexpected("failed to mark notifications as read", err)
	}
	s.unread.Invalidate(ctx, recipientID.Hex())
	logrus.WithFields(logrus.Fields{"recipientID": recipientID.Hex(), "updated": n}).Debug("Marked notifications as read")
	return nil
}

// UnreadCount serves the cached count when present. The version is read
// before counting so a count that raced a change is returned but not cached.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	key := recipientID.Hex()
	if n, ok := s.unread.Get(ctx, key); ok {
		return n, nil
	}
	version, cacheable := s.unread.Version(ctx, key)

	n, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, apperror.Unexpected("failed to count unread notifications", err)
	}
	if cacheable {
		s.unread.SetIfVersion(ctx, key, n, version)
	}
	return n, nil
}

// ReplayOutbox writes due outbox entries and returns how many were delivered.
// Writes are insert-if-absent keyed by the notification ID, so a replay of an
// entry whose first write did land leaves the stored record untouched.
func (s *NotificationService) ReplayOutbox(ctx context.Context) (int, error) {
	due, err := s.outbox.ListDue(ctx, s.now(), outboxBatchSize)
	if err != nil {
		return 0, apperror.Unexpected("failed to list notification outbox", err)
	}

	delivered := 0
	for _, pending := range due {
		notif := pending.Notification
		log := logrus.WithFields(logrus.Fields{
			"outboxID":       pending.ID.Hex(),
			"notificationID": notif.ID.Hex(),
		})

		if err := s.repo.UpsertNotification(ctx, &notif); err != nil {
			attempts := pending.Attempts + 1
			if attempts >= MaxOutboxAttempts {
				log.WithError(err).Error("Dropping notification after repeated failures")
				metrics.OutboxReplayed("dropped")
				if derr := s.outbox.Delete(ctx, pending.ID); derr != nil {
					log.WithError(derr).Warn("Failed to delete dropped outbox entry")
				}
				continue
			}
			metrics.OutboxReplayed("retry")
			next := s.now().Add(outboxBackoff(attempts))
			if rerr := s.outbox.RecordFailure(ctx, pending.ID, attempts, next, err.Error()); rerr != nil {
				log.WithError(rerr).Warn("Failed to reschedule outbox entry")
			}
			continue
		}

		if err := s.outbox.Delete(ctx, pending.ID); err != nil {
			log.WithError(err).Warn("Failed to delete delivered outbox entry")
		}
		metrics.OutboxReplayed("delivered")
		s.stored(ctx, &notif)
		delivered++
	}
	return delivered, nil
}

// outboxBackoff doubles from one minute per attempt, capped at maxOutboxDelay.
func outboxBackoff(attempts int) time.Duration {
	d := time.Minute
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxOutboxDelay {
			return maxOutboxDelay
		}
	}
	return d
}
