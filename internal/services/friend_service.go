package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/internal/database"
	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/repository"
	"github.com/Dias221467/Language_Exchange/pkg/metrics"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendService handles the friend-request lifecycle and friend lists.
type FriendService struct {
	friendRepo FriendRequestStore
	userRepo   UserStore
	notifier   Notifier
	tx         database.Transactor
}

// NewFriendService creates a new FriendService. A nil transactor runs the
// accept steps without a transaction.
func NewFriendService(friendRepo FriendRequestStore, userRepo UserStore, notifier Notifier, tx database.Transactor) *FriendService {
	if tx == nil {
		tx = database.NoopTransactor{}
	}
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		tx:         tx,
	}
}

// SendFriendRequest creates a pending request from senderID to recipientID
// and notifies the recipient.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, recipientID primitive.ObjectID) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, apperror.Validation("You cannot send a friend request to yourself.")
	}

	recipient, err := s.userRepo.GetUserByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("Recipient not found.")
		}
		return nil, apperror.Unexpected("failed to load recipient", err)
	}

	if recipient.HasFriend(senderID) {
		return nil, apperror.Conflict("You are already friends with this user.")
	}

	existing, err := s.friendRepo.FindBetween(ctx, senderID, recipientID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unexpected("failed to look up friend request", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("Friend request already exists.")
	}

	request, err := s.friendRepo.CreateRequest(ctx, &models.FriendRequest{
		Sender:    senderID,
		Recipient: recipientID,
	})
	if err != nil {
		// Lost a race with a concurrent request for the same pair.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Friend request already exists.")
		}
		return nil, apperror.Unexpected("failed to create friend request", err)
	}
	metrics.FriendRequestTransition("created")

	logrus.WithFields(logrus.Fields{
		"requestID":   request.ID.Hex(),
		"senderID":    senderID.Hex(),
		"recipientID": recipientID.Hex(),
	}).Info("Friend request sent")

	requestID := request.ID
	s.notifier.Emit(ctx, recipientID, senderID, models.NotificationFriendRequest,
		fmt.Sprintf("%s sent you a friend request", s.displayName(ctx, senderID)),
		models.NotificationData{FriendRequestID: &requestID},
	)

	return request, nil
}

// AcceptFriendRequest accepts a request on behalf of its recipient and links
// both users as friends.
//
// Accepting an already accepted request succeeds again: the friend sets are
// re-applied, which repairs an earlier accept that failed half way, and no
// second notification is sent.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, requestID, actingUserID primitive.ObjectID) error {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Friend request not found.")
		}
		return apperror.Unexpected("failed to load friend request", err)
	}

	if request.Recipient != actingUserID {
		logrus.WithFields(logrus.Fields{
			"requestID":    requestID.Hex(),
			"actingUserID": actingUserID.Hex(),
		}).Warn("Forbidden attempt to accept friend request")
		return apperror.Forbidden("You are not authorized to accept this friend request.")
	}

	var transitioned bool
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.friendRepo.MarkAccepted(ctx, request.ID)
		if err != nil {
			return err
		}
		transitioned = ok

		if err := s.userRepo.AddFriend(ctx, request.Recipient, request.Sender); err != nil {
			return fmt.Errorf("failed to add friend to recipient: %w", err)
		}
		if err := s.userRepo.AddFriend(ctx, request.Sender, request.Recipient); err != nil {
			return fmt.Errorf("failed to add friend to sender: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperror.Unexpected("failed to accept friend request", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"requestID":   request.ID.Hex(),
		"senderID":    request.Sender.Hex(),
		"recipientID": request.Recipient.Hex(),
	})
	if !transitioned {
		metrics.FriendRequestTransition("reaccepted")
		log.Info("Friend request was already accepted, friend sets re-applied")
		return nil
	}
	metrics.FriendRequestTransition("accepted")
	log.Info("Friend request accepted")

	s.notifier.Emit(ctx, request.Sender, actingUserID, models.NotificationFriendAccepted,
		fmt.Sprintf("%s accepted your friend request", s.displayName(ctx, actingUserID)),
		models.NotificationData{FriendRequestID: &request.ID},
	)
	return nil
}

// GetIncomingRequests returns pending requests addressed to userID.
func (s *FriendService) GetIncomingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.friendRepo.GetRequestsByRecipient(ctx, userID, models.FriendRequestPending)
	if err != nil {
		return nil, apperror.Unexpected("failed to get incoming requests", err)
	}
	return s.resolve(ctx, requests)
}

// GetOutgoingRequests returns pending requests sent by userID.
func (s *FriendService) GetOutgoingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.friendRepo.GetRequestsBySender(ctx, userID, models.FriendRequestPending)
	if err != nil {
		return nil, apperror.Unexpected("failed to get outgoing requests", err)
	}
	return s.resolve(ctx, requests)
}

// GetAcceptedRequests returns accepted requests where userID was the
// recipient. Requests userID sent are not included.
func (s *FriendService) GetAcceptedRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.friendRepo.GetRequestsByRecipient(ctx, userID, models.FriendRequestAccepted)
	if err != nil {
		return nil, apperror.Unexpected("failed to get accepted requests", err)
	}
	return s.resolve(ctx, requests)
}

// GetFriends returns the public profiles of userID's friends.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Unexpected("failed to load user", err)
	}

	if len(user.Friends) == 0 {
		return []models.PublicUser{}, nil
	}

	friends, err := s.userRepo.GetUsersByIDs(ctx, user.Friends)
	if err != nil {
		return nil, apperror.Unexpected("failed to get friends", err)
	}

	publicFriends := make([]models.PublicUser, 0, len(friends))
	for i := range friends {
		publicFriends = append(publicFriends, friends[i].Public())
	}
	return publicFriends, nil
}

// resolve joins both participants of each request in one lookup.
func (s *FriendService) resolve(ctx context.Context, requests []models.FriendRequest) ([]models.FriendRequestView, error) {
	views := make([]models.FriendRequestView, 0, len(requests))
	if len(requests) == 0 {
		return views, nil
	}

	ids := make([]primitive.ObjectID, 0, len(requests)*2)
	seen := map[primitive.ObjectID]bool{}
	for _, r := range requests {
		for _, id := range []primitive.ObjectID{r.Sender, r.Recipient} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Unexpected("failed to resolve friend request users", err)
	}
	byID := make(map[primitive.ObjectID]models.PublicUser, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Public()
	}

	for _, r := range requests {
		view := models.FriendRequestView{
			ID:        r.ID,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		}
		if u, ok := byID[r.Sender]; ok {
			view.Sender = &u
		}
		if u, ok := byID[r.Recipient]; ok {
			view.Recipient = &u
		}
		views = append(views, view)
	}
	return views, nil
}

// displayName is used in notification messages. A failed lookup must not
// fail the request that triggers the notification.
func (s *FriendService) displayName(ctx context.Context, userID primitive.ObjectID) string {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil || user.FullName == "" {
		if err != nil {
			logrus.WithError(err).WithField("userID", userID.Hex()).Warn("Failed to resolve user name for notification")
		}
		return "Someone"
	}
	return user.FullName
}
