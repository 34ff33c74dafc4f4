package handlers

import (
	"net/http"

	"github.com/Dias221467/Language_Exchange/internal/services"
)

// FriendHandler manages HTTP endpoints related to friend requests.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendFriendRequestHandler handles POST /friend-requests/{recipientId}.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	senderID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recipientID, err := pathID(r, "recipientId", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}

	request, err := h.Service.SendFriendRequest(r.Context(), senderID, recipientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// AcceptFriendRequestHandler handles PUT /friend-requests/{id}/accept.
func (h *FriendHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	requestID, err := pathID(r, "id", "friend request")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Service.AcceptFriendRequest(r.Context(), requestID, userID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Friend request accepted successfully.",
	})
}

// GetIncomingRequestsHandler returns pending incoming requests together with
// the requests the caller has accepted.
func (h *FriendHandler) GetIncomingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	incoming, err := h.Service.GetIncomingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	accepted, err := h.Service.GetAcceptedRequests(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"incomingRequests": incoming,
		"acceptedReqs":     accepted,
	})
}

// GetOutgoingRequestsHandler returns pending requests the caller sent.
func (h *FriendHandler) GetOutgoingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	outgoing, err := h.Service.GetOutgoingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"outgoingReqs": outgoing})
}

// GetFriendsHandler returns the caller's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"friends": friends})
}
