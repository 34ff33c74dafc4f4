package handlers

import (
	"net/http"

	"github.com/Dias221467/Language_Exchange/pkg/middleware"
	"github.com/gorilla/mux"
)

// Handlers groups the API handlers mounted by RegisterRoutes.
type Handlers struct {
	User         *UserHandler
	Friend       *FriendHandler
	Notification *NotificationHandler
	Chat         *ChatHandler
}

// RegisterRoutes mounts the API under /api. limiter may be nil.
func RegisterRoutes(router *mux.Router, h Handlers, jwtSecret string, limiter *middleware.RateLimiter) {
	api := router.PathPrefix("/api").Subrouter()
	auth := middleware.AuthMiddleware(jwtSecret)

	// Auth routes
	limit := func(next http.HandlerFunc) http.Handler {
		if limiter == nil {
			return next
		}
		return limiter.Handler(next)
	}
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Handle("/signup", limit(h.User.SignupHandler)).Methods(http.MethodPost)
	authRoutes.Handle("/login", limit(h.User.LoginHandler)).Methods(http.MethodPost)
	authRoutes.HandleFunc("/logout", h.User.LogoutHandler).Methods(http.MethodPost)
	authRoutes.Handle("/onboarding", auth(http.HandlerFunc(h.User.OnboardHandler))).Methods(http.MethodPost)
	authRoutes.Handle("/me", auth(http.HandlerFunc(h.User.GetMeHandler))).Methods(http.MethodGet)

	// User directory routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(auth)
	users.HandleFunc("", h.User.GetRecommendedUsersHandler).Methods(http.MethodGet)
	users.HandleFunc("/friends", h.Friend.GetFriendsHandler).Methods(http.MethodGet)

	// Friend request routes
	friends := api.PathPrefix("/friend-requests").Subrouter()
	friends.Use(auth)
	friends.HandleFunc("/incoming", h.Friend.GetIncomingRequestsHandler).Methods(http.MethodGet)
	friends.HandleFunc("/outgoing", h.Friend.GetOutgoingRequestsHandler).Methods(http.MethodGet)
	friends.HandleFunc("/{recipientId}", h.Friend.SendFriendRequestHandler).Methods(http.MethodPost)
	friends.HandleFunc("/{id}/accept", h.Friend.AcceptFriendRequestHandler).Methods(http.MethodPut)

	// Notification routes
	notifications := api.PathPrefix("/notifications").Subrouter()
	notifications.Use(auth)
	notifications.HandleFunc("", h.Notification.GetNotificationsHandler).Methods(http.MethodGet)
	notifications.HandleFunc("/unread-count", h.Notification.UnreadCountHandler).Methods(http.MethodGet)
	notifications.HandleFunc("/mark-all-read", h.Notification.MarkAllAsReadHandler).Methods(http.MethodPut)
	notifications.HandleFunc("/{id}/read", h.Notification.MarkAsReadHandler).Methods(http.MethodPut)

	// Chat routes
	chat := api.PathPrefix("/chat").Subrouter()
	chat.Use(auth)
	chat.HandleFunc("/token", h.Chat.GetStreamTokenHandler).Methods(http.MethodGet)
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
