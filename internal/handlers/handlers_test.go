package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/config"
	"github.com/Dias221467/Language_Exchange/internal/mocks"
	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/services"
	jwtutil "github.com/Dias221467/Language_Exchange/pkg/jwt"
	"github.com/Dias221467/Language_Exchange/pkg/middleware"
	"github.com/Dias221467/Language_Exchange/pkg/stream"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

type testServer struct {
	router        *mux.Router
	users         *mocks.MemoryUsers
	notifications *mocks.MemoryNotifications
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := mocks.NewMemoryUsers()
	requests := mocks.NewMemoryFriendRequests()
	notifications := mocks.NewMemoryNotifications()
	cfg := &config.Config{Env: "development", JWTSecret: testSecret, TokenExpiry: time.Hour}
	chat := stream.NewClient("key", "chat-secret", "http://127.0.0.1:0")

	notificationService := services.NewNotificationService(notifications, mocks.NewMemoryOutbox(), users, requests, nil, nil)
	userService := services.NewUserService(users, nil)
	friendService := services.NewFriendService(requests, users, notificationService, nil)

	router := mux.NewRouter()
	RegisterRoutes(router, Handlers{
		User:         NewUserHandler(userService, cfg),
		Friend:       NewFriendHandler(friendService),
		Notification: NewNotificationHandler(notificationService),
		Chat:         NewChatHandler(services.NewChatService(chat)),
	}, testSecret, nil)

	return &testServer{router: router, users: users, notifications: notifications}
}

func (s *testServer) addUser(t *testing.T, name string) (primitive.ObjectID, string) {
	t.Helper()
	id := s.users.Add(models.User{FullName: name, Email: name + "@example.com", IsOnboarded: true}).ID
	token, err := jwtutil.GenerateToken(id.Hex(), name+"@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return id, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestFriendRequestScenario(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.addUser(t, "alice")
	bob, bobToken := s.addUser(t, "bob")

	rec := s.do(t, http.MethodPost, "/api/friend-requests/"+bob.Hex(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.FriendRequest
	decode(t, rec, &created)
	assert.Equal(t, models.FriendRequestPending, created.Status)

	rec = s.do(t, http.MethodGet, "/api/friend-requests/incoming", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var incoming struct {
		IncomingRequests []models.FriendRequestView `json:"incomingRequests"`
		AcceptedReqs     []models.FriendRequestView `json:"acceptedReqs"`
	}
	decode(t, rec, &incoming)
	require.Len(t, incoming.IncomingRequests, 1)
	assert.Equal(t, "alice", incoming.IncomingRequests[0].Sender.FullName)
	assert.Empty(t, incoming.AcceptedReqs)

	rec = s.do(t, http.MethodPut, "/api/friend-requests/"+created.ID.Hex()+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/friend-requests/outgoing", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var outgoing struct {
		OutgoingReqs []models.FriendRequestView `json:"outgoingReqs"`
	}
	decode(t, rec, &outgoing)
	assert.Empty(t, outgoing.OutgoingReqs)

	rec = s.do(t, http.MethodGet, "/api/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Notifications []models.NotificationView `json:"notifications"`
	}
	decode(t, rec, &feed)
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, models.NotificationFriendAccepted, feed.Notifications[0].Type)
	assert.Equal(t, "bob", feed.Notifications[0].Sender.FullName)

	a, _ := s.users.GetUserByID(context.Background(), alice)
	b, _ := s.users.GetUserByID(context.Background(), bob)
	assert.Equal(t, []primitive.ObjectID{bob}, a.Friends)
	assert.Equal(t, []primitive.ObjectID{alice}, b.Friends)

	rec = s.do(t, http.MethodPost, "/api/friend-requests/"+bob.Hex(), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody map[string]string
	decode(t, rec, &errBody)
	assert.Equal(t, "You are already friends with this user.", errBody["message"])

	rec = s.do(t, http.MethodGet, "/api/users/friends", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var friends struct {
		Friends []models.PublicUser `json:"friends"`
	}
	decode(t, rec, &friends)
	require.Len(t, friends.Friends, 1)
	assert.Equal(t, "bob", friends.Friends[0].FullName)
}

func TestFriendRequestErrors(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.addUser(t, "alice")
	bob, bobToken := s.addUser(t, "bob")
	_, carolToken := s.addUser(t, "carol")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"self request", http.MethodPost, "/api/friend-requests/" + alice.Hex(), aliceToken, http.StatusBadRequest},
		{"missing recipient", http.MethodPost, "/api/friend-requests/" + primitive.NewObjectID().Hex(), aliceToken, http.StatusNotFound},
		{"malformed recipient", http.MethodPost, "/api/friend-requests/not-an-id", aliceToken, http.StatusBadRequest},
		{"no token", http.MethodPost, "/api/friend-requests/" + bob.Hex(), "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/friend-requests/incoming", "garbage", http.StatusUnauthorized},
		{"missing request", http.MethodPut, "/api/friend-requests/" + primitive.NewObjectID().Hex() + "/accept", bobToken, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, rec.Code)
			var body map[string]interface{}
			decode(t, rec, &body)
			assert.NotEmpty(t, body["message"])
		})
	}

	rec := s.do(t, http.MethodPost, "/api/friend-requests/"+bob.Hex(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.FriendRequest
	decode(t, rec, &created)

	rec = s.do(t, http.MethodPost, "/api/friend-requests/"+alice.Hex(), bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/friend-requests/"+created.ID.Hex()+"/accept", carolToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.addUser(t, "alice")
	bob, bobToken := s.addUser(t, "bob")

	rec := s.do(t, http.MethodPost, "/api/friend-requests/"+bob.Hex(), aliceToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var count struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, rec, &count)
	assert.Equal(t, int64(1), count.UnreadCount)

	notif := s.notifications.All(bob)[0]

	rec = s.do(t, http.MethodPut, "/api/notifications/"+notif.ID.Hex()+"/read", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/notifications/"+notif.ID.Hex()+"/read", bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/notifications/bogus/read", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/notifications/mark-all-read", bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var ack map[string]bool
	decode(t, rec, &ack)
	assert.True(t, ack["success"])

	rec = s.do(t, http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	decode(t, rec, &count)
	assert.Zero(t, count.UnreadCount)

}

func TestSignupLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "alice@example.com", "password": "secret1", "fullName": "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, middleware.AuthCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var signup struct {
		Success bool                   `json:"success"`
		User    map[string]interface{} `json:"user"`
		Token   string                 `json:"token"`
	}
	decode(t, rec, &signup)
	assert.True(t, signup.Success)
	assert.NotContains(t, signup.User, "password")

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: signup.Token})
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/onboarding", signup.Token, map[string]string{"fullName": "Alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var onboardErr struct {
		Message       string   `json:"message"`
		MissingFields []string `json:"missingFields"`
	}
	decode(t, rec, &onboardErr)
	assert.Equal(t, "All fields are required", onboardErr.Message)
	assert.Len(t, onboardErr.MissingFields, 4)

	rec = s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	logoutCookies := rec.Result().Cookies()
	require.NotEmpty(t, logoutCookies)
	assert.Empty(t, logoutCookies[0].Value)
}

func TestRecommendedUsers(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.addUser(t, "alice")
	s.addUser(t, "bob")

	rec := s.do(t, http.MethodGet, "/api/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		RecommendedUsers []models.User `json:"recommendedUsers"`
	}
	decode(t, rec, &body)
	require.Len(t, body.RecommendedUsers, 1)
	assert.Equal(t, "bob", body.RecommendedUsers[0].FullName)
}

func TestChatToken(t *testing.T) {
	s := newTestServer(t)
	_, token := s.addUser(t, "alice")

	rec := s.do(t, http.MethodGet, "/api/chat/token", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.NotEmpty(t, body["token"])
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
