package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/internal/config"
	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/services"
	jwtutil "github.com/Dias221467/Language_Exchange/pkg/jwt"
	"github.com/Dias221467/Language_Exchange/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles authentication and user directory requests.
type UserHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(service *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		Service: service,
		Config:  cfg,
	}
}

// SignupHandler handles POST /auth/signup.
func (h *UserHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var input services.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.WithError(err).Warn("Failed to decode signup request")
		writeError(w, r, apperror.Validation("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	user, err := h.Service.Signup(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.issueToken(w, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// LoginHandler handles POST /auth/login.
func (h *UserHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		writeError(w, r, apperror.Validation("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	user, err := h.Service.Login(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.issueToken(w, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// LogoutHandler handles POST /auth/logout.
func (h *UserHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie := h.cookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

// OnboardHandler handles POST /auth/onboarding.
func (h *UserHandler) OnboardHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.WithError(err).Warn("Failed to decode onboarding request")
		writeError(w, r, apperror.Validation("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	user, err := h.Service.Onboard(r.Context(), userID, update)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Onboarding successful",
		"user":    user,
	})
}

// GetMeHandler handles GET /auth/me.
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user.ProfilePic = models.AvatarURL(user.ProfilePic, user.FullName)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// GetRecommendedUsersHandler handles GET /users.
func (h *UserHandler) GetRecommendedUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, err := h.Service.GetRecommendedUsers(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendedUsers": users})
}

// issueToken signs an access token for user and sets it as the auth cookie.
func (h *UserHandler) issueToken(w http.ResponseWriter, user *models.User) (string, error) {
	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		return "", apperror.Unexpected("failed to generate token", err)
	}
	http.SetCookie(w, h.cookie(token, int(h.Config.TokenExpiry/time.Second)))
	return token, nil
}

// cookie builds the auth cookie. Production serves the client from another
// origin, which requires SameSite=None and Secure.
func (h *UserHandler) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if h.Config.IsProduction() {
		c.SameSite = http.SameSiteNoneMode
		c.Secure = true
	}
	return c
}
