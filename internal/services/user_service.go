package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/internal/models"
	"github.com/Dias221467/Language_Exchange/internal/repository"
	"github.com/Dias221467/Language_Exchange/pkg/stream"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 6

var (
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	avatarColors = []string{"0D8ABC", "3498db", "9b59b6", "e74c3c", "1abc9c", "f39c12", "2ecc71"}
)

// UserService encapsulates the business logic for user operations.
type UserService struct {
	repo UserStore
	chat ChatProvider
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, chat ChatProvider) *UserService {
	return &UserService{
		repo: repo,
		chat: chat,
	}
}

// SignupInput carries the signup form.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Signup registers a new user after hashing their password.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if email == "" || in.Password == "" || fullName == "" {
		return nil, apperror.Validation("Please fill all the fields")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least 6 characters")
	}
	if !emailRegex.MatchString(email) {
		logrus.WithField("email", email).Warn("Invalid email format during signup")
		return nil, apperror.Validation("Invalid email format")
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unexpected("failed to look up email", err)
	}
	if existing != nil {
		logrus.WithField("email", email).Warn("Email already in use")
		return nil, apperror.Conflict("Email already exists, please use a different one")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Unexpected("failed to hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, &models.User{
		Email:      email,
		FullName:   fullName,
		Password:   string(hashedPwd),
		ProfilePic: randomAvatar(fullName),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Email already exists, please use a different one")
		}
		return nil, apperror.Unexpected("failed to register user", err)
	}

	s.syncChatUser(ctx, user)

	logrus.WithField("userID", user.ID.Hex()).Info("User registered successfully")
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("Please fill all the fields")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, apperror.Unexpected("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logrus.WithField("userID", user.ID.Hex()).Warn("Authentication failed")
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	return user, nil
}

// Onboard completes the user's profile.
func (s *UserService) Onboard(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	update.FullName = strings.TrimSpace(update.FullName)
	update.Bio = strings.TrimSpace(update.Bio)
	update.NativeLanguage = strings.TrimSpace(update.NativeLanguage)
	update.LearningLanguage = strings.TrimSpace(update.LearningLanguage)
	update.Location = strings.TrimSpace(update.Location)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", update.FullName},
		{"bio", update.Bio},
		{"nativeLanguage", update.NativeLanguage},
		{"learningLanguage", update.LearningLanguage},
		{"location", update.Location},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.MissingFields("All fields are required", missing)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("User not found or update failed")
		}
		return nil, apperror.Unexpected("failed to onboard user", err)
	}

	s.syncChatUser(ctx, user)
	return user, nil
}

// GetUser returns the user with the given ID.
func (s *UserService) GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, apperror.Unexpected("failed to load user", err)
	}
	return user, nil
}

// GetRecommendedUsers lists onboarded users that are neither userID nor one
// of its friends.
func (s *UserService) GetRecommendedUsers(ctx context.Context, userID primitive.ObjectID) ([]models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.GetRecommendedUsers(ctx, userID, user.Friends)
	if err != nil {
		return nil, apperror.Unexpected("failed to get recommended users", err)
	}
	for i := range users {
		users[i].ProfilePic = models.AvatarURL(users[i].ProfilePic, users[i].FullName)
	}
	return users, nil
}

// syncChatUser mirrors the profile to the chat provider. Failures are logged only.
func (s *UserService) syncChatUser(ctx context.Context, user *models.User) {
	if s.chat == nil {
		return
	}
	err := s.chat.UpsertUser(ctx, stream.User{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Image: user.ProfilePic,
	})
	switch {
	case err == nil:
		logrus.WithField("userID", user.ID.Hex()).Debug("Chat user upserted")
	case errors.Is(err, stream.ErrNotConfigured):
		logrus.Debug("Chat provider not configured, skipping user sync")
	default:
		logrus.WithError(err).WithField("userID", user.ID.Hex()).Warn("Failed to upsert chat user")
	}
}

func randomAvatar(fullName string) string {
	color := avatarColors[rand.Intn(len(avatarColors))]
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=%s&color=fff&size=200&bold=true",
		url.QueryEscape(fullName), color)
}
