package services

import (
	"errors"

	"github.com/Dias221467/Language_Exchange/internal/apperror"
	"github.com/Dias221467/Language_Exchange/pkg/stream"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService issues credentials for the external chat provider.
type ChatService struct {
	provider ChatProvider
}

func NewChatService(provider ChatProvider) *ChatService {
	return &ChatService{provider: provider}
}

// Token returns a chat token for userID.
func (s *ChatService) Token(userID primitive.ObjectID) (string, error) {
	token, err := s.provider.UserToken(userID.Hex())
	if err != nil {
		if errors.Is(err, stream.ErrNotConfigured) {
			logrus.WithField("userID", userID.Hex()).Error("Chat token requested but STREAM_API_KEY or STREAM_API_SECRET is missing")
		}
		return "", apperror.Unexpected("failed to issue chat token", err)
	}
	return token, nil
}
