package services

import (
	"context"
	"strings"
	"time"

	"github.com/gestprev/backend/internal/infrastructure/persistence"
	"github.com/gestprev/backend/pkg/auth"
	apperrors "github.com/gestprev/backend/pkg/errors"
)

// MaxMessageLength caps a single chat message
const MaxMessageLength = 1000

// ChatService handles the public and group chat channels
type ChatService struct {
	chat *persistence.ChatRepository
}

// NewChatService creates a new ChatService
func NewChatService(chat *persistence.ChatRepository) *ChatService {
	return &ChatService{chat: chat}
}

// PublicMessages lists the public channel for one day
func (s *ChatService) PublicMessages(ctx context.Context, day time.Time) ([]persistence.ChatMessage, error) {
	messages, err := s.chat.PublicMessagesOn(ctx, day)
	if err != nil {
		return nil, apperrors.NewInternalError("lettura chat pubblica", err)
	}
	return messages, nil
}

// GroupMessages lists one day's group messages. Administrators see every
// group; everyone else only their own.
func (s *ChatService) GroupMessages(ctx context.Context, day time.Time, group string, user auth.UserSession) ([]persistence.ChatMessage, error) {
	if !user.IsAdmin() && group == "" {
		return nil, apperrors.NewValidationError("gruppo", "gruppo obbligatorio")
	}
	messages, err := s.chat.GroupMessagesOn(ctx, day, group)
	if err != nil {
		return nil, apperrors.NewInternalError("lettura chat di gruppo", err)
	}
	return messages, nil
}

// SendPublic posts to the public channel
func (s *ChatService) SendPublic(ctx context.Context, sender, message string) error {
	message, err := validateMessage(message)
	if err != nil {
		return err
	}
	if err := s.chat.InsertPublic(ctx, sender, message); err != nil {
		return apperrors.NewInternalError("invio messaggio", err)
	}
	return nil
}

// SendGroup posts to a group channel
func (s *ChatService) SendGroup(ctx context.Context, sender, group, message string) error {
	if strings.TrimSpace(group) == "" {
		return apperrors.NewValidationError("gruppo", "gruppo obbligatorio")
	}
	message, err := validateMessage(message)
	if err != nil {
		return err
	}
	if err := s.chat.InsertGroup(ctx, sender, group, message); err != nil {
		return apperrors.NewInternalError("invio messaggio", err)
	}
	return nil
}

// Delete removes one of the caller's own messages
func (s *ChatService) Delete(ctx context.Context, id int64, sender string) error {
	removed, err := s.chat.DeleteOwn(ctx, id, sender)
	if err != nil {
		return apperrors.NewInternalError("eliminazione messaggio", err)
	}
	if !removed {
		return apperrors.NewNotFoundError("messaggio", "")
	}
	return nil
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.NewValidationError("messaggio", "messaggio vuoto")
	}
	if len(message) > MaxMessageLength {
		return "", apperrors.NewValidationError("messaggio", "messaggio troppo lungo")
	}
	return message, nil
}
