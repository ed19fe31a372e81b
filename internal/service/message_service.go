package service

import (
	"context"
	"strings"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

type messageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByRequest(ctx context.Context, requestID int64) ([]models.Message, error)
}

// MessageService manages the conversation attached to each request.
type MessageService struct {
	repo messageStore
}

// NewMessageService constructs the service.
func NewMessageService(repo messageStore) *MessageService {
	return &MessageService{repo: repo}
}

// Append adds a trimmed message from sender to the request's thread.
func (s *MessageService) Append(ctx context.Context, requestID int64, sender models.MessageSender, content string) (*models.Message, error) {
	if !sender.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown message sender")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message content is required")
	}
	msg := &models.Message{RequestID: requestID, Sender: sender, Content: content}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return msg, nil
}

// List returns the request's thread oldest first.
func (s *MessageService) List(ctx context.Context, requestID int64) ([]models.Message, error) {
	messages, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load messages")
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
