package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// NotificationService is the sink the workflows write human-readable
// events to, plus the read side the front-end polls.
type NotificationService struct {
	store  NotificationStore
	logger *zap.Logger
}

func NewNotificationService(store NotificationStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// Notify writes one notification for the recipient.
func (s *NotificationService) Notify(ctx context.Context, recipientID, message string, typ model.NotificationType, relatedID *uuid.UUID) error {
	n := &model.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Message:     message,
		Type:        typ,
		RelatedID:   relatedID,
	}

	if err := s.store.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.logger.Debug("Notification created",
		zap.String("recipient_id", recipientID),
		zap.String("type", string(typ)),
	)
	return nil
}

// List returns the recipient's most recent notifications.
func (s *NotificationService) List(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListForRecipient(ctx, recipientID, limit)
}

// CountUnread returns the recipient's unread count.
func (s *NotificationService) CountUnread(ctx context.Context, recipientID string) (int, error) {
	return s.store.CountUnread(ctx, recipientID)
}

// MarkAllRead clears the recipient's unread flags.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.store.MarkAllRead(ctx, recipientID)
}
