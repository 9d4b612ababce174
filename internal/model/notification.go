package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationJoinRequest   NotificationType = "join_request"
	NotificationRequestAccept NotificationType = "request_accepted"
	NotificationRequestReject NotificationType = "request_rejected"
	NotificationSessionEdited NotificationType = "session_edited"
	NotificationSessionCancel NotificationType = "session_canceled"
)

// Notification is one row in the sink the front-end polls.
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	RelatedID   *uuid.UUID       `json:"related_id"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
