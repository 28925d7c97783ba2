package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes notifications for client rendering.
type NotificationType string

const (
	NotificationCollaborationRequest  NotificationType = "collaboration_request"
	NotificationCollaborationAccepted NotificationType = "collaboration_accepted"
	NotificationCollaborationRejected NotificationType = "collaboration_rejected"
	NotificationSubscriptionChanged   NotificationType = "subscription_changed"
)

// Notification is a per-user message created by backend events.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
