package domain

import (
	"time"

	"github.com/google/uuid"
)

// CollaborationStatus is the state of a collaboration request.
type CollaborationStatus string

const (
	CollaborationStatusPending   CollaborationStatus = "pending"
	CollaborationStatusAccepted  CollaborationStatus = "accepted"
	CollaborationStatusRejected  CollaborationStatus = "rejected"
	CollaborationStatusCancelled CollaborationStatus = "cancelled"
)

// CollaborationRequest links a sender to a receiver, optionally for a project.
type CollaborationRequest struct {
	ID         uuid.UUID           `json:"id"`
	SenderID   uuid.UUID           `json:"sender_id"`
	ReceiverID uuid.UUID           `json:"receiver_id"`
	ProjectID  *uuid.UUID          `json:"project_id,omitempty"`
	Message    string              `json:"message,omitempty"`
	Status     CollaborationStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// CollaborationRequestInput is the payload for sending a request.
type CollaborationRequestInput struct {
	ReceiverID uuid.UUID  `json:"receiver_id" binding:"required"`
	ProjectID  *uuid.UUID `json:"project_id"`
	Message    string     `json:"message"`
}

// CollaborationResponseInput accepts or rejects a pending request.
type CollaborationResponseInput struct {
	Accept bool `json:"accept"`
}
