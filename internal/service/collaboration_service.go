package service

import (
	"context"
	"fmt"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
)

// CollaborationService handles collaboration requests between users.
type CollaborationService interface {
	Send(ctx context.Context, senderID uuid.UUID, input domain.CollaborationRequestInput) (*domain.CollaborationRequest, error)
	ListSent(ctx context.Context, userID uuid.UUID) ([]domain.CollaborationRequest, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]domain.CollaborationRequest, error)

	// Respond accepts or rejects a pending request. Only the receiver may
	// respond, and only while the request is pending.
	Respond(ctx context.Context, id, callerID uuid.UUID, accept bool) (*domain.CollaborationRequest, error)
}

type collaborationService struct {
	repo          repository.CollaborationRepository
	notifications NotificationService
	log           *logger.Logger
}

func NewCollaborationService(repo repository.CollaborationRepository, notifications NotificationService, log *logger.Logger) CollaborationService {
	return &collaborationService{repo: repo, notifications: notifications, log: log}
}

func (s *collaborationService) Send(ctx context.Context, senderID uuid.UUID, input domain.CollaborationRequestInput) (*domain.CollaborationRequest, error) {
	if input.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot send a collaboration request to yourself", domain.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	req := &domain.CollaborationRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		ProjectID:  input.ProjectID,
		Message:    input.Message,
		Status:     domain.CollaborationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, req.ReceiverID, domain.NotificationCollaborationRequest,
		"New collaboration request", "You have received a new collaboration request")
	s.log.Infow("Collaboration request sent", "requestID", req.ID, "senderID", senderID, "receiverID", req.ReceiverID)
	return req, nil
}

func (s *collaborationService) ListSent(ctx context.Context, userID uuid.UUID) ([]domain.CollaborationRequest, error) {
	return s.repo.ListBySender(ctx, userID)
}

func (s *collaborationService) ListReceived(ctx context.Context, userID uuid.UUID) ([]domain.CollaborationRequest, error) {
	return s.repo.ListByReceiver(ctx, userID)
}

func (s *collaborationService) Respond(ctx context.Context, id, callerID uuid.UUID, accept bool) (*domain.CollaborationRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != callerID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.CollaborationStatusPending {
		return nil, fmt.Errorf("%w: request already %s", domain.ErrInvalidOperation, req.Status)
	}

	status := domain.CollaborationStatusRejected
	kind := domain.NotificationCollaborationRejected
	title := "Collaboration request rejected"
	if accept {
		status = domain.CollaborationStatusAccepted
		kind = domain.NotificationCollaborationAccepted
		title = "Collaboration request accepted"
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()

	s.notifications.Notify(ctx, req.SenderID, kind, title,
		fmt.Sprintf("Your collaboration request was %s", status))
	return req, nil
}
