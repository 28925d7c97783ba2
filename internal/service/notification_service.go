package service

import (
	"context"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
)

// NotificationService creates and serves per-user notifications.
type NotificationService interface {
	// Notify records a notification for the user. Failures are logged, not
	// propagated: notifying is never worth failing the triggering operation.
	Notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationType, title, message string)

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	log  *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log *logger.Logger) NotificationService {
	return &notificationService{repo: repo, log: log}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationType, title, message string) {
	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Warnw("Failed to create notification", "error", err, "userID", userID, "type", kind)
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
