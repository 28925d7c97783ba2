package service

import (
	"context"
	"sync"
	"testing"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollaborationRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.CollaborationRequest
}

func newFakeCollaborationRepo() *fakeCollaborationRepo {
	return &fakeCollaborationRepo{byID: make(map[uuid.UUID]*domain.CollaborationRequest)}
}

func (r *fakeCollaborationRepo) Create(_ context.Context, req *domain.CollaborationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[req.ID] = req
	return nil
}

func (r *fakeCollaborationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.CollaborationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (r *fakeCollaborationRepo) ListBySender(_ context.Context, senderID uuid.UUID) ([]domain.CollaborationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CollaborationRequest
	for _, req := range r.byID {
		if req.SenderID == senderID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeCollaborationRepo) ListByReceiver(_ context.Context, receiverID uuid.UUID) ([]domain.CollaborationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CollaborationRequest
	for _, req := range r.byID {
		if req.ReceiverID == receiverID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeCollaborationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.CollaborationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	req.Status = status
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []domain.NotificationType
}

func (f *fakeNotifier) Notify(_ context.Context, _ uuid.UUID, kind domain.NotificationType, _, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, kind)
}

func (f *fakeNotifier) List(context.Context, uuid.UUID, bool, int, int) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakeNotifier) UnreadCount(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func TestCollaborationSendAndRespond(t *testing.T) {
	repo := newFakeCollaborationRepo()
	notifier := &fakeNotifier{}
	svc := NewCollaborationService(repo, notifier, logger.NewTestLogger(t))
	ctx := context.Background()

	sender := uuid.New()
	receiver := uuid.New()

	// Self-requests are rejected.
	_, err := svc.Send(ctx, sender, domain.CollaborationRequestInput{ReceiverID: sender})
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	req, err := svc.Send(ctx, sender, domain.CollaborationRequestInput{ReceiverID: receiver, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.CollaborationStatusPending, req.Status)
	assert.Equal(t, []domain.NotificationType{domain.NotificationCollaborationRequest}, notifier.notified)

	// Only the receiver may respond.
	_, err = svc.Respond(ctx, req.ID, sender, true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	accepted, err := svc.Respond(ctx, req.ID, receiver, true)
	require.NoError(t, err)
	assert.Equal(t, domain.CollaborationStatusAccepted, accepted.Status)
	assert.Contains(t, notifier.notified, domain.NotificationCollaborationAccepted)

	// A settled request cannot be responded to again.
	_, err = svc.Respond(ctx, req.ID, receiver, false)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}
