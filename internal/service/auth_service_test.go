package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*domain.User
	profiles map[uuid.UUID]*domain.Profile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:     make(map[uuid.UUID]*domain.User),
		profiles: make(map[uuid.UUID]*domain.Profile),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	r.byID[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetProfile(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakeUserRepo) UpsertProfile(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour, logger.NewTestLogger(t))
	ctx := context.Background()

	token, err := svc.Register(ctx, domain.RegisterRequest{
		Email:    "alex@college.edu",
		Username: "alex",
		Password: "correcthorse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, domain.RoleStudent, token.User.Role)

	// Duplicate email is rejected.
	_, err = svc.Register(ctx, domain.RegisterRequest{
		Email:    "alex@college.edu",
		Username: "alex2",
		Password: "correcthorse",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// Login with the right password succeeds.
	logged, err := svc.Login(ctx, domain.LoginRequest{Email: "alex@college.edu", Password: "correcthorse"})
	require.NoError(t, err)
	assert.Equal(t, token.User.ID, logged.User.ID)

	// Wrong password and unknown email both fail the same way.
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "alex@college.edu", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@college.edu", Password: "correcthorse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
