package repository

import (
	"context"
	"sync"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/google/uuid"
)

// InMemorySubscriptionRepository is a map-backed SubscriptionRepository used
// in tests and local development. The single mutex gives the same
// serialization guarantee the row lock provides in PostgreSQL.
type InMemorySubscriptionRepository struct {
	mu     sync.Mutex
	byUser map[uuid.UUID]*domain.Subscription
}

// NewInMemorySubscriptionRepository creates an empty in-memory repository.
func NewInMemorySubscriptionRepository() *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		byUser: make(map[uuid.UUID]*domain.Subscription),
	}
}

func copySub(sub *domain.Subscription) *domain.Subscription {
	if sub == nil {
		return nil
	}
	c := *sub
	if sub.ExpiresAt != nil {
		t := *sub.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// GetByUserID returns the user's subscription or ErrNotFound.
func (r *InMemorySubscriptionRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copySub(sub), nil
}

// GetByStripeSubscriptionID returns the row linked to the external id or ErrNotFound.
func (r *InMemorySubscriptionRepository) GetByStripeSubscriptionID(_ context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byUser {
		if sub.StripeSubscriptionID != "" && sub.StripeSubscriptionID == stripeSubscriptionID {
			return copySub(sub), nil
		}
	}
	return nil, ErrNotFound
}

// CreateIfAbsent inserts the row unless the user already has one.
func (r *InMemorySubscriptionRepository) CreateIfAbsent(_ context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byUser[sub.UserID]; ok {
		return copySub(existing), nil
	}
	r.byUser[sub.UserID] = copySub(sub)
	return copySub(sub), nil
}

// Mutate applies fn to the user's row under the repository lock.
func (r *InMemorySubscriptionRepository) Mutate(_ context.Context, userID uuid.UUID, fn func(current *domain.Subscription) (*domain.Subscription, error)) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := copySub(r.byUser[userID])
	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return current, nil
	}
	r.byUser[userID] = copySub(updated)
	return copySub(updated), nil
}

// DeactivateByStripeSubscriptionID sets is_active=false on the linked row and
// returns the stored result, or nil when no row matches.
func (r *InMemorySubscriptionRepository) DeactivateByStripeSubscriptionID(_ context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byUser {
		if sub.StripeSubscriptionID != "" && sub.StripeSubscriptionID == stripeSubscriptionID {
			sub.IsActive = false
			sub.UpdatedAt = time.Now().UTC()
			return copySub(sub), nil
		}
	}
	return nil, nil
}

// Stats counts subscriptions per plan.
func (r *InMemorySubscriptionRepository) Stats(_ context.Context) (*domain.SubscriptionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &domain.SubscriptionStats{}
	for _, sub := range r.byUser {
		stats.Total++
		if !sub.IsActive {
			continue
		}
		stats.Active++
		switch sub.Plan {
		case domain.PlanFree:
			stats.Free++
		case domain.PlanProfessional:
			stats.Professional++
		case domain.PlanEnterprise:
			stats.Enterprise++
		}
	}
	return stats, nil
}
