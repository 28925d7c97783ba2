package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	subscriptionKeyPrefix = "subscription:user:"
	subscriptionCacheTTL  = 15 * time.Minute
)

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis", "addr", addr)
	return client, nil
}

// CachedSubscriptionRepository decorates a SubscriptionRepository with a
// Redis read-through cache on the per-user lookup. Every mutation path
// invalidates the cached row; cache failures degrade to the inner store.
type CachedSubscriptionRepository struct {
	inner  SubscriptionRepository
	client *redis.Client
	log    *logger.Logger
}

// NewCachedSubscriptionRepository wraps inner with a Redis cache.
func NewCachedSubscriptionRepository(inner SubscriptionRepository, client *redis.Client, log *logger.Logger) *CachedSubscriptionRepository {
	return &CachedSubscriptionRepository{inner: inner, client: client, log: log}
}

func userKey(userID uuid.UUID) string {
	return subscriptionKeyPrefix + userID.String()
}

func (r *CachedSubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	data, err := r.client.Get(ctx, userKey(userID)).Bytes()
	if err == nil {
		var sub domain.Subscription
		if err := json.Unmarshal(data, &sub); err == nil {
			return &sub, nil
		}
		// Corrupt entry, fall through to the store.
		r.client.Del(ctx, userKey(userID))
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warnw("Redis lookup failed, falling back to store", "error", err, "userID", userID)
	}

	sub, err := r.inner.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache(ctx, sub)
	return sub, nil
}

func (r *CachedSubscriptionRepository) cache(ctx context.Context, sub *domain.Subscription) {
	data, err := json.Marshal(sub)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, userKey(sub.UserID), data, subscriptionCacheTTL).Err(); err != nil {
		r.log.Warnw("Failed to cache subscription", "error", err, "userID", sub.UserID)
	}
}

func (r *CachedSubscriptionRepository) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := r.client.Del(ctx, userKey(userID)).Err(); err != nil {
		r.log.Warnw("Failed to invalidate cached subscription", "error", err, "userID", userID)
	}
}

func (r *CachedSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	// Lookups by external id are webhook-only, not worth caching.
	return r.inner.GetByStripeSubscriptionID(ctx, stripeSubscriptionID)
}

func (r *CachedSubscriptionRepository) CreateIfAbsent(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	created, err := r.inner.CreateIfAbsent(ctx, sub)
	if err != nil {
		return nil, err
	}
	r.cache(ctx, created)
	return created, nil
}

func (r *CachedSubscriptionRepository) Mutate(ctx context.Context, userID uuid.UUID, fn func(current *domain.Subscription) (*domain.Subscription, error)) (*domain.Subscription, error) {
	updated, err := r.inner.Mutate(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, userID)
	return updated, nil
}

func (r *CachedSubscriptionRepository) DeactivateByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	sub, err := r.inner.DeactivateByStripeSubscriptionID(ctx, stripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		r.invalidate(ctx, sub.UserID)
	}
	return sub, nil
}

func (r *CachedSubscriptionRepository) Stats(ctx context.Context) (*domain.SubscriptionStats, error) {
	return r.inner.Stats(ctx)
}
