package service

import (
	"context"
	"testing"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/kafka"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriptionService(t *testing.T, repo repository.SubscriptionRepository, processor *fakeProcessor) SubscriptionService {
	t.Helper()
	if processor == nil {
		return NewSubscriptionService(repo, nil, kafka.NopProducer{}, nopMetrics, logger.NewTestLogger(t))
	}
	return NewSubscriptionService(repo, processor, kafka.NopProducer{}, nopMetrics, logger.NewTestLogger(t))
}

func TestGetOrCreateCreatesFreeDefault(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	userID := uuid.New()

	sub, err := svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, sub.Plan)
	assert.True(t, sub.IsActive)
	require.NotNil(t, sub.ExpiresAt)

	// Second call returns the same row, not a new one.
	again, err := svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
}

func TestSubscribe(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	userID := uuid.New()

	_, err := svc.Subscribe(context.Background(), userID, domain.Plan("gold"))
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	sub, err := svc.Subscribe(context.Background(), userID, domain.PlanProfessional)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanProfessional, sub.Plan)
	assert.True(t, sub.IsActive)

	// Same plan on an active row is a rejected no-op.
	_, err = svc.Subscribe(context.Background(), userID, domain.PlanProfessional)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	// A different plan overwrites the single row.
	upgraded, err := svc.Subscribe(context.Background(), userID, domain.PlanEnterprise)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, upgraded.ID)
	assert.Equal(t, domain.PlanEnterprise, upgraded.Plan)

	stored, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanEnterprise, stored.Plan)
}

func TestCancelWithoutSubscription(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)

	_, err := svc.Cancel(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
}

func TestCancelAlreadyFree(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	userID := uuid.New()

	_, err := svc.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), userID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyFree)
}

func TestCancelProcessorFirst(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	processor := &fakeProcessor{cancelErr: domain.ErrProcessorUnavailable}
	svc := newSubscriptionService(t, repo, processor)
	userID := uuid.New()

	seedPaidSubscription(t, repo, userID, "sub_123")

	// Processor refusal must leave the ledger untouched.
	_, err := svc.Cancel(context.Background(), userID, false)
	assert.ErrorIs(t, err, domain.ErrProcessorCancellationFailed)
	assert.Equal(t, []string{"sub_123/false"}, processor.cancelCalls)

	stored, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanEnterprise, stored.Plan)
	assert.Equal(t, "sub_123", stored.StripeSubscriptionID)

	// Once the processor succeeds the row downgrades to a fresh free window.
	processor.cancelErr = nil
	downgraded, err := svc.Cancel(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, downgraded.Plan)
	assert.True(t, downgraded.IsActive)
	assert.Empty(t, downgraded.StripeSubscriptionID)
	require.NotNil(t, downgraded.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(domain.FreePlanDuration), *downgraded.ExpiresAt, 5*time.Second)
}

func TestCancelAtPeriodEnd(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	processor := &fakeProcessor{}
	svc := newSubscriptionService(t, repo, processor)
	userID := uuid.New()

	seedPaidSubscription(t, repo, userID, "sub_pe")

	// The default cancellation keeps the paid period running remotely.
	downgraded, err := svc.Cancel(context.Background(), userID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub_pe/true"}, processor.cancelCalls)
	assert.Equal(t, domain.PlanFree, downgraded.Plan)
	assert.Empty(t, downgraded.StripeSubscriptionID)
}

func TestHasFeatureMissingRowIsFree(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	userID := uuid.New()

	has, plan, err := svc.HasFeature(context.Background(), userID, domain.FeatureAdvancedSearch)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, domain.PlanFree, plan)

	// The read path must not create a row.
	_, err = repo.GetByUserID(context.Background(), userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHasFeatureFailsClosed(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	ctx := context.Background()

	userID := uuid.New()
	seedPaidSubscription(t, repo, userID, "sub_abc")

	has, plan, err := svc.HasFeature(ctx, userID, domain.FeatureTeamCollaboration)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, domain.PlanEnterprise, plan)

	// Unknown feature names never grant access.
	has, _, err = svc.HasFeature(ctx, userID, domain.Feature("time_travel"))
	require.NoError(t, err)
	assert.False(t, has)

	// Inactive rows grant nothing.
	_, err = repo.Mutate(ctx, userID, func(current *domain.Subscription) (*domain.Subscription, error) {
		current.IsActive = false
		return current, nil
	})
	require.NoError(t, err)

	has, plan, err = svc.HasFeature(ctx, userID, domain.FeatureTeamCollaboration)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, domain.PlanEnterprise, plan)

	// Expired local windows grant nothing either.
	expired := time.Now().UTC().Add(-time.Hour)
	_, err = repo.Mutate(ctx, userID, func(current *domain.Subscription) (*domain.Subscription, error) {
		current.IsActive = true
		current.ExpiresAt = &expired
		return current, nil
	})
	require.NoError(t, err)

	has, _, err = svc.HasFeature(ctx, userID, domain.FeatureTeamCollaboration)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCanCreateProject(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	ctx := context.Background()
	userID := uuid.New()

	// Free plan allows 5 listings.
	assert.NoError(t, svc.CanCreateProject(ctx, userID, 4))
	assert.ErrorIs(t, svc.CanCreateProject(ctx, userID, 5), domain.ErrProjectLimitReached)

	_, err := svc.Subscribe(ctx, userID, domain.PlanProfessional)
	require.NoError(t, err)
	assert.NoError(t, svc.CanCreateProject(ctx, userID, 500))
}

func TestStats(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newSubscriptionService(t, repo, nil)
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, uuid.New())
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, uuid.New(), domain.PlanProfessional)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(1), stats.Free)
	assert.Equal(t, int64(1), stats.Professional)
}

func seedPaidSubscription(t *testing.T, repo *repository.InMemorySubscriptionRepository, userID uuid.UUID, stripeSubID string) {
	t.Helper()
	sub := domain.NewFreeSubscription(userID)
	sub.Plan = domain.PlanEnterprise
	sub.StripeCustomerID = "cus_test"
	sub.StripeSubscriptionID = stripeSubID
	sub.ExpiresAt = nil
	_, err := repo.CreateIfAbsent(context.Background(), sub)
	require.NoError(t, err)
}
