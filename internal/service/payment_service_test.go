package service

import (
	"context"
	"testing"
	"time"

	"github.com/collabthon/backend/internal/billing"
	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/kafka"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentService(t *testing.T, repo repository.SubscriptionRepository, processor billing.Processor, verifier billing.EventVerifier) PaymentService {
	t.Helper()
	if verifier == nil {
		verifier = &fakeVerifier{}
	}
	return NewPaymentService(repo, processor, verifier, kafka.NopProducer{}, nopMetrics, logger.NewTestLogger(t))
}

func TestCreateCheckout(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	ctx := context.Background()
	userID := uuid.New()

	// No processor configured.
	svc := newPaymentService(t, repo, nil, nil)
	_, err := svc.CreateCheckout(ctx, userID, "a@b.edu", domain.PlanProfessional, "https://ok", "https://no")
	assert.ErrorIs(t, err, domain.ErrProcessorNotConfigured)

	svc = newPaymentService(t, repo, &fakeProcessor{}, nil)

	// Free is not a purchasable plan.
	_, err = svc.CreateCheckout(ctx, userID, "a@b.edu", domain.PlanFree, "https://ok", "https://no")
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	session, err := svc.CreateCheckout(ctx, userID, "a@b.edu", domain.PlanProfessional, "https://ok", "https://no")
	require.NoError(t, err)
	assert.NotEmpty(t, session.URL)

	// Checkout never touches the ledger.
	_, err = repo.GetByUserID(ctx, userID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// An active paid subscription blocks a second checkout.
	seedPaidSubscription(t, repo, userID, "sub_live")
	_, err = svc.CreateCheckout(ctx, userID, "a@b.edu", domain.PlanProfessional, "https://ok", "https://no")
	assert.ErrorIs(t, err, domain.ErrAlreadyActive)
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := newPaymentService(t, repo, nil, &fakeVerifier{})

	err := svc.HandleEvent(context.Background(), []byte(`{}`), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestHandleCheckoutCompleted(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	ctx := context.Background()
	userID := uuid.New()

	verifier := &fakeVerifier{event: checkoutEvent(t, userID.String(), "professional", "cus_9", "sub_9")}
	svc := newPaymentService(t, repo, nil, verifier)

	require.NoError(t, svc.HandleEvent(ctx, []byte(`{}`), "sig"))

	sub, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanProfessional, sub.Plan)
	assert.True(t, sub.IsActive)
	assert.Equal(t, "cus_9", sub.StripeCustomerID)
	assert.Equal(t, "sub_9", sub.StripeSubscriptionID)
	assert.Nil(t, sub.ExpiresAt)
}

func TestHandleCheckoutCompletedRedeliveryKeepsStartedAt(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	ctx := context.Background()
	userID := uuid.New()

	verifier := &fakeVerifier{event: checkoutEvent(t, userID.String(), "professional", "cus_9", "sub_9")}
	svc := newPaymentService(t, repo, nil, verifier)

	require.NoError(t, svc.HandleEvent(ctx, []byte(`{}`), "sig"))
	first, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.HandleEvent(ctx, []byte(`{}`), "sig"))
	second, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)

	// Same external subscription id: redelivery must not move started_at.
	assert.Equal(t, first.StartedAt, second.StartedAt)

	// A genuinely new subscription id starts a new billing relationship.
	verifier.event = checkoutEvent(t, userID.String(), "enterprise", "cus_9", "sub_10")
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.HandleEvent(ctx, []byte(`{}`), "sig"))
	third, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, third.StartedAt.After(first.StartedAt))
	assert.Equal(t, domain.PlanEnterprise, third.Plan)
}

func TestHandleCheckoutCompletedMissingMetadata(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	verifier := &fakeVerifier{event: checkoutEvent(t, "", "professional", "cus_9", "sub_9")}
	svc := newPaymentService(t, repo, nil, verifier)

	err := svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	verifier.event = checkoutEvent(t, uuid.NewString(), "", "cus_9", "sub_9")
	err = svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	verifier.event = checkoutEvent(t, "not-a-uuid", "professional", "cus_9", "sub_9")
	err = svc.HandleEvent(context.Background(), []byte(`{}`), "sig")
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	ctx := context.Background()
	userID := uuid.New()
	seedPaidSubscription(t, repo, userID, "sub_del")

	verifier := &fakeVerifier{event: subscriptionDeletedEvent(t, "sub_del")}
	producer := &fakeProducer{}
	svc := NewPaymentService(repo, nil, verifier, producer, nopMetrics, logger.NewTestLogger(t))

	require.NoError(t, svc.HandleEvent(ctx, []byte(`{}`), "sig"))

	sub, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.False(t, sub.IsActive)

	// The published snapshot is the committed row, not a local reconstruction.
	require.Len(t, producer.subs, 1)
	assert.Equal(t, []string{kafka.TopicSubscriptionCancelled}, producer.topics)
	assert.Equal(t, userID, producer.subs[0].UserID)
	assert.False(t, producer.subs[0].IsActive)
	assert.Equal(t, sub.UpdatedAt, producer.subs[0].UpdatedAt)

	// Deletion of an unknown subscription is acknowledged, not failed.
	verifier.event = subscriptionDeletedEvent(t, "sub_unknown")
	assert.NoError(t, svc.HandleEvent(ctx, []byte(`{}`), "sig"))
	assert.Len(t, producer.subs, 1)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	verifier := &fakeVerifier{event: &billing.Event{ID: "evt_x", Type: "invoice.paid", Raw: []byte(`{}`)}}
	svc := newPaymentService(t, repo, nil, verifier)

	assert.NoError(t, svc.HandleEvent(context.Background(), []byte(`{}`), "sig"))
}

func TestUpgrade(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	ctx := context.Background()
	userID := uuid.New()
	processor := &fakeProcessor{itemID: "si_42"}
	svc := newPaymentService(t, repo, processor, nil)

	// No ledger row: no processor call is made.
	_, err := svc.Upgrade(ctx, userID, domain.PlanEnterprise)
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
	assert.Empty(t, processor.itemCalls)

	// A local-only subscription has nothing processor-managed to upgrade.
	freeUser := uuid.New()
	_, err = repo.CreateIfAbsent(ctx, domain.NewFreeSubscription(freeUser))
	require.NoError(t, err)
	_, err = svc.Upgrade(ctx, freeUser, domain.PlanEnterprise)
	assert.ErrorIs(t, err, domain.ErrNoActiveSubscription)
	assert.Empty(t, processor.itemCalls)

	seedPaidSubscription(t, repo, userID, "sub_up")
	stored, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, domain.PlanEnterprise, stored.Plan)

	// Processor failure leaves the ledger unchanged.
	processor.updateErr = domain.ErrProcessorUnavailable
	_, err = svc.Upgrade(ctx, userID, domain.PlanProfessional)
	assert.ErrorIs(t, err, domain.ErrProcessorUpdateFailed)
	stored, err = repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanEnterprise, stored.Plan)

	// Success updates the plan through the resolved item id.
	processor.updateErr = nil
	sub, err := svc.Upgrade(ctx, userID, domain.PlanProfessional)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanProfessional, sub.Plan)
	assert.Contains(t, processor.updateCalls, "sub_up/si_42/professional")
}

func TestStatusSynthesizesFreeWhenAbsent(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	ctx := context.Background()
	svc := newPaymentService(t, repo, nil, nil)

	status, err := svc.Status(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, status.Plan)
	assert.False(t, status.IsActive)
	assert.Nil(t, status.StartedAt)
	assert.Nil(t, status.ExpiresAt)

	userID := uuid.New()
	seedPaidSubscription(t, repo, userID, "sub_s")
	stored, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)

	status, err = svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanEnterprise, status.Plan)
	assert.True(t, status.IsActive)
	assert.Equal(t, "sub_s", status.StripeSubscriptionID)
	require.NotNil(t, status.StartedAt)
	assert.Equal(t, stored.StartedAt, *status.StartedAt)
}
