package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/collabthon/backend/internal/billing"
	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/kafka"
	"github.com/collabthon/backend/internal/metrics"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/google/uuid"
)

// PaymentService bridges the processor and the ledger: it opens checkout
// sessions and reconciles verified webhook events into ledger state.
type PaymentService interface {
	// CreateCheckout opens a hosted checkout session for a paid plan. The
	// ledger is not touched; entitlement arrives later via webhook.
	CreateCheckout(ctx context.Context, userID uuid.UUID, email string, plan domain.Plan, successURL, cancelURL string) (*billing.CheckoutSession, error)

	// HandleEvent verifies and applies a raw webhook delivery.
	HandleEvent(ctx context.Context, payload []byte, signature string) error

	// Upgrade moves a processor-managed subscription to a new paid plan.
	Upgrade(ctx context.Context, userID uuid.UUID, newPlan domain.Plan) (*domain.Subscription, error)

	// Status reports the user's entitlement without creating anything.
	Status(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error)
}

type paymentService struct {
	repo      repository.SubscriptionRepository
	processor billing.Processor // nil when the gateway is not configured
	verifier  billing.EventVerifier
	producer  kafka.Producer
	metrics   metrics.BillingMetrics
	log       *logger.Logger
}

// NewPaymentService wires the reconciler. processor may be nil when no
// payment gateway is configured.
func NewPaymentService(
	repo repository.SubscriptionRepository,
	processor billing.Processor,
	verifier billing.EventVerifier,
	producer kafka.Producer,
	billingMetrics metrics.BillingMetrics,
	log *logger.Logger,
) PaymentService {
	if producer == nil {
		producer = kafka.NopProducer{}
	}
	return &paymentService{
		repo:      repo,
		processor: processor,
		verifier:  verifier,
		producer:  producer,
		metrics:   billingMetrics,
		log:       log,
	}
}

func (s *paymentService) CreateCheckout(ctx context.Context, userID uuid.UUID, email string, plan domain.Plan, successURL, cancelURL string) (*billing.CheckoutSession, error) {
	if s.processor == nil {
		return nil, domain.ErrProcessorNotConfigured
	}
	if !plan.Valid() || !plan.Paid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPlan, plan)
	}

	current, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if current != nil && current.IsActive && current.Plan.Paid() {
		return nil, domain.ErrAlreadyActive
	}

	session, err := s.processor.CreateCheckoutSession(ctx, billing.CheckoutParams{
		UserID:     userID.String(),
		Email:      email,
		Plan:       plan,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCheckoutSession(string(plan))
	return session, nil
}

func (s *paymentService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.metrics.IncWebhookEvent("unverified", "rejected")
		return err
	}

	s.log.Infow("Received verified webhook event", "eventID", event.ID, "eventType", event.Type)

	switch event.Type {
	case billing.EventCheckoutCompleted:
		err = s.applyCheckoutCompleted(ctx, event)
	case billing.EventSubscriptionDeleted:
		err = s.applySubscriptionDeleted(ctx, event)
	default:
		s.log.Debugw("Ignoring unhandled webhook event type", "eventType", event.Type)
		s.metrics.IncWebhookEvent(event.Type, "ignored")
		return nil
	}

	if err != nil {
		s.metrics.IncWebhookEvent(event.Type, "failed")
		return err
	}
	s.metrics.IncWebhookEvent(event.Type, "processed")
	return nil
}

// applyCheckoutCompleted grants the plan named in the session metadata and
// links the processor ids. Redeliveries are idempotent: started_at is reset
// only when the incoming subscription id is new for this row.
func (s *paymentService) applyCheckoutCompleted(ctx context.Context, event *billing.Event) error {
	session, err := event.CheckoutSession()
	if err != nil {
		return err
	}

	rawUserID := session.Metadata["user_id"]
	rawPlan := session.Metadata["plan"]
	if rawUserID == "" || rawPlan == "" {
		return fmt.Errorf("%w: checkout session %s missing user_id or plan metadata", domain.ErrMalformedEvent, session.ID)
	}

	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fmt.Errorf("%w: invalid user_id %q: %v", domain.ErrMalformedEvent, rawUserID, err)
	}
	plan := domain.Plan(rawPlan)
	if !plan.Valid() {
		return fmt.Errorf("%w: unknown plan %q", domain.ErrMalformedEvent, rawPlan)
	}

	updated, err := s.repo.Mutate(ctx, userID, func(current *domain.Subscription) (*domain.Subscription, error) {
		now := time.Now().UTC()
		if current == nil {
			current = domain.NewFreeSubscription(userID)
			current.StartedAt = now
		} else if current.StripeSubscriptionID != session.Subscription {
			current.StartedAt = now
		}

		current.Plan = plan
		current.IsActive = true
		current.StripeCustomerID = session.Customer
		current.StripeSubscriptionID = session.Subscription
		// The processor owns renewal from here on.
		current.ExpiresAt = nil
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("Checkout completed, subscription activated",
		"userID", userID, "plan", plan, "stripeSubscriptionID", session.Subscription)
	s.metrics.IncSubscriptionChange(string(plan), "checkout_completed")
	s.publish(ctx, kafka.TopicSubscriptionUpdated, updated)
	return nil
}

// applySubscriptionDeleted flips the linked row inactive. A row we never
// stored is acknowledged as a no-op so the processor stops redelivering.
func (s *paymentService) applySubscriptionDeleted(ctx context.Context, event *billing.Event) error {
	sub, err := event.Subscription()
	if err != nil {
		return err
	}
	if sub.ID == "" {
		return fmt.Errorf("%w: subscription event without id", domain.ErrMalformedEvent)
	}

	row, err := s.repo.DeactivateByStripeSubscriptionID(ctx, sub.ID)
	if err != nil {
		return err
	}
	if row == nil {
		s.log.Warnw("Subscription deletion for unknown subscription, ignoring", "stripeSubscriptionID", sub.ID)
		return nil
	}

	s.log.Infow("Subscription deactivated by processor", "stripeSubscriptionID", sub.ID, "userID", row.UserID)
	s.metrics.IncSubscriptionChange(string(row.Plan), "deleted")
	s.publish(ctx, kafka.TopicSubscriptionCancelled, row)
	return nil
}

func (s *paymentService) Upgrade(ctx context.Context, userID uuid.UUID, newPlan domain.Plan) (*domain.Subscription, error) {
	if s.processor == nil {
		return nil, domain.ErrProcessorNotConfigured
	}
	if !newPlan.Valid() || !newPlan.Paid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPlan, newPlan)
	}

	current, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, err
	}
	if !current.IsActive || current.StripeSubscriptionID == "" {
		// Nothing processor-managed to upgrade; no remote call is made.
		return nil, domain.ErrNoActiveSubscription
	}
	if current.Plan == newPlan {
		return nil, domain.ErrAlreadySubscribed
	}

	// The plan change must target the subscription's line item, so resolve
	// its real id instead of assuming it matches the subscription id.
	itemID, err := s.processor.SubscriptionItemID(ctx, current.StripeSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessorUpdateFailed, err)
	}

	if err := s.processor.UpdateSubscriptionPlan(ctx, current.StripeSubscriptionID, itemID, newPlan); err != nil {
		if errors.Is(err, domain.ErrUnsupportedPlan) {
			return nil, err
		}
		s.log.Errorw("Processor plan update failed, ledger unchanged", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessorUpdateFailed, err)
	}

	updated, err := s.repo.Mutate(ctx, userID, func(row *domain.Subscription) (*domain.Subscription, error) {
		if row == nil {
			return nil, domain.ErrNoActiveSubscription
		}
		row.Plan = newPlan
		row.UpdatedAt = time.Now().UTC()
		return row, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Subscription upgraded", "userID", userID, "plan", newPlan)
	s.metrics.IncSubscriptionChange(string(newPlan), "upgraded")
	s.publish(ctx, kafka.TopicSubscriptionUpdated, updated)
	return updated, nil
}

func (s *paymentService) Status(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.SubscriptionStatus{Plan: domain.PlanFree, IsActive: false}, nil
		}
		return nil, err
	}
	return &domain.SubscriptionStatus{
		Plan:                 sub.Plan,
		IsActive:             sub.IsActive,
		StartedAt:            &sub.StartedAt,
		ExpiresAt:            sub.ExpiresAt,
		StripeSubscriptionID: sub.StripeSubscriptionID,
	}, nil
}

func (s *paymentService) publish(ctx context.Context, topic string, sub *domain.Subscription) {
	if err := s.producer.PublishSubscriptionEvent(ctx, topic, sub); err != nil {
		s.log.Warnw("Failed to publish subscription event", "error", err, "topic", topic, "userID", sub.UserID)
	}
}
