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

// SubscriptionService owns the subscription ledger: one row per user,
// overwritten on plan changes, never hard-deleted.
type SubscriptionService interface {
	// GetOrCreate returns the user's subscription, lazily creating the
	// default free row on first access.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)

	// Subscribe puts the user on the given plan with a fresh 30-day window.
	Subscribe(ctx context.Context, userID uuid.UUID, plan domain.Plan) (*domain.Subscription, error)

	// Cancel downgrades the user to the free plan. A linked processor
	// subscription is cancelled remotely first, at the period end or
	// immediately; if that fails the ledger is left untouched.
	Cancel(ctx context.Context, userID uuid.UUID, atPeriodEnd bool) (*domain.Subscription, error)

	// HasFeature reports whether the user's current plan grants the feature
	// and which plan was consulted. Missing rows count as free; any doubt
	// resolves to false.
	HasFeature(ctx context.Context, userID uuid.UUID, feature domain.Feature) (bool, domain.Plan, error)

	// Plans returns the plan catalog.
	Plans() map[domain.Plan]domain.PlanConfig

	// Stats returns per-plan subscription counts.
	Stats(ctx context.Context) (*domain.SubscriptionStats, error)

	// CanCreateProject checks the plan's project-listing limit against the
	// user's current count.
	CanCreateProject(ctx context.Context, userID uuid.UUID, currentCount int64) error
}

type subscriptionService struct {
	repo      repository.SubscriptionRepository
	processor billing.Processor // nil when the gateway is not configured
	producer  kafka.Producer
	metrics   metrics.BillingMetrics
	log       *logger.Logger
}

// NewSubscriptionService wires the ledger service. processor may be nil when
// no payment gateway is configured; producer may be nil when Kafka is down.
func NewSubscriptionService(
	repo repository.SubscriptionRepository,
	processor billing.Processor,
	producer kafka.Producer,
	billingMetrics metrics.BillingMetrics,
	log *logger.Logger,
) SubscriptionService {
	if producer == nil {
		log.Warnw("Kafka producer is nil, subscription events will not be published")
		producer = kafka.NopProducer{}
	}
	return &subscriptionService{
		repo:      repo,
		processor: processor,
		producer:  producer,
		metrics:   billingMetrics,
		log:       log,
	}
}

func (s *subscriptionService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	created, err := s.repo.CreateIfAbsent(ctx, domain.NewFreeSubscription(userID))
	if err != nil {
		return nil, err
	}

	s.log.Infow("Created default free subscription", "userID", userID)
	s.metrics.IncSubscriptionChange(string(domain.PlanFree), "created")
	s.publish(ctx, kafka.TopicSubscriptionCreated, created)
	return created, nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID uuid.UUID, plan domain.Plan) (*domain.Subscription, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPlan, plan)
	}

	updated, err := s.repo.Mutate(ctx, userID, func(current *domain.Subscription) (*domain.Subscription, error) {
		if current == nil {
			current = domain.NewFreeSubscription(userID)
		} else if current.IsActive && current.Plan == plan {
			return nil, domain.ErrAlreadySubscribed
		}

		now := time.Now().UTC()
		expires := now.Add(domain.FreePlanDuration)
		current.Plan = plan
		current.IsActive = true
		current.StartedAt = now
		current.ExpiresAt = &expires
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Subscription updated", "userID", userID, "plan", plan)
	s.metrics.IncSubscriptionChange(string(plan), "subscribed")
	s.publish(ctx, kafka.TopicSubscriptionUpdated, updated)
	return updated, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID, atPeriodEnd bool) (*domain.Subscription, error) {
	current, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, err
	}
	if !current.IsActive {
		return nil, domain.ErrNoActiveSubscription
	}
	if current.Plan == domain.PlanFree {
		return nil, domain.ErrAlreadyFree
	}

	// Remote cancellation happens before any local change and outside the
	// row lock, so a processor failure leaves the ledger as it was.
	if current.StripeSubscriptionID != "" {
		if s.processor == nil {
			return nil, domain.ErrProcessorNotConfigured
		}
		if err := s.processor.CancelSubscription(ctx, current.StripeSubscriptionID, atPeriodEnd); err != nil {
			s.log.Errorw("Processor cancellation failed, ledger unchanged", "error", err, "userID", userID)
			return nil, fmt.Errorf("%w: %v", domain.ErrProcessorCancellationFailed, err)
		}
	}

	updated, err := s.repo.Mutate(ctx, userID, func(row *domain.Subscription) (*domain.Subscription, error) {
		if row == nil {
			return nil, domain.ErrNoActiveSubscription
		}
		now := time.Now().UTC()
		expires := now.Add(domain.FreePlanDuration)
		row.Plan = domain.PlanFree
		row.IsActive = true
		row.StripeSubscriptionID = ""
		row.StartedAt = now
		row.ExpiresAt = &expires
		row.UpdatedAt = now
		return row, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Subscription cancelled, downgraded to free", "userID", userID)
	s.metrics.IncSubscriptionChange(string(current.Plan), "cancelled")
	s.publish(ctx, kafka.TopicSubscriptionCancelled, updated)
	return updated, nil
}

func (s *subscriptionService) HasFeature(ctx context.Context, userID uuid.UUID, feature domain.Feature) (bool, domain.Plan, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No row yet means the default free entitlement; nothing is
			// persisted on a read path.
			return domain.PlanFree.HasFeature(feature), domain.PlanFree, nil
		}
		return false, "", err
	}

	if !feature.Valid() {
		return false, sub.Plan, nil
	}
	if !sub.IsActive {
		return false, sub.Plan, nil
	}
	if sub.ExpiresAt != nil && sub.ExpiresAt.Before(time.Now().UTC()) {
		return false, sub.Plan, nil
	}
	return sub.Plan.HasFeature(feature), sub.Plan, nil
}

func (s *subscriptionService) Plans() map[domain.Plan]domain.PlanConfig {
	return domain.PlanConfigs
}

func (s *subscriptionService) Stats(ctx context.Context) (*domain.SubscriptionStats, error) {
	return s.repo.Stats(ctx)
}

func (s *subscriptionService) CanCreateProject(ctx context.Context, userID uuid.UUID, currentCount int64) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	plan := sub.Plan
	if !sub.IsActive {
		plan = domain.PlanFree
	}

	limit := domain.PlanConfigs[plan].ProjectLimit
	if limit == nil {
		return nil
	}
	if currentCount >= int64(*limit) {
		return fmt.Errorf("%w: %d/%d", domain.ErrProjectLimitReached, currentCount, *limit)
	}
	return nil
}

func (s *subscriptionService) publish(ctx context.Context, topic string, sub *domain.Subscription) {
	if err := s.producer.PublishSubscriptionEvent(ctx, topic, sub); err != nil {
		s.log.Warnw("Failed to publish subscription event", "error", err, "topic", topic, "userID", sub.UserID)
	}
}
