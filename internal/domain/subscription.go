package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Valid reports whether p is a recognized tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanProfessional, PlanEnterprise:
		return true
	}
	return false
}

// Paid reports whether the plan is billed through the payment processor.
func (p Plan) Paid() bool {
	return p == PlanProfessional || p == PlanEnterprise
}

// Feature is a plan-gated capability.
type Feature string

const (
	FeatureUnlimitedProjects Feature = "unlimited_projects"
	FeatureAdvancedSearch    Feature = "advanced_search"
	FeaturePrioritySupport   Feature = "priority_support"
	FeatureTeamCollaboration Feature = "team_collaboration"
)

// Valid reports whether f is a known feature name.
func (f Feature) Valid() bool {
	switch f {
	case FeatureUnlimitedProjects, FeatureAdvancedSearch, FeaturePrioritySupport, FeatureTeamCollaboration:
		return true
	}
	return false
}

// HasFeature reports whether the plan grants the feature. Enterprise grants
// everything, professional everything except team collaboration, free nothing.
func (p Plan) HasFeature(f Feature) bool {
	switch p {
	case PlanEnterprise:
		return f.Valid()
	case PlanProfessional:
		return f.Valid() && f != FeatureTeamCollaboration
	default:
		return false
	}
}

// FreePlanDuration is the validity window applied to locally managed plans.
const FreePlanDuration = 30 * 24 * time.Hour

// Subscription is the ledger row recording what plan a user is entitled to.
// Exactly one row exists per user; it is overwritten on plan changes and
// never hard-deleted.
type Subscription struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	Plan                 Plan       `json:"plan"`
	IsActive             bool       `json:"is_active"`
	StripeCustomerID     string     `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
	StartedAt            time.Time  `json:"started_at"`
	ExpiresAt            *time.Time `json:"expires_at"` // nil when the processor owns renewal
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewFreeSubscription builds the default ledger row created lazily on first
// access: free plan, active, 30-day local window.
func NewFreeSubscription(userID uuid.UUID) *Subscription {
	now := time.Now().UTC()
	expires := now.Add(FreePlanDuration)
	return &Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Plan:      PlanFree,
		IsActive:  true,
		StartedAt: now,
		ExpiresAt: &expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PlanConfig describes a tier offering.
type PlanConfig struct {
	Name         string   `json:"name"`
	Price        int      `json:"price"` // monthly, in rupees
	Features     []string `json:"features"`
	ProjectLimit *int     `json:"project_limit"` // nil means unlimited
	DurationDays int      `json:"-"`
}

func intPtr(n int) *int { return &n }

// PlanConfigs is the plan catalog served by the plans endpoint and consulted
// for project limits.
var PlanConfigs = map[Plan]PlanConfig{
	PlanFree: {
		Name:         "Free",
		Price:        0,
		Features:     []string{"Basic profile", "5 project listings", "Limited search"},
		ProjectLimit: intPtr(5),
		DurationDays: 30,
	},
	PlanProfessional: {
		Name:         "Professional",
		Price:        2999,
		Features:     []string{"Enhanced profile", "Unlimited projects", "Advanced search", "Priority support"},
		ProjectLimit: nil,
		DurationDays: 30,
	},
	PlanEnterprise: {
		Name:         "Enterprise",
		Price:        7999,
		Features:     []string{"All Professional features", "Team collaboration", "Custom integrations", "24/7 support"},
		ProjectLimit: nil,
		DurationDays: 30,
	},
}

// SubscriptionStatus is the payments-facing view of a user's entitlement.
// Users without a ledger row get a synthesized inactive free status.
type SubscriptionStatus struct {
	Plan                 Plan       `json:"plan"`
	IsActive             bool       `json:"is_active"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	ExpiresAt            *time.Time `json:"expires_at"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
}

// SubscriptionStats aggregates active subscription counts per plan.
type SubscriptionStats struct {
	Total        int64 `json:"total_subscriptions"`
	Active       int64 `json:"active_subscriptions"`
	Free         int64 `json:"free"`
	Professional int64 `json:"professional"`
	Enterprise   int64 `json:"enterprise"`
}
