package domain

import "errors"

// Validation errors surfaced to the caller without side effects.
var (
	// ErrInvalidPlan the supplied plan is not a recognized tier.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrUnsupportedPlan no processor price is configured for the plan.
	ErrUnsupportedPlan = errors.New("no price configured for plan")

	// ErrAlreadySubscribed the active subscription already has this plan.
	ErrAlreadySubscribed = errors.New("already subscribed to this plan")

	// ErrAlreadyActive the user already holds an active subscription.
	ErrAlreadyActive = errors.New("user already has an active subscription")

	// ErrAlreadyFree the subscription is already on the free plan.
	ErrAlreadyFree = errors.New("already on free plan")

	// ErrNoActiveSubscription the operation requires a subscription that does not exist.
	ErrNoActiveSubscription = errors.New("no active subscription found")
)

// Processor errors: the external dependency failed, the local ledger is
// left untouched.
var (
	// ErrProcessorNotConfigured the payment gateway is not configured.
	ErrProcessorNotConfigured = errors.New("payment gateway not configured")

	// ErrProcessorUnavailable the processor did not answer within the bounded timeout.
	ErrProcessorUnavailable = errors.New("payment processor unavailable")

	// ErrProcessorCancellationFailed processor-side cancellation failed.
	ErrProcessorCancellationFailed = errors.New("failed to cancel subscription in payment processor")

	// ErrProcessorUpdateFailed processor-side plan update failed.
	ErrProcessorUpdateFailed = errors.New("failed to update subscription in payment processor")
)

// Account errors.
var (
	// ErrInvalidCredentials email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken the email or username is already registered.
	ErrEmailTaken = errors.New("email or username already registered")

	// ErrForbidden the caller does not own the resource.
	ErrForbidden = errors.New("operation not permitted")

	// ErrProjectLimitReached the plan's project listing limit is exhausted.
	ErrProjectLimitReached = errors.New("project limit reached for current plan")

	// ErrInvalidOperation the requested state transition is not allowed.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Webhook trust-boundary errors: the event is rejected, never applied.
var (
	// ErrInvalidSignature webhook signature verification failed.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent the event payload is missing required fields.
	ErrMalformedEvent = errors.New("malformed webhook event")
)
