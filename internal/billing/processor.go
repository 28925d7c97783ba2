package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const (
	metadataUserIDKey = "user_id"
	metadataPlanKey   = "plan"

	requestTimeout = 15 * time.Second
)

// CheckoutParams describes a hosted checkout session to create.
type CheckoutParams struct {
	UserID     string
	Email      string
	Plan       domain.Plan
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the created hosted session the client is redirected to.
type CheckoutSession struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	CustomerID string `json:"customer_id,omitempty"`
}

// Processor is the payment-processor capability the services depend on.
type Processor interface {
	// CreateCheckoutSession opens a hosted checkout for a paid plan.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// CancelSubscription cancels the processor-side subscription, either at
	// the end of the paid period or immediately. Cancelling an
	// already-removed subscription is not an error.
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error

	// SubscriptionItemID resolves the line-item id of the subscription's
	// single recurring item. Plan changes must target the item, not the
	// subscription itself.
	SubscriptionItemID(ctx context.Context, subscriptionID string) (string, error)

	// UpdateSubscriptionPlan moves the subscription item to the new plan's
	// price with proration.
	UpdateSubscriptionPlan(ctx context.Context, subscriptionID, itemID string, plan domain.Plan) error
}

type stripeProcessor struct {
	client *client.API
	prices map[domain.Plan]string
	log    *logger.Logger
}

// NewStripeProcessor builds a Processor over the Stripe SDK with a bounded
// HTTP timeout. prices maps paid plans to their Stripe price ids.
func NewStripeProcessor(apiKey string, prices map[domain.Plan]string, log *logger.Logger) Processor {
	sc := &client.API{}
	sc.Init(apiKey, stripe.NewBackends(&http.Client{Timeout: requestTimeout}))
	return &stripeProcessor{
		client: sc,
		prices: prices,
		log:    log,
	}
}

func (p *stripeProcessor) priceID(plan domain.Plan) (string, error) {
	price, ok := p.prices[plan]
	if !ok || price == "" {
		return "", fmt.Errorf("%w: no price configured for plan %q", domain.ErrUnsupportedPlan, plan)
	}
	return price, nil
}

func (p *stripeProcessor) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	price, err := p.priceID(params.Plan)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		metadataUserIDKey: params.UserID,
		metadataPlanKey:   string(params.Plan),
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
		CustomerEmail: stripe.String(params.Email),
		Metadata:      metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		Params: stripe.Params{Context: ctx},
	}

	session, err := p.client.CheckoutSessions.New(sessionParams)
	if err != nil {
		logStripeError(p.log, "CreateCheckoutSession", err)
		return nil, wrapStripeError("create checkout session", err)
	}

	p.log.Infow("Stripe checkout session created",
		"sessionID", session.ID, "userID", params.UserID, "plan", params.Plan)

	result := &CheckoutSession{ID: session.ID, URL: session.URL}
	if session.Customer != nil {
		result.CustomerID = session.Customer.ID
	}
	return result, nil
}

func (p *stripeProcessor) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	var err error
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
			Params:            stripe.Params{Context: ctx},
		}
		_, err = p.client.Subscriptions.Update(subscriptionID, params)
	} else {
		params := &stripe.SubscriptionCancelParams{
			Params: stripe.Params{Context: ctx},
		}
		_, err = p.client.Subscriptions.Cancel(subscriptionID, params)
	}

	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			p.log.Warnw("Stripe subscription already canceled or missing", "stripeSubscriptionID", subscriptionID)
			return nil
		}
		logStripeError(p.log, "CancelSubscription", err)
		return wrapStripeError("cancel subscription", err)
	}

	p.log.Infow("Stripe subscription canceled", "stripeSubscriptionID", subscriptionID, "atPeriodEnd", atPeriodEnd)
	return nil
}

func (p *stripeProcessor) SubscriptionItemID(ctx context.Context, subscriptionID string) (string, error) {
	params := &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	}

	subscription, err := p.client.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		logStripeError(p.log, "SubscriptionItemID", err)
		return "", wrapStripeError("retrieve subscription", err)
	}
	if subscription.Items == nil || len(subscription.Items.Data) == 0 {
		return "", fmt.Errorf("stripe: subscription %s has no items", subscriptionID)
	}
	return subscription.Items.Data[0].ID, nil
}

func (p *stripeProcessor) UpdateSubscriptionPlan(ctx context.Context, subscriptionID, itemID string, plan domain.Plan) error {
	price, err := p.priceID(plan)
	if err != nil {
		return err
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(price),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
		Params:            stripe.Params{Context: ctx},
	}

	_, err = p.client.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		logStripeError(p.log, "UpdateSubscriptionPlan", err)
		return wrapStripeError("update subscription", err)
	}

	p.log.Infow("Stripe subscription plan updated",
		"stripeSubscriptionID", subscriptionID, "itemID", itemID, "plan", plan)
	return nil
}

// wrapStripeError maps connectivity failures to ErrProcessorUnavailable so
// callers can distinguish an unreachable processor from a rejected request.
func wrapStripeError(operation string, err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrProcessorUnavailable, operation, err)
	}
	if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s: %v", domain.ErrProcessorUnavailable, operation, err)
	}
	return fmt.Errorf("stripe: failed to %s: %w", operation, err)
}

func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
		return
	}
	log.Errorw("Stripe request failed", "operation", operation, "error", err)
}
