package billing

import (
	"encoding/json"
	"fmt"

	"github.com/collabthon/backend/internal/domain"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Event types the reconciler acts on. Everything else is acknowledged and
// ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a verified webhook event.
type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

// CheckoutSessionData is the completed-checkout payload the reconciler reads.
// Customer and Subscription arrive as bare ids in webhook payloads.
type CheckoutSessionData struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// SubscriptionData is the subscription payload of customer.subscription.*
// events.
type SubscriptionData struct {
	ID string `json:"id"`
}

// CheckoutSession decodes the event payload as a checkout session.
func (e *Event) CheckoutSession() (*CheckoutSessionData, error) {
	var data CheckoutSessionData
	if err := json.Unmarshal(e.Raw, &data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode checkout session: %v", domain.ErrMalformedEvent, err)
	}
	return &data, nil
}

// Subscription decodes the event payload as a subscription object.
func (e *Event) Subscription() (*SubscriptionData, error) {
	var data SubscriptionData
	if err := json.Unmarshal(e.Raw, &data); err != nil {
		return nil, fmt.Errorf("%w: failed to decode subscription: %v", domain.ErrMalformedEvent, err)
	}
	return &data, nil
}

// EventVerifier authenticates raw webhook deliveries before any state change.
type EventVerifier interface {
	Verify(payload []byte, signature string) (*Event, error)
}

type stripeVerifier struct {
	secret string
}

// NewStripeVerifier builds an EventVerifier checking Stripe webhook
// signatures against the endpoint secret.
func NewStripeVerifier(secret string) EventVerifier {
	return &stripeVerifier{secret: secret}
}

func (v *stripeVerifier) Verify(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, v.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}, nil
}
