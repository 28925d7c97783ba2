package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/collabthon/backend/internal/billing"
	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/metrics"
	"github.com/stretchr/testify/require"
)

// fakeProcessor records calls and fails on demand.
type fakeProcessor struct {
	cancelErr error
	updateErr error
	itemErr   error
	itemID    string

	cancelCalls []string
	updateCalls []string
	itemCalls   []string
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	return &billing.CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

func (f *fakeProcessor) CancelSubscription(_ context.Context, subscriptionID string, atPeriodEnd bool) error {
	f.cancelCalls = append(f.cancelCalls, fmt.Sprintf("%s/%t", subscriptionID, atPeriodEnd))
	return f.cancelErr
}

func (f *fakeProcessor) SubscriptionItemID(_ context.Context, subscriptionID string) (string, error) {
	f.itemCalls = append(f.itemCalls, subscriptionID)
	if f.itemErr != nil {
		return "", f.itemErr
	}
	if f.itemID != "" {
		return f.itemID, nil
	}
	return "si_default", nil
}

func (f *fakeProcessor) UpdateSubscriptionPlan(_ context.Context, subscriptionID, itemID string, plan domain.Plan) error {
	f.updateCalls = append(f.updateCalls, fmt.Sprintf("%s/%s/%s", subscriptionID, itemID, plan))
	return f.updateErr
}

// fakeVerifier returns a canned event instead of checking signatures. The
// signature "bad" is rejected.
type fakeVerifier struct {
	event *billing.Event
}

func (f *fakeVerifier) Verify(_ []byte, signature string) (*billing.Event, error) {
	if signature == "bad" {
		return nil, domain.ErrInvalidSignature
	}
	return f.event, nil
}

func checkoutEvent(t *testing.T, userID, plan, customer, subscription string) *billing.Event {
	t.Helper()
	metadata := map[string]string{}
	if userID != "" {
		metadata["user_id"] = userID
	}
	if plan != "" {
		metadata["plan"] = plan
	}
	raw, err := json.Marshal(map[string]any{
		"id":           "cs_test",
		"customer":     customer,
		"subscription": subscription,
		"metadata":     metadata,
	})
	require.NoError(t, err)
	return &billing.Event{ID: "evt_1", Type: billing.EventCheckoutCompleted, Raw: raw}
}

func subscriptionDeletedEvent(t *testing.T, subscriptionID string) *billing.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": subscriptionID})
	require.NoError(t, err)
	return &billing.Event{ID: "evt_2", Type: billing.EventSubscriptionDeleted, Raw: raw}
}

// fakeProducer records published subscription snapshots.
type fakeProducer struct {
	topics []string
	subs   []domain.Subscription
}

func (f *fakeProducer) PublishSubscriptionEvent(_ context.Context, topic string, sub *domain.Subscription) error {
	f.topics = append(f.topics, topic)
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

var nopMetrics = metrics.NopBillingMetrics{}
