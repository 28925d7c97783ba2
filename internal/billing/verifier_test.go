package billing

import (
	"testing"

	"github.com/collabthon/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCheckoutSessionDecode(t *testing.T) {
	event := &Event{
		Type: EventCheckoutCompleted,
		Raw: []byte(`{
			"id": "cs_1",
			"customer": "cus_1",
			"subscription": "sub_1",
			"metadata": {"user_id": "u-1", "plan": "professional"}
		}`),
	}

	session, err := event.CheckoutSession()
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "cus_1", session.Customer)
	assert.Equal(t, "sub_1", session.Subscription)
	assert.Equal(t, "professional", session.Metadata["plan"])
}

func TestEventDecodeMalformed(t *testing.T) {
	event := &Event{Raw: []byte(`not json`)}

	_, err := event.CheckoutSession()
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)

	_, err = event.Subscription()
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestStripeVerifierRejectsBadSignature(t *testing.T) {
	verifier := NewStripeVerifier("whsec_test")

	_, err := verifier.Verify([]byte(`{}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}
