package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collabthon/backend/internal/billing"
	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakePaymentService struct {
	handleErr  error
	lastSig    string
	session    *billing.CheckoutSession
	upgradeSub *domain.Subscription
}

func (f *fakePaymentService) CreateCheckout(context.Context, uuid.UUID, string, domain.Plan, string, string) (*billing.CheckoutSession, error) {
	if f.session == nil {
		return nil, errors.New("not implemented")
	}
	return f.session, nil
}

func (f *fakePaymentService) HandleEvent(_ context.Context, _ []byte, signature string) error {
	f.lastSig = signature
	return f.handleErr
}

func (f *fakePaymentService) Upgrade(context.Context, uuid.UUID, domain.Plan) (*domain.Subscription, error) {
	if f.upgradeSub == nil {
		return nil, errors.New("not implemented")
	}
	return f.upgradeSub, nil
}

func (f *fakePaymentService) Status(context.Context, uuid.UUID) (*domain.SubscriptionStatus, error) {
	return nil, errors.New("not implemented")
}

func newWebhookRouter(t *testing.T, svc *fakePaymentService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWebhookHandler(svc, logger.NewTestLogger(t))
	router.POST("/webhooks/stripe", handler.HandleStripeWebhook)
	return router
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookMissingSignature(t *testing.T) {
	router := newWebhookRouter(t, &fakePaymentService{})
	w := postWebhook(router, `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookInvalidSignature(t *testing.T) {
	svc := &fakePaymentService{handleErr: domain.ErrInvalidSignature}
	router := newWebhookRouter(t, svc)

	w := postWebhook(router, `{}`, "t=1,v1=bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "t=1,v1=bad", svc.lastSig)
}

func TestWebhookMalformedEvent(t *testing.T) {
	svc := &fakePaymentService{handleErr: domain.ErrMalformedEvent}
	router := newWebhookRouter(t, svc)

	w := postWebhook(router, `{}`, "sig")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookInternalErrorTriggersRedelivery(t *testing.T) {
	svc := &fakePaymentService{handleErr: errors.New("db down")}
	router := newWebhookRouter(t, svc)

	w := postWebhook(router, `{}`, "sig")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookSuccess(t *testing.T) {
	router := newWebhookRouter(t, &fakePaymentService{})

	w := postWebhook(router, `{"id":"evt_1"}`, "sig")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())
}
