package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/kafka"
	"github.com/collabthon/backend/internal/metrics"
	"github.com/collabthon/backend/internal/middleware"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/internal/service"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriptionService records cancellation modes.
type fakeSubscriptionService struct {
	cancelFlags []bool
}

func (f *fakeSubscriptionService) GetOrCreate(context.Context, uuid.UUID) (*domain.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSubscriptionService) Subscribe(context.Context, uuid.UUID, domain.Plan) (*domain.Subscription, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSubscriptionService) Cancel(_ context.Context, userID uuid.UUID, atPeriodEnd bool) (*domain.Subscription, error) {
	f.cancelFlags = append(f.cancelFlags, atPeriodEnd)
	return domain.NewFreeSubscription(userID), nil
}

func (f *fakeSubscriptionService) HasFeature(context.Context, uuid.UUID, domain.Feature) (bool, domain.Plan, error) {
	return false, domain.PlanFree, nil
}

func (f *fakeSubscriptionService) Plans() map[domain.Plan]domain.PlanConfig {
	return domain.PlanConfigs
}

func (f *fakeSubscriptionService) Stats(context.Context) (*domain.SubscriptionStats, error) {
	return &domain.SubscriptionStats{}, nil
}

func (f *fakeSubscriptionService) CanCreateProject(context.Context, uuid.UUID, int64) error {
	return nil
}

func newSubscriptionRouter(t *testing.T, svc service.SubscriptionService, userID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
	})
	handler := NewSubscriptionHandler(svc, logger.NewTestLogger(t))
	router.POST("/subscriptions/cancel", handler.Cancel)
	router.GET("/subscriptions/check/:user_id/:feature", handler.CheckFeature)
	return router
}

func TestCheckFeatureResponseIncludesPlan(t *testing.T) {
	repo := repository.NewInMemorySubscriptionRepository()
	svc := service.NewSubscriptionService(repo, nil, kafka.NopProducer{}, metrics.NopBillingMetrics{}, logger.NewTestLogger(t))
	userID := uuid.New()

	_, err := svc.Subscribe(context.Background(), userID, domain.PlanEnterprise)
	require.NoError(t, err)

	router := newSubscriptionRouter(t, svc, userID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/check/"+userID.String()+"/team_collaboration", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["has_access"])
	assert.Equal(t, "enterprise", body["plan"])
	assert.Equal(t, "team_collaboration", body["feature"])
	assert.Equal(t, userID.String(), body["user_id"])

	// Users without a ledger row are reported on the free plan.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/subscriptions/check/"+uuid.NewString()+"/team_collaboration", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["has_access"])
	assert.Equal(t, "free", body["plan"])
}

func TestCancelBodyControlsPeriodEnd(t *testing.T) {
	svc := &fakeSubscriptionService{}
	router := newSubscriptionRouter(t, svc, uuid.New())

	// No body defaults to cancelling at the period end.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/cancel", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	// An explicit false requests immediate cancellation.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/subscriptions/cancel", bytes.NewBufferString(`{"at_period_end": false}`))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	assert.Equal(t, []bool{true, false}, svc.cancelFlags)
}
