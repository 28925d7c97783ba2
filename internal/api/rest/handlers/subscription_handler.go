package handlers

import (
	"net/http"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/middleware"
	"github.com/collabthon/backend/internal/service"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubscriptionHandler serves the subscription ledger endpoints.
type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewSubscriptionHandler(service service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, log: log}
}

// Plans returns the plan catalog. Public.
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.service.Plans()})
}

// My returns the caller's subscription, creating the free default on first
// access.
func (h *SubscriptionHandler) My(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	sub, err := h.service.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Subscribe puts the caller on the plan named in the path.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), userID, domain.Plan(c.Param("plan")))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

type cancelSubscriptionRequest struct {
	AtPeriodEnd *bool `json:"at_period_end"`
}

// Cancel downgrades the caller to the free plan. The optional body controls
// whether the processor-side subscription ends at the paid period or right
// away; the default keeps the paid period.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	atPeriodEnd := true
	if c.Request.ContentLength > 0 {
		var req cancelSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.AtPeriodEnd != nil {
			atPeriodEnd = *req.AtPeriodEnd
		}
	}

	if _, err := h.service.Cancel(c.Request.Context(), userID, atPeriodEnd); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckFeature reports whether a user's plan grants a feature.
func (h *SubscriptionHandler) CheckFeature(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	feature := domain.Feature(c.Param("feature"))

	has, plan, err := h.service.HasFeature(c.Request.Context(), userID, feature)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"feature":    feature,
		"has_access": has,
		"plan":       plan,
	})
}

// Stats returns per-plan subscription counts. Admin only.
func (h *SubscriptionHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
