package handlers

import (
	"net/http"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/middleware"
	"github.com/collabthon/backend/internal/service"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// PaymentHandler serves the processor-facing payment endpoints.
type PaymentHandler struct {
	payments service.PaymentService
	auth     service.AuthService
	log      *logger.Logger
}

func NewPaymentHandler(payments service.PaymentService, auth service.AuthService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, auth: auth, log: log}
}

type createCheckoutRequest struct {
	Plan       domain.Plan `json:"plan" binding:"required,plan"`
	SuccessURL string      `json:"success_url" binding:"required,url"`
	CancelURL  string      `json:"cancel_url" binding:"required,url"`
}

// CreateCheckout opens a hosted checkout session for a paid plan.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	session, err := h.payments.CreateCheckout(c.Request.Context(), userID, user.Email, req.Plan, req.SuccessURL, req.CancelURL)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type upgradeRequest struct {
	Plan domain.Plan `json:"plan" binding:"required,plan"`
}

// Upgrade moves the caller's processor-managed subscription to a new plan.
func (h *PaymentHandler) Upgrade(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.payments.Upgrade(c.Request.Context(), userID, req.Plan)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// Status reports the caller's entitlement without creating a ledger row.
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	status, err := h.payments.Status(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
