package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/service"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Stripe recommends bounding webhook bodies to ~65kb.
const maxWebhookBodySize = int64(65536)

// WebhookHandler receives processor webhook deliveries.
type WebhookHandler struct {
	payments service.PaymentService
	log      *logger.Logger
}

func NewWebhookHandler(payments service.PaymentService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{payments: payments, log: log}
}

// HandleStripeWebhook verifies the delivery and applies the event. Rejected
// signatures and malformed events get 400; internal failures 500 so the
// processor redelivers.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to read webhook request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Stripe-Signature header"})
		return
	}

	if err := h.payments.HandleEvent(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) || errors.Is(err, domain.ErrMalformedEvent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Errorw("Error processing webhook event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error processing webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
