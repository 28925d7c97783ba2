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

// CollaborationHandler serves collaboration request endpoints.
type CollaborationHandler struct {
	collaborations service.CollaborationService
	log            *logger.Logger
}

func NewCollaborationHandler(collaborations service.CollaborationService, log *logger.Logger) *CollaborationHandler {
	return &CollaborationHandler{collaborations: collaborations, log: log}
}

func (h *CollaborationHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input domain.CollaborationRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.collaborations.Send(c.Request.Context(), userID, input)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *CollaborationHandler) ListSent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	requests, err := h.collaborations.ListSent(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *CollaborationHandler) ListReceived(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	requests, err := h.collaborations.ListReceived(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (h *CollaborationHandler) Respond(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	var input domain.CollaborationResponseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.collaborations.Respond(c.Request.Context(), id, userID, input.Accept)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
