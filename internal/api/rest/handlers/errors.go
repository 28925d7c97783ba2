package handlers

import (
	"errors"
	"net/http"

	"github.com/collabthon/backend/internal/domain"
	"github.com/collabthon/backend/internal/repository"
	"github.com/collabthon/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP statuses. Rejected no-ops and bad
// input are 400, missing resources 404, processor outages 500/503.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrUnsupportedPlan),
		errors.Is(err, domain.ErrAlreadySubscribed),
		errors.Is(err, domain.ErrAlreadyActive),
		errors.Is(err, domain.ErrAlreadyFree),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrProjectLimitReached),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrMalformedEvent):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNoActiveSubscription),
		errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrProcessorNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Errorw("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
