package handlers

import (
	"errors"
	"net/http"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"

	"github.com/gin-gonic/gin"
)

// errorResponse maps a service error to an HTTP status and a machine-readable
// body. Unknown errors map to 500 without leaking internals.
func errorResponse(err error) (int, gin.H) {
	var insufficient *domain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return http.StatusConflict, gin.H{
			"error":    "insufficient balance",
			"code":     "INSUFFICIENT_BALANCE",
			"balance":  insufficient.Balance.String(),
			"required": insufficient.Required.String(),
		}
	}

	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return http.StatusConflict, gin.H{
			"error": transition.Error(),
			"code":  "INVALID_TRANSITION",
			"from":  string(transition.From),
			"to":    string(transition.To),
		}
	}

	var ineligible *domain.NotEligibleError
	if errors.As(err, &ineligible) {
		return http.StatusForbidden, gin.H{
			"error":             "not eligible to redeem tokens",
			"code":              "NOT_ELIGIBLE",
			"reasons":           ineligible.Reasons,
			"completed_courses": ineligible.CompletedCourses,
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_AMOUNT"}
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": "INSUFFICIENT_BALANCE"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": "INVALID_TRANSITION"}
	case errors.Is(err, domain.ErrNotEligible):
		return http.StatusForbidden, gin.H{"error": err.Error(), "code": "NOT_ELIGIBLE"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": "not found", "code": "NOT_FOUND"}
	case errors.Is(err, domain.ErrCertificateExpired):
		return http.StatusGone, gin.H{"error": err.Error(), "code": "CERTIFICATE_EXPIRED"}
	case errors.Is(err, domain.ErrCertificateMismatch):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": "CERTIFICATE_MISMATCH"}
	case errors.Is(err, domain.ErrStorageConflict):
		return http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "STORAGE_CONFLICT"}
	}

	return http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"}
}

func respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, body)
}
