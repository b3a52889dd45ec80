package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type verifyRequest struct {
	UserID           string `json:"user_id" binding:"required"`
	CourseID         string `json:"course_id" binding:"required"`
	VerificationHash string `json:"verification_hash" binding:"required"`
}

// GenerateCertificate validates the caller's completion of a course and
// issues (or rotates) its certificate.
func (h *Handler) GenerateCertificate(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	courseID := c.Param("courseId")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course id is required"})
		return
	}

	cert, err := h.Validator.GenerateCertificate(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"certificate": cert})
}

// ValidateCompletion reports whether the caller's completion of a course can
// back a certificate, with reasons when it cannot.
func (h *Handler) ValidateCompletion(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.Validator.ValidateCompletion(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// VerifyCertificate is the public trust check: anyone holding the certificate
// fields can confirm it is genuine and unexpired.
func (h *Handler) VerifyCertificate(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	valid, err := h.Validator.VerifyCertificate(c.Request.Context(), req.UserID, req.CourseID, req.VerificationHash)
	if err != nil {
		status, body := errorResponse(err)
		body["valid"] = false
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

// GetEligibility answers the redemption gate for the caller.
func (h *Handler) GetEligibility(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	elig, err := h.Validator.CanRedeemTokens(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, elig)
}

// GetCompletionStatus reports enrollment plus certificate state for one
// course.
func (h *Handler) GetCompletionStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	details, err := h.Validator.CompletionStatus(c.Request.Context(), userID, c.Param("courseId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ListCompletionStatuses reports state for every course the caller is
// enrolled in.
func (h *Handler) ListCompletionStatuses(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	details, err := h.Validator.CompletionStatuses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": details})
}

// ListProofs returns the caller's unexpired certificates.
func (h *Handler) ListProofs(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	proofs, err := h.Validator.UserProofs(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proofs": proofs})
}

// ProofStats summarizes the caller's certificates and completions.
func (h *Handler) ProofStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.Validator.ProofStatistics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CourseCompleted ingests a completion event from the catalog and runs the
// reward pipeline: certificate, award, leaderboard bump.
func (h *Handler) CourseCompleted(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	courseID := c.Param("courseId")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course id is required"})
		return
	}

	result, err := h.Rewards.CourseCompleted(c.Request.Context(), userID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
