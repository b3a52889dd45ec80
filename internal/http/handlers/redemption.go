package handlers

import (
	"net/http"
	"strconv"

	"learn_ledger/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type redemptionRequestBody struct {
	Amount decimal.Decimal        `json:"amount" binding:"required"`
	Type   string                 `json:"type" binding:"required"`
	Meta   map[string]interface{} `json:"meta"`
}

type rejectBody struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateRedemption opens a PENDING request behind the proof-of-knowledge
// gate. Ineligible users get 403 with the validator's reasons.
func (h *Handler) CreateRedemption(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body redemptionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rType := domain.RedemptionType(body.Type)
	if !rType.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown redemption type"})
		return
	}

	req, err := h.Redemptions.RequestGated(c.Request.Context(), userID, body.Amount, rType, body.Meta)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// GetRedemption returns a single request. Users can only see their own.
func (h *Handler) GetRedemption(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	req, err := h.Redemptions.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": req})
}

// ListRedemptions returns the caller's requests, optionally filtered by
// status.
func (h *Handler) ListRedemptions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var status *domain.RedemptionStatus
	if v := c.Query("status"); v != "" {
		s := domain.RedemptionStatus(v)
		status = &s
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	requests, err := h.Redemptions.ByUser(c.Request.Context(), userID, status, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":  requests,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListPendingRedemptions returns the oldest pending requests for review.
func (h *Handler) ListPendingRedemptions(c *gin.Context) {
	limit := queryInt(c, "limit", 50)

	requests, err := h.Redemptions.Pending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ApproveRedemption debits the requested amount and moves the request to
// APPROVED atomically.
func (h *Handler) ApproveRedemption(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	req, err := h.Redemptions.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": req})
}

// CompleteRedemption records fulfillment of an approved request.
func (h *Handler) CompleteRedemption(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	req, err := h.Redemptions.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": req})
}

// RejectRedemption declines a pending request with a reason.
func (h *Handler) RejectRedemption(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var body rejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejection reason is required"})
		return
	}

	req, err := h.Redemptions.Reject(c.Request.Context(), id, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": req})
}

// RedemptionStats aggregates the request table by status and type.
func (h *Handler) RedemptionStats(c *gin.Context) {
	stats, err := h.Redemptions.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
