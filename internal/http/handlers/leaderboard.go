package handlers

import (
	"net/http"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"

	"github.com/gin-gonic/gin"
)

// GetGlobalLeaderboard returns the global top entries by ascending rank.
func (h *Handler) GetGlobalLeaderboard(c *gin.Context) {
	limit := queryInt(c, "limit", 100)

	entries, err := h.Leaderboard.Global(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "type": domain.LeaderboardGlobal})
}

// GetFriendsLeaderboard returns the caller's friends partition.
func (h *Handler) GetFriendsLeaderboard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := queryInt(c, "limit", 100)
	entries, err := h.Leaderboard.Friends(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "type": domain.LeaderboardFriends})
}

// GetClassLeaderboard returns a class-scoped partition.
func (h *Handler) GetClassLeaderboard(c *gin.Context) {
	classID := c.Param("classId")
	if classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class id is required"})
		return
	}

	limit := queryInt(c, "limit", 100)
	entries, err := h.Leaderboard.Class(c.Request.Context(), classID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "type": domain.LeaderboardClass, "class_id": classID})
}

// GetMyRank returns the caller's rank, score and global percentile. A user
// with no entry gets rank 0.
func (h *Handler) GetMyRank(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	info, err := h.Leaderboard.UserRank(c.Request.Context(), userID, domain.LeaderboardGlobal, domain.GlobalPeriod)
	if err != nil {
		respondError(c, err)
		return
	}
	if info == nil {
		c.JSON(http.StatusOK, gin.H{"rank": 0, "score": "0"})
		return
	}

	resp := gin.H{"rank": info.Rank, "score": info.Score.String()}
	pct, err := h.Leaderboard.Percentile(c.Request.Context(), userID)
	if err != nil {
		// rank is still useful without it
		logger.Error("percentile lookup failed", "user_id", userID, "error", err)
	} else if pct != nil {
		resp["percentile"] = *pct
	}
	c.JSON(http.StatusOK, resp)
}

// GetLeaderboardStats describes the global partition.
func (h *Handler) GetLeaderboardStats(c *gin.Context) {
	stats, err := h.Leaderboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RebuildLeaderboard recomputes every rank in a partition from stored scores.
func (h *Handler) RebuildLeaderboard(c *gin.Context) {
	lbType := domain.LeaderboardType(c.DefaultQuery("type", string(domain.LeaderboardGlobal)))
	period := c.DefaultQuery("period", domain.GlobalPeriod)

	if err := h.Leaderboard.Rebuild(c.Request.Context(), lbType, period); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "rebuilt", "type": lbType, "period": period})
}
