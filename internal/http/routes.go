package http

import (
	"learn_ledger/internal/config"
	"learn_ledger/internal/http/handlers"
	"learn_ledger/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cache *redis.Client, cfg *config.Config, version string) {
	h := handlers.NewHandler(db, cache, cfg)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks and metrics (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	// Public certificate verification: anyone holding the certificate fields
	// can confirm it is genuine.
	v1.POST("/certificates/verify", h.VerifyCertificate)

	auth := v1.Group("")
	auth.Use(middleware.JWT())

	// Ledger
	auth.GET("/balance", h.GetBalance)
	auth.GET("/transactions", h.GetHistory)
	auth.POST("/tokens/award", h.Award)
	auth.POST("/tokens/bonus", h.Bonus)
	auth.POST("/tokens/penalty", h.Penalty)
	auth.POST("/tokens/transfer", h.Transfer)

	// Redemption workflow. The review queue and stats live under /admin so
	// static segments never share a level with :id.
	auth.POST("/redemptions", h.CreateRedemption)
	auth.GET("/redemptions", h.ListRedemptions)
	auth.GET("/redemptions/:id", h.GetRedemption)
	auth.POST("/redemptions/:id/approve", h.ApproveRedemption)
	auth.POST("/redemptions/:id/complete", h.CompleteRedemption)
	auth.POST("/redemptions/:id/reject", h.RejectRedemption)
	auth.GET("/admin/redemptions/pending", h.ListPendingRedemptions)
	auth.GET("/admin/redemptions/stats", h.RedemptionStats)

	// Proof of knowledge
	auth.GET("/eligibility", h.GetEligibility)
	auth.GET("/proofs", h.ListProofs)
	auth.GET("/proofs/stats", h.ProofStats)
	auth.GET("/completions", h.ListCompletionStatuses)
	auth.GET("/courses/:courseId/status", h.GetCompletionStatus)
	auth.GET("/courses/:courseId/validate", h.ValidateCompletion)
	auth.POST("/courses/:courseId/certificate", h.GenerateCertificate)
	auth.POST("/courses/:courseId/completed", h.CourseCompleted)

	// Leaderboards
	auth.GET("/leaderboard/global", h.GetGlobalLeaderboard)
	auth.GET("/leaderboard/friends", h.GetFriendsLeaderboard)
	auth.GET("/leaderboard/class/:classId", h.GetClassLeaderboard)
	auth.GET("/leaderboard/me", h.GetMyRank)
	auth.GET("/leaderboard/stats", h.GetLeaderboardStats)
	auth.POST("/leaderboard/rebuild", h.RebuildLeaderboard)
}
