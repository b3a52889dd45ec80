package handlers

import (
	"learn_ledger/internal/config"
	"learn_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type Handler struct {
	DB          *pgxpool.Pool
	Ledger      *service.LedgerService
	Redemptions *service.RedemptionService
	Validator   *service.ProofValidator
	Leaderboard *service.LeaderboardService
	Rewards     *service.RewardService
}

func NewHandler(db *pgxpool.Pool, cache *redis.Client, cfg *config.Config) *Handler {
	ledger := service.NewLedgerServiceWithRetries(db, cfg.TxRetryAttempts)
	validator := service.NewProofValidator(db, cfg.CertValidity)
	leaderboard := service.NewLeaderboardService(db, cache)

	return &Handler{
		DB:          db,
		Ledger:      ledger,
		Redemptions: service.NewRedemptionService(db, ledger, validator),
		Validator:   validator,
		Leaderboard: leaderboard,
		Rewards:     service.NewRewardService(ledger, validator, leaderboard, decimal.NewFromInt(cfg.CompletionReward)),
	}
}

// getUserID reads the authenticated user id placed by the JWT middleware.
func getUserID(c *gin.Context) (string, bool) {
	val, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
