package service

import (
	"context"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"

	"github.com/shopspring/decimal"
)

// RewardService ties the pipeline together when the catalog reports a course
// completion: certificate issuance, the EARN award, and the global
// leaderboard bump. The leaderboard update is deliberately outside the award
// transaction; a stale rank until the next recomputation is acceptable.
type RewardService struct {
	ledger      *LedgerService
	validator   *ProofValidator
	leaderboard *LeaderboardService
	reward      decimal.Decimal
}

func NewRewardService(ledger *LedgerService, validator *ProofValidator, leaderboard *LeaderboardService, reward decimal.Decimal) *RewardService {
	if reward.LessThanOrEqual(decimal.Zero) {
		reward = decimal.NewFromInt(100)
	}
	return &RewardService{
		ledger:      ledger,
		validator:   validator,
		leaderboard: leaderboard,
		reward:      reward,
	}
}

// CompletionResult reports everything the completion pipeline produced.
type CompletionResult struct {
	Certificate *domain.Certificate `json:"certificate"`
	Award       *domain.Transaction `json:"award"`
}

// CourseCompleted processes a completion event from the catalog: validates
// it, issues or refreshes the certificate, awards completion tokens, and
// bumps the user's global score by the awarded amount.
func (s *RewardService) CourseCompleted(ctx context.Context, userID, courseID string) (*CompletionResult, error) {
	cert, err := s.validator.GenerateCertificate(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	award, err := s.ledger.Award(ctx, userID, s.reward, "course_completion", map[string]interface{}{
		"course_id":      courseID,
		"certificate_id": cert.CertificateID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.leaderboard.IncrementScore(ctx, userID, s.reward, domain.LeaderboardGlobal, domain.GlobalPeriod); err != nil {
		// tokens are already awarded; rank catches up on the next update
		logger.Error("leaderboard update failed after completion award", "user_id", userID, "error", err)
	}

	logger.Info("course completion rewarded", "user_id", userID, "course_id", courseID, "amount", s.reward.String())
	return &CompletionResult{Certificate: cert, Award: award}, nil
}
