package service

import (
	"context"
	"time"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"
	"learn_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// EligibilityChecker is the proof-of-knowledge gate consulted before a gated
// redemption request is created.
type EligibilityChecker interface {
	CanRedeemTokens(ctx context.Context, userID string) (*domain.Eligibility, error)
}

// RedemptionService drives the request workflow:
//
//	PENDING -> APPROVED -> COMPLETED
//	PENDING -> REJECTED
//
// The debit happens at approval, inside the same database transaction as the
// status change.
type RedemptionService struct {
	db          *pgxpool.Pool
	requests    *repository.RedemptionRepository
	ledger      *LedgerService
	eligibility EligibilityChecker
	txAttempts  int
}

func NewRedemptionService(db *pgxpool.Pool, ledger *LedgerService, eligibility EligibilityChecker) *RedemptionService {
	return &RedemptionService{
		db:          db,
		requests:    repository.NewRedemptionRepository(db),
		ledger:      ledger,
		eligibility: eligibility,
		txAttempts:  defaultTxAttempts,
	}
}

// Request creates a PENDING redemption after a read-only balance check. The
// balance is not debited yet; a race between request and approval is handled
// at approval time.
func (s *RedemptionService) Request(ctx context.Context, userID string, amount decimal.Decimal, rType domain.RedemptionType, meta map[string]interface{}) (*domain.RedemptionRequest, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	balance, err := s.ledger.GetOrCreateBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance.Balance.LessThan(amount) {
		return nil, &domain.InsufficientBalanceError{UserID: userID, Balance: balance.Balance, Required: amount}
	}

	req := &domain.RedemptionRequest{
		UserID: userID,
		Amount: amount,
		Type:   rType,
		Status: domain.RedemptionPending,
		Meta:   meta,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	RedemptionTransitions.WithLabelValues(string(domain.RedemptionPending)).Inc()
	logger.Info("redemption requested", "user_id", userID, "request_id", req.ID, "amount", amount.String(), "type", rType)
	return req, nil
}

// RequestGated is Request behind the proof-of-knowledge gate: an ineligible
// user gets NotEligible with the validator's reasons and no row is created.
func (s *RedemptionService) RequestGated(ctx context.Context, userID string, amount decimal.Decimal, rType domain.RedemptionType, meta map[string]interface{}) (*domain.RedemptionRequest, error) {
	elig, err := s.eligibility.CanRedeemTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !elig.CanRedeem {
		return nil, &domain.NotEligibleError{
			UserID:           userID,
			CompletedCourses: elig.CompletedCourses,
			Reasons:          elig.Errors,
		}
	}
	return s.Request(ctx, userID, amount, rType, meta)
}

// Approve debits the stored amount and moves a PENDING request to APPROVED.
// If the balance dropped since the request was made, the debit fails with
// InsufficientBalance and the request stays PENDING.
func (s *RedemptionService) Approve(ctx context.Context, requestID int64) (*domain.RedemptionRequest, error) {
	var req *domain.RedemptionRequest
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		var err error
		req, err = s.requests.LockTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RedemptionPending {
			return &domain.InvalidTransitionError{From: req.Status, To: domain.RedemptionApproved}
		}

		debitMeta := map[string]interface{}{
			"redemption_request_id": req.ID,
			"redemption_type":       string(req.Type),
		}
		if _, err := s.ledger.RedeemDebitTx(ctx, tx, req.UserID, req.Amount, "redemption:"+string(req.Type), debitMeta); err != nil {
			return err
		}

		if err := s.requests.UpdateStatusTx(ctx, tx, req.ID, domain.RedemptionPending, domain.RedemptionApproved); err != nil {
			return err
		}
		req.Status = domain.RedemptionApproved
		return nil
	})
	if err != nil {
		return nil, err
	}

	RedemptionTransitions.WithLabelValues(string(domain.RedemptionApproved)).Inc()
	logger.Info("redemption approved", "request_id", requestID, "user_id", req.UserID)
	return req, nil
}

// Complete stamps completed_at and moves an APPROVED request to COMPLETED.
// Fulfillment happened outside the ledger; no balance effect here.
func (s *RedemptionService) Complete(ctx context.Context, requestID int64) (*domain.RedemptionRequest, error) {
	var req *domain.RedemptionRequest
	now := time.Now()
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		var err error
		req, err = s.requests.LockTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RedemptionApproved {
			return &domain.InvalidTransitionError{From: req.Status, To: domain.RedemptionCompleted}
		}

		if err := s.requests.MarkCompletedTx(ctx, tx, req.ID, now); err != nil {
			return err
		}
		req.Status = domain.RedemptionCompleted
		req.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	RedemptionTransitions.WithLabelValues(string(domain.RedemptionCompleted)).Inc()
	logger.Info("redemption completed", "request_id", requestID, "user_id", req.UserID)
	return req, nil
}

// Reject moves a PENDING request to REJECTED, recording the reason. No debit
// ever happened, so there is no ledger effect.
func (s *RedemptionService) Reject(ctx context.Context, requestID int64, reason string) (*domain.RedemptionRequest, error) {
	var req *domain.RedemptionRequest
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		var err error
		req, err = s.requests.LockTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RedemptionPending {
			return &domain.InvalidTransitionError{From: req.Status, To: domain.RedemptionRejected}
		}

		if req.Meta == nil {
			req.Meta = make(map[string]interface{})
		}
		req.Meta["rejectionReason"] = reason
		if err := s.requests.SetMetaTx(ctx, tx, req.ID, req.Meta); err != nil {
			return err
		}

		if err := s.requests.UpdateStatusTx(ctx, tx, req.ID, domain.RedemptionPending, domain.RedemptionRejected); err != nil {
			return err
		}
		req.Status = domain.RedemptionRejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	RedemptionTransitions.WithLabelValues(string(domain.RedemptionRejected)).Inc()
	logger.Info("redemption rejected", "request_id", requestID, "user_id", req.UserID, "reason", reason)
	return req, nil
}

// ByID retrieves a request.
func (s *RedemptionService) ByID(ctx context.Context, requestID int64) (*domain.RedemptionRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

// ByUser lists a user's requests newest-first, optionally filtered by status.
func (s *RedemptionService) ByUser(ctx context.Context, userID string, status *domain.RedemptionStatus, page, pageSize int) ([]domain.RedemptionRequest, error) {
	return s.requests.ListByUser(ctx, userID, status, page, pageSize)
}

// Pending lists the oldest pending requests.
func (s *RedemptionService) Pending(ctx context.Context, limit int) ([]domain.RedemptionRequest, error) {
	return s.requests.ListPending(ctx, limit)
}

// Stats aggregates the request table.
func (s *RedemptionService) Stats(ctx context.Context) (*domain.RedemptionStats, error) {
	return s.requests.Stats(ctx)
}
