package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"learn_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

func newRedemptionFixture(t *testing.T) (*LedgerService, *RedemptionService, string) {
	t.Helper()
	db := testPool(t)
	ledger := NewLedgerService(db)
	validator := NewProofValidator(db, 0)
	svc := NewRedemptionService(db, ledger, validator)
	return ledger, svc, testUserID("redeem")
}

func TestRedemptionHappyPath(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(200), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	req, err := svc.Request(ctx, userID, decimal.NewFromInt(150), domain.RedemptionFeatureUnlock, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != domain.RedemptionPending {
		t.Fatalf("status = %s, want PENDING", req.Status)
	}

	// request alone does not touch the balance
	balance, _ := ledger.GetOrCreateBalance(ctx, userID)
	if !balance.Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("balance after request = %s, want 200", balance.Balance)
	}

	approved, err := svc.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.RedemptionApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}

	// debit happened at approval
	balance, _ = ledger.GetOrCreateBalance(ctx, userID)
	if !balance.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance after approval = %s, want 50", balance.Balance)
	}

	history, err := ledger.History(ctx, userID, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history[0].Kind != domain.KindRedeem {
		t.Errorf("latest entry kind = %s, want REDEEM", history[0].Kind)
	}

	completed, err := svc.Complete(ctx, req.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.RedemptionCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}

	// completion has no further balance effect
	balance, _ = ledger.GetOrCreateBalance(ctx, userID)
	if !balance.Balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance after completion = %s, want 50", balance.Balance)
	}
}

func TestRedemptionReject(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(100), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	req, err := svc.Request(ctx, userID, decimal.NewFromInt(60), domain.RedemptionMerchandise, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	rejected, err := svc.Reject(ctx, req.ID, "out of stock")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.RedemptionRejected {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	if rejected.Meta["rejectionReason"] != "out of stock" {
		t.Errorf("rejection reason not recorded: %v", rejected.Meta)
	}

	// no debit ever happened
	balance, _ := ledger.GetOrCreateBalance(ctx, userID)
	if !balance.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100", balance.Balance)
	}

	// terminal: cannot approve a rejected request
	if _, err := svc.Approve(ctx, req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("approve rejected: err = %v, want ErrInvalidTransition", err)
	}
}

func TestRedemptionInvalidTransitions(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(100), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	req, err := svc.Request(ctx, userID, decimal.NewFromInt(10), domain.RedemptionDonation, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// PENDING cannot complete
	if _, err := svc.Complete(ctx, req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("complete pending: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Approve(ctx, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// APPROVED cannot be approved again or rejected
	if _, err := svc.Approve(ctx, req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("double approve: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.Reject(ctx, req.ID, "nope"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("reject approved: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Complete(ctx, req.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// COMPLETED is terminal
	if _, err := svc.Complete(ctx, req.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("double complete: err = %v, want ErrInvalidTransition", err)
	}
}

func TestRedemptionApproveAfterBalanceDrop(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(100), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	req, err := svc.Request(ctx, userID, decimal.NewFromInt(80), domain.RedemptionPremiumContent, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// balance drops between request and approval
	if _, err := ledger.Penalty(ctx, userID, decimal.NewFromInt(50), "violation"); err != nil {
		t.Fatalf("penalty: %v", err)
	}

	if _, err := svc.Approve(ctx, req.ID); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// request is still pending and can succeed later
	got, err := svc.ByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.RedemptionPending {
		t.Errorf("status = %s, want PENDING", got.Status)
	}

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(40), "topup", nil); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := svc.Approve(ctx, req.ID); err != nil {
		t.Errorf("approve after topup: %v", err)
	}
}

// Concurrent approvals of one request: the row lock serializes them, exactly
// one wins, the losers see a non-PENDING status, and the debit happens once.
func TestRedemptionConcurrentApprovals(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(100), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	req, err := svc.Request(ctx, userID, decimal.NewFromInt(40), domain.RedemptionFeatureUnlock, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	const racers = 5
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Approve(ctx, req.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	approved, invalid := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			approved++
		case errors.Is(err, domain.ErrInvalidTransition):
			invalid++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if approved != 1 {
		t.Errorf("approved = %d, want exactly 1", approved)
	}
	if invalid != racers-1 {
		t.Errorf("invalid transitions = %d, want %d", invalid, racers-1)
	}

	// debited exactly once
	balance, err := ledger.GetOrCreateBalance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("balance = %s, want 60", balance.Balance)
	}

	got, err := svc.ByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.RedemptionApproved {
		t.Errorf("status = %s, want APPROVED", got.Status)
	}
}

func TestRedemptionRequestOverBalance(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(10), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := svc.Request(ctx, userID, decimal.NewFromInt(11), domain.RedemptionDonation, nil); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestRedemptionGateBlocksWithoutProof(t *testing.T) {
	ledger, svc, userID := newRedemptionFixture(t)
	ctx := context.Background()

	if _, err := ledger.Award(ctx, userID, decimal.NewFromInt(100), "seed", nil); err != nil {
		t.Fatalf("award: %v", err)
	}

	_, err := svc.RequestGated(ctx, userID, decimal.NewFromInt(10), domain.RedemptionDonation, nil)
	if !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible", err)
	}

	var ne *domain.NotEligibleError
	if !errors.As(err, &ne) {
		t.Fatal("expected structured NotEligibleError")
	}
	if len(ne.Reasons) == 0 {
		t.Error("reasons should explain the refusal")
	}

	// no request row was created
	requests, err := svc.ByUser(ctx, userID, nil, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 0 {
		t.Errorf("requests = %d, want 0", len(requests))
	}
}
