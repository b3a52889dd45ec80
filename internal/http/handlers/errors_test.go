package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"learn_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

func TestErrorResponseCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"insufficient balance sentinel", domain.ErrInsufficientBalance, http.StatusConflict, "INSUFFICIENT_BALANCE"},
		{"invalid transition sentinel", domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"not eligible sentinel", domain.ErrNotEligible, http.StatusForbidden, "NOT_ELIGIBLE"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"certificate expired", domain.ErrCertificateExpired, http.StatusGone, "CERTIFICATE_EXPIRED"},
		{"certificate mismatch", domain.ErrCertificateMismatch, http.StatusConflict, "CERTIFICATE_MISMATCH"},
		{"storage conflict", domain.ErrStorageConflict, http.StatusServiceUnavailable, "STORAGE_CONFLICT"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
		{"wrapped not found", fmt.Errorf("lookup: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
	}

	for _, c := range cases {
		status, body := errorResponse(c.err)
		if status != c.wantStatus {
			t.Errorf("%s: status = %d, want %d", c.name, status, c.wantStatus)
		}
		if body["code"] != c.wantCode {
			t.Errorf("%s: code = %v, want %s", c.name, body["code"], c.wantCode)
		}
	}
}

func TestErrorResponseInsufficientBalanceDetail(t *testing.T) {
	err := &domain.InsufficientBalanceError{
		UserID:   "u1",
		Balance:  decimal.NewFromInt(30),
		Required: decimal.NewFromInt(50),
	}

	status, body := errorResponse(err)
	if status != http.StatusConflict {
		t.Fatalf("status = %d", status)
	}
	if body["balance"] != "30" || body["required"] != "50" {
		t.Errorf("quantities missing from body: %v", body)
	}
}

func TestErrorResponseTransitionDetail(t *testing.T) {
	err := &domain.InvalidTransitionError{From: domain.RedemptionCompleted, To: domain.RedemptionApproved}

	status, body := errorResponse(err)
	if status != http.StatusConflict {
		t.Fatalf("status = %d", status)
	}
	if body["from"] != "COMPLETED" || body["to"] != "APPROVED" {
		t.Errorf("states missing from body: %v", body)
	}
}

func TestErrorResponseNotEligibleDetail(t *testing.T) {
	err := &domain.NotEligibleError{
		UserID:           "u1",
		CompletedCourses: 0,
		Reasons:          []string{"No completed courses found. Complete at least one course to redeem tokens."},
	}

	status, body := errorResponse(err)
	if status != http.StatusForbidden {
		t.Fatalf("status = %d", status)
	}
	reasons, ok := body["reasons"].([]string)
	if !ok || len(reasons) != 1 {
		t.Errorf("reasons missing from body: %v", body)
	}
	if body["completed_courses"] != 0 {
		t.Errorf("completed_courses = %v", body["completed_courses"])
	}
}

func TestErrorResponseDoesNotLeakInternals(t *testing.T) {
	_, body := errorResponse(errors.New("pq: password authentication failed"))
	if body["error"] != "internal error" {
		t.Errorf("internal detail leaked: %v", body)
	}
}
