package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the expected, caller-recoverable failure conditions.
// Callers match with errors.Is; the richer error types below carry the
// quantities needed for actionable messages and still match their sentinel.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid redemption state transition")
	ErrNotEligible         = errors.New("not eligible to redeem tokens")
	ErrNotFound            = errors.New("not found")
	ErrCertificateExpired  = errors.New("certificate has expired")
	ErrCertificateMismatch = errors.New("certificate verification hash mismatch")
	ErrStorageConflict     = errors.New("storage conflict, retries exhausted")
)

// InsufficientBalanceError reports how short the balance is.
type InsufficientBalanceError struct {
	UserID   string
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Balance, e.Required)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// InvalidTransitionError names the current and requested workflow states.
type InvalidTransitionError struct {
	From RedemptionStatus
	To   RedemptionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NotEligibleError carries the validator's human-readable reasons.
type NotEligibleError struct {
	UserID           string
	CompletedCourses int
	Reasons          []string
}

func (e *NotEligibleError) Error() string {
	return "not eligible to redeem tokens: " + strings.Join(e.Reasons, "; ")
}

func (e *NotEligibleError) Is(target error) bool {
	return target == ErrNotEligible
}
