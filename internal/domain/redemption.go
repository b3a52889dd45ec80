package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RedemptionStatus is the workflow state of a redemption request.
//
//	PENDING --approve--> APPROVED --complete--> COMPLETED
//	PENDING --reject---> REJECTED
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "PENDING"
	RedemptionApproved  RedemptionStatus = "APPROVED"
	RedemptionRejected  RedemptionStatus = "REJECTED"
	RedemptionCompleted RedemptionStatus = "COMPLETED"
)

// RedemptionType is what the tokens are being spent on.
type RedemptionType string

const (
	RedemptionFeatureUnlock  RedemptionType = "FEATURE_UNLOCK"
	RedemptionPremiumContent RedemptionType = "PREMIUM_CONTENT"
	RedemptionMerchandise    RedemptionType = "MERCHANDISE"
	RedemptionDonation       RedemptionType = "DONATION"
)

// Known reports whether t is one of the supported redemption types.
func (t RedemptionType) Known() bool {
	switch t {
	case RedemptionFeatureUnlock, RedemptionPremiumContent, RedemptionMerchandise, RedemptionDonation:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal workflow step.
// COMPLETED and REJECTED are terminal.
func (s RedemptionStatus) CanTransition(next RedemptionStatus) bool {
	switch s {
	case RedemptionPending:
		return next == RedemptionApproved || next == RedemptionRejected
	case RedemptionApproved:
		return next == RedemptionCompleted
	default:
		return false
	}
}

// RedemptionRequest is kept forever for audit; only its status, completed_at
// and meta change, and only through the workflow transitions.
type RedemptionRequest struct {
	ID          int64                  `db:"id" json:"id"`
	UserID      string                 `db:"user_id" json:"user_id"`
	Amount      decimal.Decimal        `db:"amount" json:"amount"`
	Type        RedemptionType         `db:"type" json:"type"`
	Status      RedemptionStatus       `db:"status" json:"status"`
	Meta        map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	CompletedAt *time.Time             `db:"completed_at" json:"completed_at,omitempty"`
}

// RedemptionStats aggregates the request table for reporting.
type RedemptionStats struct {
	ByStatus       map[RedemptionStatus]int64 `json:"by_status"`
	ByType         map[RedemptionType]int64   `json:"by_type"`
	TotalCompleted decimal.Decimal            `json:"total_completed"`
}
