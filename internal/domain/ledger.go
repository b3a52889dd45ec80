package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry by what caused it.
type TransactionKind string

const (
	KindEarn     TransactionKind = "EARN"
	KindRedeem   TransactionKind = "REDEEM"
	KindTransfer TransactionKind = "TRANSFER"
	KindBonus    TransactionKind = "BONUS"
	KindPenalty  TransactionKind = "PENALTY"
)

// Balance is the current spendable token total for a user.
// It is only ever mutated together with an appended Transaction row.
type Balance struct {
	UserID    string          `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is an immutable, signed ledger entry. Amount is negative for
// debits (REDEEM, PENALTY, outgoing TRANSFER) and positive otherwise.
// ResultingBalance snapshots the balance immediately after this entry.
type Transaction struct {
	ID               int64                  `db:"id" json:"id"`
	UserID           string                 `db:"user_id" json:"user_id"`
	Kind             TransactionKind        `db:"kind" json:"kind"`
	Amount           decimal.Decimal        `db:"amount" json:"amount"`
	Reason           string                 `db:"reason" json:"reason"`
	ResultingBalance decimal.Decimal        `db:"resulting_balance" json:"resulting_balance"`
	Meta             map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
}
