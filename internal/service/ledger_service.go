package service

import (
	"context"
	"errors"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"
	"learn_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerService owns all balance mutations. Every mutating operation runs as
// one atomic unit: lock the balance row, validate, write the new balance,
// append the transaction with its resulting balance snapshot.
type LedgerService struct {
	db           *pgxpool.Pool
	balances     *repository.BalanceRepository
	transactions *repository.TransactionRepository
	txAttempts   int
}

func NewLedgerService(db *pgxpool.Pool) *LedgerService {
	return NewLedgerServiceWithRetries(db, defaultTxAttempts)
}

func NewLedgerServiceWithRetries(db *pgxpool.Pool, txAttempts int) *LedgerService {
	return &LedgerService{
		db:           db,
		balances:     repository.NewBalanceRepository(db),
		transactions: repository.NewTransactionRepository(db),
		txAttempts:   txAttempts,
	}
}

// GetOrCreateBalance returns the user's balance, creating a zero balance on
// first activity.
func (s *LedgerService) GetOrCreateBalance(ctx context.Context, userID string) (*domain.Balance, error) {
	return s.balances.GetOrCreate(ctx, userID)
}

// Award credits tokens and appends an EARN transaction.
func (s *LedgerService) Award(ctx context.Context, userID string, amount decimal.Decimal, reason string, meta map[string]interface{}) (*domain.Transaction, error) {
	return s.credit(ctx, userID, amount, domain.KindEarn, reason, meta)
}

// Bonus credits tokens and appends a BONUS transaction.
func (s *LedgerService) Bonus(ctx context.Context, userID string, amount decimal.Decimal, reason string) (*domain.Transaction, error) {
	return s.credit(ctx, userID, amount, domain.KindBonus, reason, nil)
}

// RedeemDebit debits tokens and appends a REDEEM transaction. Fails with
// InsufficientBalance when the balance cannot cover the amount.
func (s *LedgerService) RedeemDebit(ctx context.Context, userID string, amount decimal.Decimal, reason string, meta map[string]interface{}) (*domain.Transaction, error) {
	return s.debit(ctx, userID, amount, domain.KindRedeem, reason, meta)
}

// Penalty debits tokens and appends a PENALTY transaction. A penalty may
// drive the balance to exactly zero but never below; exceeding the balance
// fails the same way a redeem does.
func (s *LedgerService) Penalty(ctx context.Context, userID string, amount decimal.Decimal, reason string) (*domain.Transaction, error) {
	return s.debit(ctx, userID, amount, domain.KindPenalty, reason, nil)
}

// History returns the user's transactions newest-first.
func (s *LedgerService) History(ctx context.Context, userID string, page, pageSize int) ([]*domain.Transaction, error) {
	return s.transactions.ListByUser(ctx, userID, page, pageSize)
}

func (s *LedgerService) credit(ctx context.Context, userID string, amount decimal.Decimal, kind domain.TransactionKind, reason string, meta map[string]interface{}) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	var entry *domain.Transaction
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		balance, err := s.balances.LockTx(ctx, tx, userID)
		if err != nil {
			return err
		}

		newBalance := balance.Add(amount)
		if err := s.balances.SetTx(ctx, tx, userID, newBalance); err != nil {
			return err
		}

		entry = &domain.Transaction{
			UserID:           userID,
			Kind:             kind,
			Amount:           amount,
			Reason:           reason,
			ResultingBalance: newBalance,
			Meta:             meta,
		}
		return s.transactions.CreateTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	TxTotal.WithLabelValues(string(kind)).Inc()
	logger.Info("ledger credit", "user_id", userID, "kind", kind, "amount", amount.String())
	return entry, nil
}

func (s *LedgerService) debit(ctx context.Context, userID string, amount decimal.Decimal, kind domain.TransactionKind, reason string, meta map[string]interface{}) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	var entry *domain.Transaction
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		var err error
		entry, err = s.debitTx(ctx, tx, userID, amount, kind, reason, meta)
		return err
	})
	if err != nil {
		return nil, err
	}

	TxTotal.WithLabelValues(string(kind)).Inc()
	logger.Info("ledger debit", "user_id", userID, "kind", kind, "amount", amount.String())
	return entry, nil
}

// RedeemDebitTx performs the redeem debit inside an existing transaction, so
// the redemption workflow can change request status and spend the balance as
// a single unit.
func (s *LedgerService) RedeemDebitTx(ctx context.Context, tx pgx.Tx, userID string, amount decimal.Decimal, reason string, meta map[string]interface{}) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	entry, err := s.debitTx(ctx, tx, userID, amount, domain.KindRedeem, reason, meta)
	if err != nil {
		return nil, err
	}
	TxTotal.WithLabelValues(string(domain.KindRedeem)).Inc()
	return entry, nil
}

func (s *LedgerService) debitTx(ctx context.Context, tx pgx.Tx, userID string, amount decimal.Decimal, kind domain.TransactionKind, reason string, meta map[string]interface{}) (*domain.Transaction, error) {
	balance, err := s.balances.LockTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if balance.LessThan(amount) {
		return nil, &domain.InsufficientBalanceError{UserID: userID, Balance: balance, Required: amount}
	}

	newBalance := balance.Sub(amount)
	if err := s.balances.SetTx(ctx, tx, userID, newBalance); err != nil {
		return nil, err
	}

	entry := &domain.Transaction{
		UserID:           userID,
		Kind:             kind,
		Amount:           amount.Neg(),
		Reason:           reason,
		ResultingBalance: newBalance,
		Meta:             meta,
	}
	if err := s.transactions.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Transfer moves tokens between two users as a single unit: both transaction
// rows become visible together or not at all. Rows are locked in lexical
// user-id order regardless of direction to avoid deadlocks.
func (s *LedgerService) Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, reason string) (*domain.Transaction, *domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, domain.ErrInvalidAmount
	}
	if fromUserID == toUserID {
		return nil, nil, errors.New("cannot transfer to self")
	}

	var debitEntry, creditEntry *domain.Transaction
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		firstID, secondID := fromUserID, toUserID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}

		balance1, err := s.balances.LockTx(ctx, tx, firstID)
		if err != nil {
			return err
		}
		balance2, err := s.balances.LockTx(ctx, tx, secondID)
		if err != nil {
			return err
		}

		senderBalance, receiverBalance := balance1, balance2
		if fromUserID != firstID {
			senderBalance, receiverBalance = balance2, balance1
		}

		if senderBalance.LessThan(amount) {
			return &domain.InsufficientBalanceError{UserID: fromUserID, Balance: senderBalance, Required: amount}
		}

		newSender := senderBalance.Sub(amount)
		newReceiver := receiverBalance.Add(amount)

		if err := s.balances.SetTx(ctx, tx, fromUserID, newSender); err != nil {
			return err
		}
		if err := s.balances.SetTx(ctx, tx, toUserID, newReceiver); err != nil {
			return err
		}

		debitEntry = &domain.Transaction{
			UserID:           fromUserID,
			Kind:             domain.KindTransfer,
			Amount:           amount.Neg(),
			Reason:           reason,
			ResultingBalance: newSender,
			Meta:             map[string]interface{}{"to_user_id": toUserID},
		}
		if err := s.transactions.CreateTx(ctx, tx, debitEntry); err != nil {
			return err
		}

		creditEntry = &domain.Transaction{
			UserID:           toUserID,
			Kind:             domain.KindTransfer,
			Amount:           amount,
			Reason:           reason,
			ResultingBalance: newReceiver,
			Meta:             map[string]interface{}{"from_user_id": fromUserID},
		}
		return s.transactions.CreateTx(ctx, tx, creditEntry)
	})
	if err != nil {
		return nil, nil, err
	}

	TxTotal.WithLabelValues(string(domain.KindTransfer)).Add(2)
	logger.Info("ledger transfer", "from", fromUserID, "to", toUserID, "amount", amount.String())
	return debitEntry, creditEntry, nil
}
