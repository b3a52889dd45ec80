package repository

import (
	"context"
	"errors"

	"learn_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BalanceRepository struct {
	db *pgxpool.Pool
}

func NewBalanceRepository(db *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetOrCreate returns the balance row for a user, creating a zero balance on
// first activity.
func (r *BalanceRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Balance, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO token_balances (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, balance, created_at, updated_at
	`, userID)

	var b domain.Balance
	if err := row.Scan(&b.UserID, &b.Balance, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get returns the balance row without creating it.
func (r *BalanceRepository) Get(ctx context.Context, userID string) (*domain.Balance, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, balance, created_at, updated_at
		FROM token_balances
		WHERE user_id = $1
	`, userID)

	var b domain.Balance
	if err := row.Scan(&b.UserID, &b.Balance, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// LockTx takes a row lock on the user's balance inside tx, creating the row
// first if it does not exist yet. Every mutating ledger operation goes
// through this lock so concurrent debits serialize per user.
func (r *BalanceRepository) LockTx(ctx context.Context, tx pgx.Tx, userID string) (decimal.Decimal, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO token_balances (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT balance FROM token_balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	return balance, err
}

// SetTx writes the new balance inside tx. The caller holds the row lock.
func (r *BalanceRepository) SetTx(ctx context.Context, tx pgx.Tx, userID string, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE token_balances SET balance = $2, updated_at = now() WHERE user_id = $1
	`, userID, balance)
	return err
}
