package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learn_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateTx appends a ledger entry using an existing database transaction.
// Entries are only ever written together with the balance update they
// describe, so there is no plain Create.
func (r *TransactionRepository) CreateTx(ctx context.Context, dbTx pgx.Tx, tx *domain.Transaction) error {
	metaJSON, err := json.Marshal(tx.Meta)
	if err != nil {
		return fmt.Errorf("marshal transaction meta: %w", err)
	}

	return dbTx.QueryRow(ctx,
		`INSERT INTO token_transactions (user_id, kind, amount, reason, resulting_balance, meta)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		tx.UserID, tx.Kind, tx.Amount, tx.Reason, tx.ResultingBalance, metaJSON,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// ListByUser returns transactions newest-first, paginated.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Transaction, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 1 {
		page = 1
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, kind, amount, reason, resulting_balance, meta, created_at
		 FROM token_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var (
			tx        domain.Transaction
			metaJSON  []byte
			createdAt time.Time
		)

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Kind, &tx.Amount, &tx.Reason,
			&tx.ResultingBalance, &metaJSON, &createdAt); err != nil {
			return nil, err
		}

		tx.CreatedAt = createdAt
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &tx.Meta)
		}

		result = append(result, &tx)
	}

	return result, rows.Err()
}
