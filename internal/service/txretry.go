package service

import (
	"context"
	"errors"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTxAttempts = 3

// inTx runs fn inside a database transaction, retrying a bounded number of
// times on serialization failures and deadlocks before surfacing
// ErrStorageConflict. Any other error aborts immediately.
func inTx(ctx context.Context, db *pgxpool.Pool, attempts int, fn func(pgx.Tx) error) error {
	if attempts <= 0 {
		attempts = defaultTxAttempts
	}

	for i := 0; i < attempts; i++ {
		err := runOnce(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		logger.Warn("transaction conflict, retrying", "attempt", i+1, "error", err)
	}
	return domain.ErrStorageConflict
}

func runOnce(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// isRetryable matches Postgres serialization_failure and deadlock_detected.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
