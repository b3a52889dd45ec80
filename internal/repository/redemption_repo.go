package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learn_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RedemptionRepository struct {
	db *pgxpool.Pool
}

func NewRedemptionRepository(db *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// Create inserts a new PENDING redemption request.
func (r *RedemptionRepository) Create(ctx context.Context, req *domain.RedemptionRequest) error {
	metaJSON, err := json.Marshal(req.Meta)
	if err != nil {
		return fmt.Errorf("marshal redemption meta: %w", err)
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO redemption_requests (user_id, amount, type, status, meta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, req.UserID, req.Amount, req.Type, req.Status, metaJSON).Scan(&req.ID, &req.CreatedAt)
}

// GetByID retrieves a request by ID.
func (r *RedemptionRepository) GetByID(ctx context.Context, id int64) (*domain.RedemptionRequest, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, amount, type, status, meta, created_at, completed_at
		FROM redemption_requests
		WHERE id = $1
	`, id)
	return scanRedemption(row)
}

// LockTx locks a request row for a workflow transition.
func (r *RedemptionRepository) LockTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.RedemptionRequest, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, user_id, amount, type, status, meta, created_at, completed_at
		FROM redemption_requests
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanRedemption(row)
}

// UpdateStatusTx moves a request from one status to another inside tx. The
// WHERE clause re-checks the source status so a concurrent transition cannot
// be overwritten.
func (r *RedemptionRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, from, to domain.RedemptionStatus) error {
	result, err := tx.Exec(ctx, `
		UPDATE redemption_requests SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// MarkCompletedTx stamps completed_at together with the COMPLETED status.
func (r *RedemptionRepository) MarkCompletedTx(ctx context.Context, tx pgx.Tx, id int64, at time.Time) error {
	result, err := tx.Exec(ctx, `
		UPDATE redemption_requests SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
	`, id, domain.RedemptionCompleted, at, domain.RedemptionApproved)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// SetMetaTx rewrites the request meta (used to store a rejection reason).
func (r *RedemptionRepository) SetMetaTx(ctx context.Context, tx pgx.Tx, id int64, meta map[string]interface{}) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE redemption_requests SET meta = $2 WHERE id = $1`, id, metaJSON)
	return err
}

// ListByUser returns a user's requests newest-first, optionally filtered by
// status.
func (r *RedemptionRepository) ListByUser(ctx context.Context, userID string, status *domain.RedemptionStatus, page, pageSize int) ([]domain.RedemptionRequest, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page < 1 {
		page = 1
	}

	query := `
		SELECT id, user_id, amount, type, status, meta, created_at, completed_at
		FROM redemption_requests
		WHERE user_id = $1`
	args := []interface{}{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	args = append(args, pageSize, (page-1)*pageSize)
	if status != nil {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRedemptions(rows)
}

// ListPending returns the oldest pending requests awaiting review.
func (r *RedemptionRepository) ListPending(ctx context.Context, limit int) ([]domain.RedemptionRequest, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, type, status, meta, created_at, completed_at
		FROM redemption_requests
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRedemptions(rows)
}

// Stats aggregates counts per status and type plus the total COMPLETED amount.
func (r *RedemptionRepository) Stats(ctx context.Context) (*domain.RedemptionStats, error) {
	stats := &domain.RedemptionStats{
		ByStatus: make(map[domain.RedemptionStatus]int64),
		ByType:   make(map[domain.RedemptionType]int64),
	}

	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*) FROM redemption_requests GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.RedemptionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := r.db.Query(ctx, `
		SELECT type, COUNT(*) FROM redemption_requests GROUP BY type
	`)
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var rType domain.RedemptionType
		var count int64
		if err := typeRows.Scan(&rType, &count); err != nil {
			return nil, err
		}
		stats.ByType[rType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM redemption_requests WHERE status = 'COMPLETED'
	`).Scan(&stats.TotalCompleted)
	return stats, err
}

func scanRedemption(row pgx.Row) (*domain.RedemptionRequest, error) {
	var req domain.RedemptionRequest
	var metaJSON []byte
	var completedAt *time.Time

	if err := row.Scan(
		&req.ID, &req.UserID, &req.Amount, &req.Type, &req.Status,
		&metaJSON, &req.CreatedAt, &completedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &req.Meta)
	}
	req.CompletedAt = completedAt

	return &req, nil
}

func scanRedemptions(rows pgx.Rows) ([]domain.RedemptionRequest, error) {
	var requests []domain.RedemptionRequest

	for rows.Next() {
		var req domain.RedemptionRequest
		var metaJSON []byte
		var completedAt *time.Time

		if err := rows.Scan(
			&req.ID, &req.UserID, &req.Amount, &req.Type, &req.Status,
			&metaJSON, &req.CreatedAt, &completedAt,
		); err != nil {
			return nil, err
		}

		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &req.Meta)
		}
		req.CompletedAt = completedAt

		requests = append(requests, req)
	}

	return requests, rows.Err()
}
