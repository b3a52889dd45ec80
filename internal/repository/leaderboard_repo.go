package repository

import (
	"context"
	"errors"

	"learn_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LeaderboardRepository struct {
	db *pgxpool.Pool
}

func NewLeaderboardRepository(db *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// UpsertScoreTx writes the entry's score, creating the entry on first update.
// Rank is left untouched here; the caller recomputes it for the partition.
func (r *LeaderboardRepository) UpsertScoreTx(ctx context.Context, tx pgx.Tx, userID string, lbType domain.LeaderboardType, period string, score decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO leaderboard_entries (user_id, leaderboard_type, period, score, rank)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (user_id, leaderboard_type, period) DO UPDATE SET
			score = EXCLUDED.score,
			updated_at = now()
	`, userID, lbType, period, score)
	return err
}

// LockPartitionTx reads the whole partition under row locks, ordered by the
// ranking rule: score descending, ties broken earliest-created-first. The
// caller rewrites ranks from this one consistent snapshot.
func (r *LeaderboardRepository) LockPartitionTx(ctx context.Context, tx pgx.Tx, lbType domain.LeaderboardType, period string) ([]domain.LeaderboardEntry, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, user_id, leaderboard_type, period, score, rank, created_at, updated_at
		FROM leaderboard_entries
		WHERE leaderboard_type = $1 AND period = $2
		ORDER BY score DESC, created_at ASC, id ASC
		FOR UPDATE
	`, lbType, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// SetRankTx writes a recomputed rank.
func (r *LeaderboardRepository) SetRankTx(ctx context.Context, tx pgx.Tx, id int64, rank int) error {
	_, err := tx.Exec(ctx, `UPDATE leaderboard_entries SET rank = $2 WHERE id = $1`, id, rank)
	return err
}

// Top returns the partition's leading entries by ascending rank, with display
// names resolved where a profile exists.
func (r *LeaderboardRepository) Top(ctx context.Context, lbType domain.LeaderboardType, period string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.user_id, e.leaderboard_type, e.period, e.score, e.rank,
		       e.created_at, e.updated_at, COALESCE(p.display_name, e.user_id)
		FROM leaderboard_entries e
		LEFT JOIN user_profiles p ON p.user_id = e.user_id
		WHERE e.leaderboard_type = $1 AND e.period = $2
		ORDER BY e.rank ASC
		LIMIT $3
	`, lbType, period, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Period, &e.Score, &e.Rank,
			&e.CreatedAt, &e.UpdatedAt, &e.DisplayName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns a single user's entry in a partition.
func (r *LeaderboardRepository) GetEntry(ctx context.Context, userID string, lbType domain.LeaderboardType, period string) (*domain.LeaderboardEntry, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, leaderboard_type, period, score, rank, created_at, updated_at
		FROM leaderboard_entries
		WHERE user_id = $1 AND leaderboard_type = $2 AND period = $3
	`, userID, lbType, period)

	var e domain.LeaderboardEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.Type, &e.Period, &e.Score, &e.Rank,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// PartitionScores returns all scores of a partition in descending order.
func (r *LeaderboardRepository) PartitionScores(ctx context.Context, lbType domain.LeaderboardType, period string) ([]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT score FROM leaderboard_entries
		WHERE leaderboard_type = $1 AND period = $2
		ORDER BY score DESC
	`, lbType, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []decimal.Decimal
	for rows.Next() {
		var s decimal.Decimal
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

// CountPartition counts entries in a partition.
func (r *LeaderboardRepository) CountPartition(ctx context.Context, lbType domain.LeaderboardType, period string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM leaderboard_entries
		WHERE leaderboard_type = $1 AND period = $2
	`, lbType, period).Scan(&count)
	return count, err
}

func scanEntries(rows pgx.Rows) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Period, &e.Score, &e.Rank,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
