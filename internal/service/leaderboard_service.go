package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"
	"learn_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	cachedTopSize = 100
	cacheTTL      = 30 * time.Second
)

// LeaderboardService maintains score-ordered rank tables per (type, period)
// partition. A score update triggers a full rank recomputation of that exact
// partition inside one transaction; readers may briefly see stale ranks but
// never a partially rewritten partition.
type LeaderboardService struct {
	db         *pgxpool.Pool
	entries    *repository.LeaderboardRepository
	cache      *redis.Client
	txAttempts int
}

// NewLeaderboardService creates the ranker. cache may be nil; the service
// then reads straight from the store.
func NewLeaderboardService(db *pgxpool.Pool, cache *redis.Client) *LeaderboardService {
	return &LeaderboardService{
		db:         db,
		entries:    repository.NewLeaderboardRepository(db),
		cache:      cache,
		txAttempts: defaultTxAttempts,
	}
}

// UpdateScore upserts the entry's score and recomputes ranks for the
// partition. Ties break earliest-created-first.
func (s *LeaderboardService) UpdateScore(ctx context.Context, userID string, score decimal.Decimal, lbType domain.LeaderboardType, period string) error {
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		if err := s.entries.UpsertScoreTx(ctx, tx, userID, lbType, period, score); err != nil {
			return err
		}
		return s.recomputeTx(ctx, tx, lbType, period)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, lbType, period)
	return nil
}

// IncrementScore adds delta to the user's current score (zero when the user
// has no entry yet) and reranks.
func (s *LeaderboardService) IncrementScore(ctx context.Context, userID string, delta decimal.Decimal, lbType domain.LeaderboardType, period string) error {
	current := decimal.Zero
	entry, err := s.entries.GetEntry(ctx, userID, lbType, period)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if entry != nil {
		current = entry.Score
	}
	return s.UpdateScore(ctx, userID, current.Add(delta), lbType, period)
}

// Rebuild recomputes every rank in a partition from current scores.
func (s *LeaderboardService) Rebuild(ctx context.Context, lbType domain.LeaderboardType, period string) error {
	err := inTx(ctx, s.db, s.txAttempts, func(tx pgx.Tx) error {
		return s.recomputeTx(ctx, tx, lbType, period)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, lbType, period)
	return nil
}

func (s *LeaderboardService) recomputeTx(ctx context.Context, tx pgx.Tx, lbType domain.LeaderboardType, period string) error {
	entries, err := s.entries.LockPartitionTx(ctx, tx, lbType, period)
	if err != nil {
		return err
	}

	for i := range entries {
		rank := i + 1
		if entries[i].Rank == rank {
			continue
		}
		if err := s.entries.SetRankTx(ctx, tx, entries[i].ID, rank); err != nil {
			return err
		}
	}

	RankRecomputes.WithLabelValues(string(lbType)).Inc()
	logger.Debug("ranks recomputed", "type", lbType, "period", period, "entries", len(entries))
	return nil
}

// Global returns the global leaderboard's leading entries by ascending rank.
func (s *LeaderboardService) Global(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = cachedTopSize
	}

	if cached := s.cachedTop(ctx, domain.LeaderboardGlobal, domain.GlobalPeriod, limit); cached != nil {
		return cached, nil
	}

	entries, err := s.entries.Top(ctx, domain.LeaderboardGlobal, domain.GlobalPeriod, limit)
	if err != nil {
		return nil, err
	}
	s.storeTop(ctx, domain.LeaderboardGlobal, domain.GlobalPeriod, entries)
	return entries, nil
}

// Friends returns the caller's friends partition, keyed by the owner's user
// id as the period.
func (s *LeaderboardService) Friends(ctx context.Context, userID string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.entries.Top(ctx, domain.LeaderboardFriends, userID, limit)
}

// Class returns a class-scoped partition.
func (s *LeaderboardService) Class(ctx context.Context, classID string, limit int) ([]domain.LeaderboardEntry, error) {
	return s.entries.Top(ctx, domain.LeaderboardClass, classID, limit)
}

// UserRank returns a user's rank and score in a partition, or nil when the
// user has no entry there.
func (s *LeaderboardService) UserRank(ctx context.Context, userID string, lbType domain.LeaderboardType, period string) (*domain.RankInfo, error) {
	entry, err := s.entries.GetEntry(ctx, userID, lbType, period)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.RankInfo{Rank: entry.Rank, Score: entry.Score}, nil
}

// Stats describes the global partition.
func (s *LeaderboardService) Stats(ctx context.Context) (*domain.LeaderboardStats, error) {
	scores, err := s.entries.PartitionScores(ctx, domain.LeaderboardGlobal, domain.GlobalPeriod)
	if err != nil {
		return nil, err
	}
	return computeStats(scores), nil
}

// Percentile returns the share of global entries the user ranks above, or
// nil when the user has no global entry.
func (s *LeaderboardService) Percentile(ctx context.Context, userID string) (*float64, error) {
	entry, err := s.entries.GetEntry(ctx, userID, domain.LeaderboardGlobal, domain.GlobalPeriod)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	total, err := s.entries.CountPartition(ctx, domain.LeaderboardGlobal, domain.GlobalPeriod)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	p := float64(total-entry.Rank) / float64(total) * 100
	p = float64(int(p*100+0.5)) / 100
	return &p, nil
}

func (s *LeaderboardService) cacheKey(lbType domain.LeaderboardType, period string) string {
	return "lb:top:" + string(lbType) + ":" + period
}

func (s *LeaderboardService) cachedTop(ctx context.Context, lbType domain.LeaderboardType, period string, limit int) []domain.LeaderboardEntry {
	if s.cache == nil || limit > cachedTopSize {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(lbType, period)).Bytes()
	if err != nil {
		return nil
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (s *LeaderboardService) storeTop(ctx context.Context, lbType domain.LeaderboardType, period string, entries []domain.LeaderboardEntry) {
	if s.cache == nil || len(entries) > cachedTopSize {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	// best effort, reads fall through to the store anyway
	s.cache.Set(ctx, s.cacheKey(lbType, period), raw, cacheTTL)
}

func (s *LeaderboardService) invalidate(ctx context.Context, lbType domain.LeaderboardType, period string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, s.cacheKey(lbType, period))
}

// computeStats mirrors how the scores are ranked: input is descending, the
// median is the middle element of that order.
func computeStats(scores []decimal.Decimal) *domain.LeaderboardStats {
	stats := &domain.LeaderboardStats{
		TopScore:     decimal.Zero,
		AverageScore: decimal.Zero,
		MedianScore:  decimal.Zero,
	}
	if len(scores) == 0 {
		return stats
	}

	stats.TotalUsers = len(scores)
	stats.TopScore = scores[0]

	sum := decimal.Zero
	for _, s := range scores {
		sum = sum.Add(s)
	}
	stats.AverageScore = sum.Div(decimal.NewFromInt(int64(len(scores))))
	stats.MedianScore = scores[len(scores)/2]
	stats.GiniCoefficient = giniCoefficient(scores)
	return stats
}

// giniCoefficient measures score inequality: 0 is perfect equality, 1 is one
// user holding everything.
func giniCoefficient(scores []decimal.Decimal) float64 {
	if len(scores) == 0 {
		return 0
	}

	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i], _ = s.Float64()
	}
	sort.Float64s(values)

	n := float64(len(values))
	var sum, weighted float64
	for i, v := range values {
		sum += v
		weighted += (2*float64(i+1) - n - 1) * v
	}
	if sum == 0 {
		return 0
	}
	return weighted / (n * sum)
}
