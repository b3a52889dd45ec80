package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardType scopes how entries are grouped for ranking. Together with
// Period it forms a partition; ranks are only comparable inside one partition.
type LeaderboardType string

const (
	LeaderboardGlobal  LeaderboardType = "GLOBAL"
	LeaderboardFriends LeaderboardType = "FRIENDS"
	LeaderboardClass   LeaderboardType = "CLASS"
)

// GlobalPeriod is the period key of the single global partition.
const GlobalPeriod = "global"

// LeaderboardEntry is unique per (user_id, leaderboard_type, period).
// Rank is derived from score; it is rewritten whenever any score in the
// partition changes.
type LeaderboardEntry struct {
	ID          int64           `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	Type        LeaderboardType `db:"leaderboard_type" json:"leaderboard_type"`
	Period      string          `db:"period" json:"period"`
	Score       decimal.Decimal `db:"score" json:"score"`
	Rank        int             `db:"rank" json:"rank"`
	DisplayName string          `db:"-" json:"display_name,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// RankInfo is a user's position within one partition.
type RankInfo struct {
	Rank  int             `json:"rank"`
	Score decimal.Decimal `json:"score"`
}

// LeaderboardStats describes the global partition.
type LeaderboardStats struct {
	TotalUsers      int             `json:"total_users"`
	TopScore        decimal.Decimal `json:"top_score"`
	AverageScore    decimal.Decimal `json:"average_score"`
	MedianScore     decimal.Decimal `json:"median_score"`
	GiniCoefficient float64         `json:"gini_coefficient"`
}
