package service

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func scoresFromInts(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := computeStats(nil)
	if stats.TotalUsers != 0 {
		t.Errorf("TotalUsers = %d", stats.TotalUsers)
	}
	if !stats.TopScore.IsZero() || !stats.AverageScore.IsZero() || !stats.MedianScore.IsZero() {
		t.Error("empty partition should report zero scores")
	}
}

func TestComputeStats(t *testing.T) {
	// input is rank order: descending
	stats := computeStats(scoresFromInts(50, 30, 20, 10))

	if stats.TotalUsers != 4 {
		t.Errorf("TotalUsers = %d, want 4", stats.TotalUsers)
	}
	if !stats.TopScore.Equal(decimal.NewFromInt(50)) {
		t.Errorf("TopScore = %s, want 50", stats.TopScore)
	}
	if !stats.AverageScore.Equal(decimal.NewFromFloat(27.5)) {
		t.Errorf("AverageScore = %s, want 27.5", stats.AverageScore)
	}
	if !stats.MedianScore.Equal(decimal.NewFromInt(20)) {
		t.Errorf("MedianScore = %s, want 20", stats.MedianScore)
	}
}

func TestGiniCoefficientEquality(t *testing.T) {
	if g := giniCoefficient(scoresFromInts(5, 5, 5, 5)); math.Abs(g) > 1e-9 {
		t.Errorf("equal scores should give gini 0, got %f", g)
	}
}

func TestGiniCoefficientConcentrated(t *testing.T) {
	// one user holds everything: gini = (n-1)/n
	g := giniCoefficient(scoresFromInts(10, 0, 0, 0))
	if math.Abs(g-0.75) > 1e-9 {
		t.Errorf("gini = %f, want 0.75", g)
	}
}

func TestGiniCoefficientZeroSum(t *testing.T) {
	if g := giniCoefficient(scoresFromInts(0, 0)); g != 0 {
		t.Errorf("all-zero scores should give gini 0, got %f", g)
	}
}
