package service

import (
	"context"
	"testing"

	"learn_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// Class partitions with unique ids keep these tests isolated from anything
// else living in the table.
func TestLeaderboardRanking(t *testing.T) {
	db := testPool(t)
	svc := NewLeaderboardService(db, nil)
	ctx := context.Background()
	classID := testUserID("class")

	users := []struct {
		id    string
		score int64
	}{
		{"u-low-" + classID, 10},
		{"u-high-" + classID, 90},
		{"u-mid-" + classID, 40},
	}
	for _, u := range users {
		if err := svc.UpdateScore(ctx, u.id, decimal.NewFromInt(u.score), domain.LeaderboardClass, classID); err != nil {
			t.Fatalf("update score: %v", err)
		}
	}

	entries, err := svc.Class(ctx, classID, 10)
	if err != nil {
		t.Fatalf("class: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	for i, entry := range entries {
		if entry.Rank != i+1 {
			t.Errorf("position %d has rank %d", i, entry.Rank)
		}
	}
	if entries[0].UserID != "u-high-"+classID {
		t.Errorf("rank 1 = %s", entries[0].UserID)
	}
	if entries[2].UserID != "u-low-"+classID {
		t.Errorf("rank 3 = %s", entries[2].UserID)
	}
}

func TestLeaderboardScoreChangeReranks(t *testing.T) {
	db := testPool(t)
	svc := NewLeaderboardService(db, nil)
	ctx := context.Background()
	classID := testUserID("rerank")
	a := "a-" + classID
	b := "b-" + classID

	if err := svc.UpdateScore(ctx, a, decimal.NewFromInt(50), domain.LeaderboardClass, classID); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.UpdateScore(ctx, b, decimal.NewFromInt(20), domain.LeaderboardClass, classID); err != nil {
		t.Fatalf("update: %v", err)
	}

	// b overtakes a
	if err := svc.IncrementScore(ctx, b, decimal.NewFromInt(40), domain.LeaderboardClass, classID); err != nil {
		t.Fatalf("increment: %v", err)
	}

	rankA, err := svc.UserRank(ctx, a, domain.LeaderboardClass, classID)
	if err != nil {
		t.Fatalf("rank a: %v", err)
	}
	rankB, err := svc.UserRank(ctx, b, domain.LeaderboardClass, classID)
	if err != nil {
		t.Fatalf("rank b: %v", err)
	}
	if rankB.Rank != 1 || rankA.Rank != 2 {
		t.Errorf("ranks = b:%d a:%d, want b:1 a:2", rankB.Rank, rankA.Rank)
	}
	if !rankB.Score.Equal(decimal.NewFromInt(60)) {
		t.Errorf("score b = %s, want 60", rankB.Score)
	}
}

func TestLeaderboardTieBreaksEarliestFirst(t *testing.T) {
	db := testPool(t)
	svc := NewLeaderboardService(db, nil)
	ctx := context.Background()
	classID := testUserID("tie")
	first := "first-" + classID
	second := "second-" + classID

	if err := svc.UpdateScore(ctx, first, decimal.NewFromInt(30), domain.LeaderboardClass, classID); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.UpdateScore(ctx, second, decimal.NewFromInt(30), domain.LeaderboardClass, classID); err != nil {
		t.Fatalf("update: %v", err)
	}

	rankFirst, err := svc.UserRank(ctx, first, domain.LeaderboardClass, classID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	rankSecond, err := svc.UserRank(ctx, second, domain.LeaderboardClass, classID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if rankFirst.Rank != 1 || rankSecond.Rank != 2 {
		t.Errorf("ranks = %d/%d, want earliest entry ranked 1", rankFirst.Rank, rankSecond.Rank)
	}
}

func TestLeaderboardUnknownUser(t *testing.T) {
	db := testPool(t)
	svc := NewLeaderboardService(db, nil)
	ctx := context.Background()

	info, err := svc.UserRank(ctx, testUserID("ghost"), domain.LeaderboardClass, testUserID("empty"))
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil rank info, got %+v", info)
	}
}

func TestLeaderboardRebuild(t *testing.T) {
	db := testPool(t)
	svc := NewLeaderboardService(db, nil)
	ctx := context.Background()
	classID := testUserID("rebuild")

	for i, id := range []string{"x-" + classID, "y-" + classID, "z-" + classID} {
		if err := svc.UpdateScore(ctx, id, decimal.NewFromInt(int64(10*(i+1))), domain.LeaderboardClass, classID); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	if err := svc.Rebuild(ctx, domain.LeaderboardClass, classID); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	entries, err := svc.Class(ctx, classID, 10)
	if err != nil {
		t.Fatalf("class: %v", err)
	}
	for i, entry := range entries {
		if entry.Rank != i+1 {
			t.Errorf("position %d has rank %d after rebuild", i, entry.Rank)
		}
	}
}

func TestFriendsPartitionIsPerOwner(t *testing.T) {
	db := testPool(t)
	svc := NewLeaderboardService(db, nil)
	ctx := context.Background()
	owner := testUserID("owner")
	other := testUserID("other")

	if err := svc.UpdateScore(ctx, "friend-1-"+owner, decimal.NewFromInt(5), domain.LeaderboardFriends, owner); err != nil {
		t.Fatalf("update: %v", err)
	}

	mine, err := svc.Friends(ctx, owner, 10)
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("owner partition = %d entries, want 1", len(mine))
	}

	theirs, err := svc.Friends(ctx, other, 10)
	if err != nil {
		t.Fatalf("friends: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("other partition = %d entries, want 0", len(theirs))
	}
}
