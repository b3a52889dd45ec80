package repository

import (
	"context"
	"testing"

	"learn_ledger/internal/domain"
)

func TestRedemptionCreateRejectsUnmarshalableMeta(t *testing.T) {
	repo := NewRedemptionRepository(nil)
	req := &domain.RedemptionRequest{
		UserID: "u1",
		Type:   domain.RedemptionDonation,
		Status: domain.RedemptionPending,
		Meta:   map[string]interface{}{"bad": make(chan int)},
	}

	if err := repo.Create(context.Background(), req); err == nil {
		t.Fatal("unmarshalable meta must return an error, not be replaced")
	}
}
