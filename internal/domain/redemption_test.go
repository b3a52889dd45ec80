package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to RedemptionStatus
		want     bool
	}{
		{RedemptionPending, RedemptionApproved, true},
		{RedemptionPending, RedemptionRejected, true},
		{RedemptionPending, RedemptionCompleted, false},
		{RedemptionApproved, RedemptionCompleted, true},
		{RedemptionApproved, RedemptionRejected, false},
		{RedemptionApproved, RedemptionPending, false},
		{RedemptionRejected, RedemptionApproved, false},
		{RedemptionRejected, RedemptionCompleted, false},
		{RedemptionCompleted, RedemptionPending, false},
		{RedemptionCompleted, RedemptionApproved, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestRedemptionTypeKnown(t *testing.T) {
	for _, typ := range []RedemptionType{RedemptionFeatureUnlock, RedemptionPremiumContent, RedemptionMerchandise, RedemptionDonation} {
		if !typ.Known() {
			t.Errorf("expected %s to be known", typ)
		}
	}
	if RedemptionType("FREE_MONEY").Known() {
		t.Error("unexpected type should not be known")
	}
	if RedemptionType("").Known() {
		t.Error("empty type should not be known")
	}
}
