package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

func membershipWith(t *testing.T, points int64) domain.Membership {
	t.Helper()
	m := domain.NewMembership("cl-1", now)
	if points > 0 {
		if _, err := m.Accrue(points, "opening balance", now); err != nil {
			t.Fatalf("Accrue failed: %v", err)
		}
	}
	return m
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		points int64
		want   domain.Tier
	}{
		{0, domain.TierBasic},
		{199, domain.TierBasic},
		{200, domain.TierIntermediate},
		{499, domain.TierIntermediate},
		{500, domain.TierPremium},
		{10000, domain.TierPremium},
	}

	for _, tc := range cases {
		if got := domain.TierFor(tc.points); got != tc.want {
			t.Errorf("TierFor(%d) = %q, want %q", tc.points, got, tc.want)
		}
	}
}

func TestNewMembership(t *testing.T) {
	m := domain.NewMembership("cl-1", now)
	if m.PointsBalance != 0 || m.Tier != domain.TierBasic {
		t.Errorf("new membership = %d/%q, want 0/basic", m.PointsBalance, m.Tier)
	}
	if !m.Consistent() {
		t.Error("new membership should be consistent")
	}
}

func TestAccrue_CrossesIntermediate(t *testing.T) {
	m := membershipWith(t, 180)

	entry, err := m.Accrue(20, "bonus", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.PointsBalance != 200 || m.Tier != domain.TierIntermediate {
		t.Errorf("membership = %d/%q, want 200/intermediate", m.PointsBalance, m.Tier)
	}
	if entry.Delta != 20 || entry.BalanceAfter != 200 || entry.Seq != 2 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestAccrue_RejectsNegative(t *testing.T) {
	m := membershipWith(t, 50)
	if _, err := m.Accrue(-10, "sneaky debit", now); !errors.Is(err, domain.ErrNegativeAccrual) {
		t.Fatalf("expected ErrNegativeAccrual, got %v", err)
	}
	if m.PointsBalance != 50 || len(m.ActivityLog) != 1 {
		t.Error("rejected accrual must not mutate the membership")
	}
}

func TestAccrue_RejectsOverflow(t *testing.T) {
	m := membershipWith(t, 10)

	_, err := m.Accrue(math.MaxInt64, "overflow", now)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "points" {
		t.Fatalf("expected points ValidationError, got %v", err)
	}
	if m.PointsBalance != 10 || len(m.ActivityLog) != 1 || !m.Consistent() {
		t.Error("rejected accrual must not mutate the membership")
	}

	if _, err := m.Accrue(math.MaxInt64-10, "top up", now); err != nil {
		t.Fatalf("accrual up to the limit failed: %v", err)
	}
	if m.PointsBalance != math.MaxInt64 || !m.Consistent() {
		t.Errorf("balance = %d, want MaxInt64", m.PointsBalance)
	}
}

func TestRedeem_InsufficientPoints(t *testing.T) {
	m := membershipWith(t, 100)
	before := m.Clone()

	remaining, err := m.Redeem(domain.Offer{ID: "o-1", PointsRequired: 150}, now)
	var insufficient *domain.InsufficientPointsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientPointsError, got %v", err)
	}
	if insufficient.Balance != 100 || insufficient.Required != 150 {
		t.Errorf("error = %+v", insufficient)
	}
	if remaining != 100 || m.PointsBalance != 100 {
		t.Errorf("balance = %d, want 100", m.PointsBalance)
	}
	if len(m.ActivityLog) != len(before.ActivityLog) || len(m.Redemptions) != 0 {
		t.Error("failed redemption must not append entries")
	}
}

func TestRedeem_DropsTier(t *testing.T) {
	m := membershipWith(t, 500)
	if m.Tier != domain.TierPremium {
		t.Fatalf("Tier = %q, want premium", m.Tier)
	}

	remaining, err := m.Redeem(domain.Offer{ID: "o-1", PointsRequired: 200}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remaining != 300 || m.Tier != domain.TierIntermediate {
		t.Errorf("membership = %d/%q, want 300/intermediate", remaining, m.Tier)
	}
	if len(m.Redemptions) != 1 || m.Redemptions[0].PointsSpent != 200 || m.Redemptions[0].OfferID != "o-1" {
		t.Errorf("Redemptions = %+v", m.Redemptions)
	}
	last := m.ActivityLog[len(m.ActivityLog)-1]
	if last.Delta != -200 || last.BalanceAfter != 300 {
		t.Errorf("ledger entry = %+v", last)
	}
	if !m.Consistent() {
		t.Error("membership should stay consistent after redemption")
	}
}

func TestRedeem_OutsideValidity(t *testing.T) {
	m := membershipWith(t, 500)
	offer := domain.Offer{
		ID:             "o-1",
		PointsRequired: 100,
		ValidFrom:      now.Add(-48 * time.Hour),
		ValidTo:        now.Add(-24 * time.Hour),
	}

	_, err := m.Redeem(offer, now)
	var unavailable *domain.OfferUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected OfferUnavailableError, got %v", err)
	}
	if m.PointsBalance != 500 {
		t.Errorf("balance = %d, want 500", m.PointsBalance)
	}
}

func TestOffer_AvailableAt_OpenBounds(t *testing.T) {
	if !(domain.Offer{}).AvailableAt(now) {
		t.Error("offer without bounds should always be available")
	}
	o := domain.Offer{ValidFrom: now}
	if !o.AvailableAt(now) {
		t.Error("validity window should include its start")
	}
	if o.AvailableAt(now.Add(-time.Second)) {
		t.Error("offer should not be available before its start")
	}
}

func TestConsistent_DetectsDrift(t *testing.T) {
	m := membershipWith(t, 300)
	m.PointsBalance = 400
	if m.Consistent() {
		t.Error("balance drift should be detected")
	}

	m = membershipWith(t, 300)
	m.Tier = domain.TierPremium
	if m.Consistent() {
		t.Error("stale tier should be detected")
	}
}
