package domain

import (
	"math"
	"slices"
	"time"
)

// Tier is the loyalty level derived from a points balance.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierPremium      Tier = "premium"
)

// Tier thresholds, inclusive.
const (
	IntermediateThreshold int64 = 200
	PremiumThreshold      int64 = 500
)

// TierFor maps a points balance to its tier. It is total and monotonic.
func TierFor(points int64) Tier {
	switch {
	case points >= PremiumThreshold:
		return TierPremium
	case points >= IntermediateThreshold:
		return TierIntermediate
	default:
		return TierBasic
	}
}

// Rank orders tiers: basic < intermediate < premium. Unknown tiers rank below basic.
func (t Tier) Rank() int {
	switch t {
	case TierBasic:
		return 1
	case TierIntermediate:
		return 2
	case TierPremium:
		return 3
	default:
		return 0
	}
}

// ActivityEntry is one signed movement of the points ledger.
type ActivityEntry struct {
	Seq          int
	At           time.Time
	Reason       string
	Delta        int64
	BalanceAfter int64
}

// Redemption records points spent on an offer.
type Redemption struct {
	Seq         int
	OfferID     string
	At          time.Time
	PointsSpent int64
}

// Membership is a client's loyalty account.
type Membership struct {
	ClientID          string
	PointsBalance     int64
	Tier              Tier
	PlanID            string
	ActivityLog       []ActivityEntry
	Redemptions       []Redemption
	ServicesCount     int
	CumulativeSavings int64
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewMembership creates an empty basic membership.
func NewMembership(clientID string, now time.Time) Membership {
	return Membership{
		ClientID:  clientID,
		Tier:      TierFor(0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Accrue credits delta points and recomputes the tier.
func (m *Membership) Accrue(delta int64, reason string, now time.Time) (ActivityEntry, error) {
	if delta < 0 {
		return ActivityEntry{}, ErrNegativeAccrual
	}
	if delta > math.MaxInt64-m.PointsBalance {
		return ActivityEntry{}, &ValidationError{Field: "points", Reason: "would overflow the balance"}
	}
	return m.post(delta, reason, now), nil
}

// Redeem debits the offer cost. On failure the membership is left untouched.
func (m *Membership) Redeem(offer Offer, now time.Time) (int64, error) {
	if !offer.AvailableAt(now) {
		return m.PointsBalance, &OfferUnavailableError{OfferID: offer.ID, At: now}
	}
	if m.PointsBalance < offer.PointsRequired {
		return m.PointsBalance, &InsufficientPointsError{
			ClientID: m.ClientID,
			Balance:  m.PointsBalance,
			Required: offer.PointsRequired,
		}
	}

	m.post(-offer.PointsRequired, "redeemed offer "+offer.ID, now)
	m.Redemptions = append(m.Redemptions, Redemption{
		Seq:         len(m.Redemptions) + 1,
		OfferID:     offer.ID,
		At:          now,
		PointsSpent: offer.PointsRequired,
	})
	return m.PointsBalance, nil
}

// post is the single place the balance changes.
func (m *Membership) post(delta int64, reason string, now time.Time) ActivityEntry {
	m.PointsBalance += delta
	m.Tier = TierFor(m.PointsBalance)
	m.UpdatedAt = now
	entry := ActivityEntry{
		Seq:          len(m.ActivityLog) + 1,
		At:           now,
		Reason:       reason,
		Delta:        delta,
		BalanceAfter: m.PointsBalance,
	}
	m.ActivityLog = append(m.ActivityLog, entry)
	return entry
}

// Consistent reports whether the balance agrees with the ledger: it equals the
// signed sum of the activity log, equals credits minus redemptions, is never
// negative, and the stored tier matches the balance.
func (m Membership) Consistent() bool {
	var sum, credits, spent int64
	for _, e := range m.ActivityLog {
		sum += e.Delta
		if e.Delta > 0 {
			credits += e.Delta
		}
	}
	for _, r := range m.Redemptions {
		spent += r.PointsSpent
	}
	return m.PointsBalance >= 0 &&
		sum == m.PointsBalance &&
		credits-spent == m.PointsBalance &&
		m.Tier == TierFor(m.PointsBalance)
}

// Clone returns a deep copy.
func (m Membership) Clone() Membership {
	m.ActivityLog = slices.Clone(m.ActivityLog)
	m.Redemptions = slices.Clone(m.Redemptions)
	return m
}

// Offer is a catalog item redeemable for points.
type Offer struct {
	ID             string
	Title          string
	Description    string
	PointsRequired int64
	ValidFrom      time.Time
	ValidTo        time.Time
}

// AvailableAt reports whether at falls within the validity window.
// A zero bound leaves that side open.
func (o Offer) AvailableAt(at time.Time) bool {
	if !o.ValidFrom.IsZero() && at.Before(o.ValidFrom) {
		return false
	}
	if !o.ValidTo.IsZero() && at.After(o.ValidTo) {
		return false
	}
	return true
}

// Validate checks the offer invariants: an id, a positive cost and an
// ordered validity window.
func (o Offer) Validate() error {
	switch {
	case o.ID == "":
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	case o.PointsRequired <= 0:
		return &ValidationError{Field: "points_required", Reason: "must be positive"}
	case !o.ValidFrom.IsZero() && !o.ValidTo.IsZero() && o.ValidTo.Before(o.ValidFrom):
		return &ValidationError{Field: "valid_to", Reason: "must not precede valid_from"}
	}
	return nil
}
