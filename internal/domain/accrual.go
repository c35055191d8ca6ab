package domain

import (
	"fmt"
	"math"
)

// ServiceCategory classifies a reported service.
type ServiceCategory string

const (
	CategoryMaintenance ServiceCategory = "maintenance"
	CategoryRepair      ServiceCategory = "repair"
	CategoryDiagnostic  ServiceCategory = "diagnostic"
)

// ServiceEvent is a service a client reports having received.
type ServiceEvent struct {
	Category        ServiceCategory
	Amount          int64
	ProviderID      string
	ProviderPremium bool
	Description     string
}

const (
	basePoints           int64 = 10
	defaultCategoryBonus int64 = 10
	premiumProviderBonus int64 = 15
)

var categoryBonus = map[ServiceCategory]int64{
	CategoryMaintenance: 15,
	CategoryRepair:      25,
	CategoryDiagnostic:  5,
}

// ComputePoints returns the points earned for a service. Bonuses are additive.
func ComputePoints(e ServiceEvent) int64 {
	points := basePoints

	if bonus, ok := categoryBonus[e.Category]; ok {
		points += bonus
	} else {
		points += defaultCategoryBonus
	}

	switch {
	case e.Amount > 100000:
		points += 20
	case e.Amount > 50000:
		points += 10
	}

	if e.ProviderPremium {
		points += premiumProviderBonus
	}
	return points
}

// DiscountRate is the savings rate granted at each tier.
func DiscountRate(t Tier) float64 {
	switch t {
	case TierPremium:
		return 0.20
	case TierIntermediate:
		return 0.10
	default:
		return 0.05
	}
}

// MaxServiceAmount is the largest reported amount. Savings stay exact below it.
const MaxServiceAmount int64 = 1 << 53

// EstimateSavings returns the rounded savings a client at tier gets on the service.
func EstimateSavings(e ServiceEvent, t Tier) int64 {
	return int64(math.Round(float64(e.Amount) * DiscountRate(t)))
}

// Validate rejects events that cannot earn points.
func (e ServiceEvent) Validate() error {
	if e.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if e.Amount > MaxServiceAmount {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must not exceed %d", MaxServiceAmount)}
	}
	return nil
}
