package domain

// BenefitKey names a capability a client may have unlocked.
type BenefitKey string

const (
	BenefitVehicleLookup      BenefitKey = "vehicleLookup"
	BenefitExpenseTracking    BenefitKey = "expenseTracking"
	BenefitPersonalizedPromos BenefitKey = "personalizedPromos"
	BenefitAutoReminders      BenefitKey = "autoReminders"
	BenefitExclusiveEvents    BenefitKey = "exclusiveEvents"
	BenefitAdvisorAccess      BenefitKey = "advisorAccess"
	BenefitSpecialDiscounts   BenefitKey = "specialDiscounts"
)

var premiumBenefits = map[BenefitKey]struct{}{
	BenefitVehicleLookup:      {},
	BenefitExpenseTracking:    {},
	BenefitPersonalizedPromos: {},
	BenefitAutoReminders:      {},
	BenefitExclusiveEvents:    {},
	BenefitAdvisorAccess:      {},
	BenefitSpecialDiscounts:   {},
}

// PremiumBenefit reports whether key is reserved for the premium tier.
func PremiumBenefit(key BenefitKey) bool {
	_, ok := premiumBenefits[key]
	return ok
}

// Plan is a subscription plan. Limitations maps benefit keys to whether the
// plan unlocks them.
type Plan struct {
	ID          string
	Name        string
	Limitations map[string]bool
}

// CanAccess resolves a benefit. Premium benefits depend only on the tier
// derived from the balance; every other key is looked up in the plan.
func CanAccess(m Membership, plan *Plan, key BenefitKey) bool {
	if PremiumBenefit(key) {
		return TierFor(m.PointsBalance) == TierPremium
	}
	if plan == nil {
		return false
	}
	return plan.Limitations[string(key)]
}
