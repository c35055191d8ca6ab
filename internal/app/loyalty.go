package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// LoyaltyService manages client memberships and the offer/plan catalog.
type LoyaltyService struct {
	memberships domain.MembershipRepository
	catalog     domain.CatalogRepository
	notifier    notifier
	logger      *zap.Logger
	opts        options
}

// NewLoyaltyService creates a service with the given adapters.
func NewLoyaltyService(
	memberships domain.MembershipRepository,
	catalog domain.CatalogRepository,
	publisher domain.EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *LoyaltyService {
	logger = logger.Named("loyalty")
	return &LoyaltyService{
		memberships: memberships,
		catalog:     catalog,
		notifier:    notifier{publisher: publisher, logger: logger},
		logger:      logger,
		opts:        buildOptions(opts),
	}
}

// AccrualResult is the outcome of recording a service.
type AccrualResult struct {
	Membership domain.Membership
	Points     int64
	Savings    int64
}

// RedemptionResult is the outcome of redeeming an offer.
type RedemptionResult struct {
	Membership domain.Membership
	Remaining  int64
}

// Membership returns the client's membership, creating an empty one on first reference.
func (s *LoyaltyService) Membership(ctx context.Context, clientID string) (domain.Membership, error) {
	m, err := s.memberships.GetByID(ctx, clientID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domain.ErrMembershipNotFound) {
		return domain.Membership{}, err
	}

	m = domain.NewMembership(clientID, s.opts.now())
	if err := s.memberships.Create(ctx, m); err != nil {
		// Another caller created it first.
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			return s.memberships.GetByID(ctx, clientID)
		}
		return domain.Membership{}, fmt.Errorf("creating membership: %w", err)
	}

	s.logger.Debug("membership created", zap.String("client_id", clientID))
	return m, nil
}

// RecordService credits the points earned for a service. Savings are
// estimated at the tier the client held before the accrual.
func (s *LoyaltyService) RecordService(ctx context.Context, clientID string, event domain.ServiceEvent) (AccrualResult, error) {
	if err := event.Validate(); err != nil {
		return AccrualResult{}, err
	}

	var result AccrualResult
	m, err := s.mutate(ctx, clientID, domain.EventPointsAccrued, func(m *domain.Membership) (string, error) {
		savings := domain.EstimateSavings(event, m.Tier)
		points := domain.ComputePoints(event)
		if savings > math.MaxInt64-m.CumulativeSavings {
			return "", &domain.ValidationError{Field: "amount", Reason: "would overflow cumulative savings"}
		}

		reason := fmt.Sprintf("%s service", event.Category)
		if event.Description != "" {
			reason += ": " + event.Description
		}
		if _, err := m.Accrue(points, reason, s.opts.now()); err != nil {
			return "", err
		}
		m.ServicesCount++
		m.CumulativeSavings += savings

		result.Points, result.Savings = points, savings
		return fmt.Sprintf("+%d points, %d saved", points, savings), nil
	})
	if err != nil {
		return AccrualResult{}, err
	}

	result.Membership = m
	return result, nil
}

// Accrue credits delta points directly.
func (s *LoyaltyService) Accrue(ctx context.Context, clientID string, delta int64, reason string) (domain.Membership, error) {
	return s.mutate(ctx, clientID, domain.EventPointsAccrued, func(m *domain.Membership) (string, error) {
		if _, err := m.Accrue(delta, reason, s.opts.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("+%d points", delta), nil
	})
}

// Redeem spends points on an offer. A failed redemption leaves the membership untouched.
func (s *LoyaltyService) Redeem(ctx context.Context, clientID, offerID string) (RedemptionResult, error) {
	offer, err := s.catalog.GetOffer(ctx, offerID)
	if err != nil {
		actor := s.opts.identity.Actor(ctx)
		s.notifier.failed(ctx, domain.EventOfferRedeemed, domain.EntityMembership, clientID, actor, err, s.opts.now())
		return RedemptionResult{}, err
	}

	var remaining int64
	m, err := s.mutate(ctx, clientID, domain.EventOfferRedeemed, func(m *domain.Membership) (string, error) {
		var err error
		if remaining, err = m.Redeem(offer, s.opts.now()); err != nil {
			return "", err
		}
		return fmt.Sprintf("offer %s, -%d points", offer.ID, offer.PointsRequired), nil
	})
	if err != nil {
		return RedemptionResult{}, err
	}

	return RedemptionResult{Membership: m, Remaining: remaining}, nil
}

// CanAccess resolves whether the client has unlocked a benefit.
func (s *LoyaltyService) CanAccess(ctx context.Context, clientID string, key domain.BenefitKey) (bool, error) {
	m, err := s.Membership(ctx, clientID)
	if err != nil {
		return false, err
	}

	var plan *domain.Plan
	if m.PlanID != "" {
		p, err := s.catalog.GetPlan(ctx, m.PlanID)
		switch {
		case err == nil:
			plan = &p
		case errors.Is(err, domain.ErrPlanNotFound):
			s.logger.Warn("membership references a missing plan",
				zap.String("client_id", clientID),
				zap.String("plan_id", m.PlanID),
			)
		default:
			return false, err
		}
	}

	return domain.CanAccess(m, plan, key), nil
}

// AssignPlan attaches a catalog plan to the membership.
func (s *LoyaltyService) AssignPlan(ctx context.Context, clientID, planID string) (domain.Membership, error) {
	if _, err := s.catalog.GetPlan(ctx, planID); err != nil {
		actor := s.opts.identity.Actor(ctx)
		s.notifier.failed(ctx, domain.EventPlanAssigned, domain.EntityMembership, clientID, actor, err, s.opts.now())
		return domain.Membership{}, err
	}

	return s.mutate(ctx, clientID, domain.EventPlanAssigned, func(m *domain.Membership) (string, error) {
		m.PlanID = planID
		return "plan " + planID, nil
	})
}

// mutate runs one atomic ledger update under compare-and-swap, retrying lost
// races against a freshly loaded membership.
func (s *LoyaltyService) mutate(
	ctx context.Context,
	clientID string,
	event domain.EventType,
	fn func(m *domain.Membership) (string, error),
) (domain.Membership, error) {
	actor := s.opts.identity.Actor(ctx)

	var membership domain.Membership
	var detail string
	err := retryOnConflict(ctx, s.opts.retries, func() error {
		m, err := s.Membership(ctx, clientID)
		if err != nil {
			return err
		}

		if detail, err = fn(&m); err != nil {
			return err
		}
		m.UpdatedAt = s.opts.now()

		if err := s.memberships.Update(ctx, m); err != nil {
			return err
		}
		m.Version++
		membership = m
		return nil
	})
	if err != nil {
		s.notifier.failed(ctx, event, domain.EntityMembership, clientID, actor, err, s.opts.now())
		return domain.Membership{}, fmt.Errorf("updating membership %s: %w", clientID, err)
	}

	s.notifier.succeeded(ctx, event, domain.EntityMembership, clientID, actor, detail, membership.UpdatedAt)
	return membership, nil
}

// --- Catalog ---

// SaveOffer creates or replaces an offer.
func (s *LoyaltyService) SaveOffer(ctx context.Context, offer domain.Offer) (domain.Offer, error) {
	if err := offer.Validate(); err != nil {
		return domain.Offer{}, err
	}
	if err := s.catalog.SaveOffer(ctx, offer); err != nil {
		return domain.Offer{}, fmt.Errorf("saving offer: %w", err)
	}
	return offer, nil
}

// GetOffer returns an offer by its identifier.
func (s *LoyaltyService) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	return s.catalog.GetOffer(ctx, id)
}

// ListOffers returns every offer in the catalog.
func (s *LoyaltyService) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	return s.catalog.ListOffers(ctx)
}

// SavePlan creates or replaces a plan.
func (s *LoyaltyService) SavePlan(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	if plan.ID == "" {
		return domain.Plan{}, &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if err := s.catalog.SavePlan(ctx, plan); err != nil {
		return domain.Plan{}, fmt.Errorf("saving plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns a plan by its identifier.
func (s *LoyaltyService) GetPlan(ctx context.Context, id string) (domain.Plan, error) {
	return s.catalog.GetPlan(ctx, id)
}

// ListPlans returns every plan in the catalog.
func (s *LoyaltyService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	return s.catalog.ListPlans(ctx)
}
