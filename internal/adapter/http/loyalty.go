package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/partnerflow/internal/app"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

// ActivityEntryResponse is one signed movement of the points ledger.
type ActivityEntryResponse struct {
	Seq          int    `json:"seq"`
	At           string `json:"at"`
	Reason       string `json:"reason,omitempty"`
	Delta        int64  `json:"delta" doc:"Signed points movement"`
	BalanceAfter int64  `json:"balance_after"`
}

// RedemptionResponse records points spent on an offer.
type RedemptionResponse struct {
	Seq         int    `json:"seq"`
	OfferID     string `json:"offer_id"`
	At          string `json:"at"`
	PointsSpent int64  `json:"points_spent"`
}

// MembershipResponse is the API representation of a loyalty membership.
type MembershipResponse struct {
	ClientID          string                  `json:"client_id"`
	PointsBalance     int64                   `json:"points_balance"`
	Tier              string                  `json:"tier" doc:"basic, intermediate or premium"`
	PlanID            string                  `json:"plan_id,omitempty"`
	ServicesCount     int                     `json:"services_count"`
	CumulativeSavings int64                   `json:"cumulative_savings"`
	ActivityLog       []ActivityEntryResponse `json:"activity_log"`
	Redemptions       []RedemptionResponse    `json:"redemptions"`
	Version           int                     `json:"version"`
	CreatedAt         string                  `json:"created_at"`
	UpdatedAt         string                  `json:"updated_at"`
}

func toMembershipResponse(m domain.Membership) MembershipResponse {
	activity := make([]ActivityEntryResponse, len(m.ActivityLog))
	for i, e := range m.ActivityLog {
		activity[i] = ActivityEntryResponse{
			Seq:          e.Seq,
			At:           formatTime(e.At),
			Reason:       e.Reason,
			Delta:        e.Delta,
			BalanceAfter: e.BalanceAfter,
		}
	}
	redemptions := make([]RedemptionResponse, len(m.Redemptions))
	for i, r := range m.Redemptions {
		redemptions[i] = RedemptionResponse{
			Seq:         r.Seq,
			OfferID:     r.OfferID,
			At:          formatTime(r.At),
			PointsSpent: r.PointsSpent,
		}
	}
	return MembershipResponse{
		ClientID:          m.ClientID,
		PointsBalance:     m.PointsBalance,
		Tier:              string(m.Tier),
		PlanID:            m.PlanID,
		ServicesCount:     m.ServicesCount,
		CumulativeSavings: m.CumulativeSavings,
		ActivityLog:       activity,
		Redemptions:       redemptions,
		Version:           m.Version,
		CreatedAt:         formatTime(m.CreatedAt),
		UpdatedAt:         formatTime(m.UpdatedAt),
	}
}

type ClientIDInput struct {
	ClientID string `path:"clientId" doc:"Client ID"`
}

type MembershipOutput struct {
	Body MembershipResponse
}

// --- Services ---

type RecordServiceInput struct {
	ClientID string `path:"clientId" doc:"Client ID"`
	Body     struct {
		Category        string `json:"category" enum:"maintenance,repair,diagnostic,other" doc:"Service category"`
		Amount          int64  `json:"amount" maximum:"9007199254740992" doc:"Amount paid, in the smallest currency unit"`
		ProviderID      string `json:"provider_id,omitempty" doc:"Company that provided the service"`
		ProviderPremium bool   `json:"provider_premium,omitempty" doc:"Provider is a premium partner"`
		Description     string `json:"description,omitempty"`
	}
}

type AccrualResponse struct {
	Membership MembershipResponse `json:"membership"`
	Points     int64              `json:"points" doc:"Points earned by the service"`
	Savings    int64              `json:"savings" doc:"Savings estimated at the tier held before the service"`
}

type AccrualOutput struct {
	Body AccrualResponse
}

// --- Manual accrual ---

type AccrueInput struct {
	ClientID string `path:"clientId" doc:"Client ID"`
	Body     struct {
		Points int64  `json:"points" maximum:"1000000000" doc:"Points to credit"`
		Reason string `json:"reason,omitempty" maxLength:"1000"`
	}
}

// --- Redemption ---

type RedeemInput struct {
	ClientID string `path:"clientId" doc:"Client ID"`
	Body     struct {
		OfferID string `json:"offer_id" minLength:"1" doc:"Offer to redeem"`
	}
}

type RedemptionResultResponse struct {
	Membership MembershipResponse `json:"membership"`
	Remaining  int64              `json:"remaining" doc:"Balance after the redemption"`
}

type RedeemOutput struct {
	Body RedemptionResultResponse
}

// --- Benefits ---

type BenefitInput struct {
	ClientID string `path:"clientId" doc:"Client ID"`
	Key      string `path:"key" doc:"Benefit key"`
}

type BenefitResponse struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
}

type BenefitOutput struct {
	Body BenefitResponse
}

// --- Plan ---

type AssignPlanInput struct {
	ClientID string `path:"clientId" doc:"Client ID"`
	Body     struct {
		PlanID string `json:"plan_id" minLength:"1" doc:"Subscription plan"`
	}
}

func registerMemberships(api huma.API, svc *app.LoyaltyService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-membership",
		Method:      http.MethodGet,
		Path:        "/api/v1/memberships/{clientId}",
		Summary:     "Get a client membership",
		Description: "The membership is created empty on first reference.",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *ClientIDInput) (*MembershipOutput, error) {
		m, err := svc.Membership(ctx, input.ClientID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MembershipOutput{Body: toMembershipResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-service",
		Method:      http.MethodPost,
		Path:        "/api/v1/memberships/{clientId}/services",
		Summary:     "Record a service and credit its points",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *RecordServiceInput) (*AccrualOutput, error) {
		res, err := svc.RecordService(ctx, input.ClientID, domain.ServiceEvent{
			Category:        domain.ServiceCategory(input.Body.Category),
			Amount:          input.Body.Amount,
			ProviderID:      input.Body.ProviderID,
			ProviderPremium: input.Body.ProviderPremium,
			Description:     input.Body.Description,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AccrualOutput{Body: AccrualResponse{
			Membership: toMembershipResponse(res.Membership),
			Points:     res.Points,
			Savings:    res.Savings,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accrue-points",
		Method:      http.MethodPost,
		Path:        "/api/v1/memberships/{clientId}/accruals",
		Summary:     "Credit points manually",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *AccrueInput) (*MembershipOutput, error) {
		m, err := svc.Accrue(ctx, input.ClientID, input.Body.Points, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MembershipOutput{Body: toMembershipResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "redeem-offer",
		Method:      http.MethodPost,
		Path:        "/api/v1/memberships/{clientId}/redemptions",
		Summary:     "Spend points on an offer",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *RedeemInput) (*RedeemOutput, error) {
		res, err := svc.Redeem(ctx, input.ClientID, input.Body.OfferID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RedeemOutput{Body: RedemptionResultResponse{
			Membership: toMembershipResponse(res.Membership),
			Remaining:  res.Remaining,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-benefit",
		Method:      http.MethodGet,
		Path:        "/api/v1/memberships/{clientId}/benefits/{key}",
		Summary:     "Check whether a client can use a benefit",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *BenefitInput) (*BenefitOutput, error) {
		ok, err := svc.CanAccess(ctx, input.ClientID, domain.BenefitKey(input.Key))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BenefitOutput{Body: BenefitResponse{Key: input.Key, Allowed: ok}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-plan",
		Method:      http.MethodPut,
		Path:        "/api/v1/memberships/{clientId}/plan",
		Summary:     "Assign a subscription plan",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *AssignPlanInput) (*MembershipOutput, error) {
		m, err := svc.AssignPlan(ctx, input.ClientID, input.Body.PlanID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MembershipOutput{Body: toMembershipResponse(m)}, nil
	})
}
