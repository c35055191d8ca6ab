package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/partnerflow/internal/app"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

// OfferResponse is the API representation of a redeemable offer.
type OfferResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	PointsRequired int64  `json:"points_required"`
	ValidFrom      string `json:"valid_from,omitempty" doc:"Open when empty"`
	ValidTo        string `json:"valid_to,omitempty" doc:"Open when empty"`
}

func toOfferResponse(o domain.Offer) OfferResponse {
	return OfferResponse{
		ID:             o.ID,
		Title:          o.Title,
		Description:    o.Description,
		PointsRequired: o.PointsRequired,
		ValidFrom:      formatOptionalTime(&o.ValidFrom),
		ValidTo:        formatOptionalTime(&o.ValidTo),
	}
}

// PlanResponse is the API representation of a subscription plan.
type PlanResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Limitations map[string]bool `json:"limitations" doc:"Benefit keys the plan unlocks"`
}

func toPlanResponse(p domain.Plan) PlanResponse {
	limits := p.Limitations
	if limits == nil {
		limits = map[string]bool{}
	}
	return PlanResponse{ID: p.ID, Name: p.Name, Limitations: limits}
}

type CatalogIDInput struct {
	ID string `path:"id"`
}

type SaveOfferInput struct {
	ID   string `path:"id" doc:"Offer ID"`
	Body struct {
		Title          string    `json:"title" minLength:"1" maxLength:"255"`
		Description    string    `json:"description,omitempty"`
		PointsRequired int64     `json:"points_required" doc:"Cost in points, must be positive"`
		ValidFrom      time.Time `json:"valid_from,omitempty" doc:"Start of the validity window"`
		ValidTo        time.Time `json:"valid_to,omitempty" doc:"End of the validity window"`
	}
}

type OfferOutput struct {
	Body OfferResponse
}

type ListOffersOutput struct {
	Body []OfferResponse
}

type SavePlanInput struct {
	ID   string `path:"id" doc:"Plan ID"`
	Body struct {
		Name        string          `json:"name" minLength:"1" maxLength:"255"`
		Limitations map[string]bool `json:"limitations,omitempty"`
	}
}

type PlanOutput struct {
	Body PlanResponse
}

type ListPlansOutput struct {
	Body []PlanResponse
}

func registerCatalog(api huma.API, svc *app.LoyaltyService) {
	huma.Register(api, huma.Operation{
		OperationID: "save-offer",
		Method:      http.MethodPut,
		Path:        "/api/v1/offers/{id}",
		Summary:     "Create or replace an offer",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *SaveOfferInput) (*OfferOutput, error) {
		offer, err := svc.SaveOffer(ctx, domain.Offer{
			ID:             input.ID,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			PointsRequired: input.Body.PointsRequired,
			ValidFrom:      input.Body.ValidFrom,
			ValidTo:        input.Body.ValidTo,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OfferOutput{Body: toOfferResponse(offer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-offer",
		Method:      http.MethodGet,
		Path:        "/api/v1/offers/{id}",
		Summary:     "Get an offer",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CatalogIDInput) (*OfferOutput, error) {
		offer, err := svc.GetOffer(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OfferOutput{Body: toOfferResponse(offer)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-offers",
		Method:      http.MethodGet,
		Path:        "/api/v1/offers",
		Summary:     "List offers",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListOffersOutput, error) {
		offers, err := svc.ListOffers(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]OfferResponse, len(offers))
		for i, o := range offers {
			resp[i] = toOfferResponse(o)
		}
		return &ListOffersOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "save-plan",
		Method:      http.MethodPut,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Create or replace a plan",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *SavePlanInput) (*PlanOutput, error) {
		plan, err := svc.SavePlan(ctx, domain.Plan{
			ID:          input.ID,
			Name:        input.Body.Name,
			Limitations: input.Body.Limitations,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlanOutput{Body: toPlanResponse(plan)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-plan",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Get a plan",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CatalogIDInput) (*PlanOutput, error) {
		plan, err := svc.GetPlan(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlanOutput{Body: toPlanResponse(plan)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-plans",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans",
		Summary:     "List plans",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListPlansOutput, error) {
		plans, err := svc.ListPlans(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]PlanResponse, len(plans))
		for i, p := range plans {
			resp[i] = toPlanResponse(p)
		}
		return &ListPlansOutput{Body: resp}, nil
	})
}
