package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/partnerflow/internal/app"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

// RequestResponse is the API representation of a company request.
type RequestResponse struct {
	ID               string      `json:"id" doc:"Unique identifier"`
	State            string      `json:"state" doc:"Lifecycle state"`
	Payload          ProfileBody `json:"payload"`
	SourceCollection string      `json:"source_collection,omitempty" doc:"Origin of the request"`
	CompanyID        string      `json:"company_id,omitempty" doc:"Company created on approval"`
	DecidedBy        string      `json:"decided_by,omitempty"`
	DecisionReason   string      `json:"decision_reason,omitempty"`
	DecidedAt        string      `json:"decided_at,omitempty"`
	Version          int         `json:"version"`
	CreatedAt        string      `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt        string      `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toRequestResponse(r domain.Request) RequestResponse {
	return RequestResponse{
		ID:               r.ID,
		State:            string(r.State),
		Payload:          toProfileBody(r.Payload),
		SourceCollection: r.SourceCollection,
		CompanyID:        r.CompanyID,
		DecidedBy:        r.DecidedBy,
		DecisionReason:   r.DecisionReason,
		DecidedAt:        formatOptionalTime(r.DecidedAt),
		Version:          r.Version,
		CreatedAt:        formatTime(r.CreatedAt),
		UpdatedAt:        formatTime(r.UpdatedAt),
	}
}

type CreateRequestInput struct {
	Body struct {
		Payload          ProfileBody `json:"payload"`
		SourceCollection string      `json:"source_collection,omitempty" doc:"Origin of the request"`
	}
}

type RequestIDInput struct {
	ID string `path:"id" doc:"Request ID"`
}

type RequestOutput struct {
	Body RequestResponse
}

type ListRequestsInput struct {
	State  string `query:"state" required:"false" doc:"Filter by lifecycle state"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListRequestsOutput struct {
	Body []RequestResponse
}

type TransitionRequestInput struct {
	ID   string `path:"id" doc:"Request ID"`
	Body TransitionBody
}

// RequestTransitionResponse carries the company created when the request was approved.
type RequestTransitionResponse struct {
	Request RequestResponse  `json:"request"`
	Company *CompanyResponse `json:"company,omitempty"`
}

type TransitionRequestOutput struct {
	Body RequestTransitionResponse
}

func registerRequests(api huma.API, svc *app.WorkflowService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests",
		Summary:     "Submit a company request",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *CreateRequestInput) (*RequestOutput, error) {
		req, err := svc.CreateRequest(ctx, input.Body.Payload.toDomain(), input.Body.SourceCollection)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RequestOutput{Body: toRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-request",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}",
		Summary:     "Get a request by ID",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *RequestIDInput) (*RequestOutput, error) {
		req, err := svc.GetRequest(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RequestOutput{Body: toRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests",
		Summary:     "List requests",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *ListRequestsInput) (*ListRequestsOutput, error) {
		filter := domain.RequestFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.State != "" {
			s := domain.State(input.State)
			filter.State = &s
		}

		reqs, err := svc.ListRequests(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RequestResponse, len(reqs))
		for i, r := range reqs {
			resp[i] = toRequestResponse(r)
		}
		return &ListRequestsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests/{id}/transitions",
		Summary:     "Review, approve or reject a request",
		Description: "Approving a request creates its company in the same transaction.",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *TransitionRequestInput) (*TransitionRequestOutput, error) {
		req, company, err := svc.TransitionRequest(ctx, input.ID, domain.State(input.Body.Target), input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &TransitionRequestOutput{Body: RequestTransitionResponse{Request: toRequestResponse(req)}}
		if company != nil {
			c := toCompanyResponse(*company)
			out.Body.Company = &c
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-next-states",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}/next-states",
		Summary:     "List the states a request may move to",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *RequestIDInput) (*NextStatesOutput, error) {
		states, err := svc.RequestNextStates(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &NextStatesOutput{Body: toStates(states)}, nil
	})
}
