package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/partnerflow/internal/app"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

// ProfileBody is the API representation of a company profile and of a request payload.
type ProfileBody struct {
	Name           string                `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	TaxID          string                `json:"tax_id,omitempty" doc:"Tax identifier"`
	Address        string                `json:"address,omitempty" doc:"Street address"`
	Phone          string                `json:"phone,omitempty" doc:"Main phone"`
	Email          string                `json:"email,omitempty" doc:"Main email"`
	Website        string                `json:"website,omitempty" doc:"Website URL"`
	LogoURL        string                `json:"logo_url,omitempty" doc:"Logo URL; setting it marks the logo as assigned"`
	Contact        domain.Contact        `json:"contact,omitempty" doc:"Primary contact"`
	Representative domain.Representative `json:"representative,omitempty" doc:"Legal representative"`
	Categories     []string              `json:"categories,omitempty" doc:"Service categories"`
	Brands         []string              `json:"brands,omitempty" doc:"Vehicle brands served"`
}

func (b ProfileBody) toDomain() domain.Profile {
	return domain.Profile{
		Name:           b.Name,
		TaxID:          b.TaxID,
		Address:        b.Address,
		Phone:          b.Phone,
		Email:          b.Email,
		Website:        b.Website,
		LogoURL:        b.LogoURL,
		Contact:        b.Contact,
		Representative: b.Representative,
		Categories:     b.Categories,
		Brands:         b.Brands,
	}
}

func toProfileBody(p domain.Profile) ProfileBody {
	return ProfileBody{
		Name:           p.Name,
		TaxID:          p.TaxID,
		Address:        p.Address,
		Phone:          p.Phone,
		Email:          p.Email,
		Website:        p.Website,
		LogoURL:        p.LogoURL,
		Contact:        p.Contact,
		Representative: p.Representative,
		Categories:     p.Categories,
		Brands:         p.Brands,
	}
}

// FlagsResponse is the API representation of the activation flags.
type FlagsResponse struct {
	WebValidated          bool `json:"web_validated"`
	LogoAssigned          bool `json:"logo_assigned"`
	HasConflict           bool `json:"has_conflict"`
	RequiredFieldsPresent bool `json:"required_fields_present"`
}

// TransitionLogEntryResponse is one audited state change.
type TransitionLogEntryResponse struct {
	Seq    int    `json:"seq"`
	At     string `json:"at" doc:"Timestamp (ISO 8601)"`
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
	Actor  string `json:"actor"`
}

// CompanyResponse is the API representation of a company.
type CompanyResponse struct {
	ID              string                       `json:"id" doc:"Unique identifier"`
	State           string                       `json:"state" doc:"Lifecycle state"`
	Profile         ProfileBody                  `json:"profile"`
	Flags           FlagsResponse                `json:"flags"`
	Visible         bool                         `json:"visible" doc:"Shown in the public directory"`
	VisitDate       string                       `json:"visit_date,omitempty" doc:"Set when the company entered in_visit"`
	SourceRequestID string                       `json:"source_request_id,omitempty" doc:"Request the company was approved from"`
	TransitionLog   []TransitionLogEntryResponse `json:"transition_log"`
	Version         int                          `json:"version"`
	CreatedAt       string                       `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt       string                       `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toCompanyResponse(c domain.Company) CompanyResponse {
	log := make([]TransitionLogEntryResponse, len(c.TransitionLog))
	for i, e := range c.TransitionLog {
		log[i] = TransitionLogEntryResponse{
			Seq:    e.Seq,
			At:     formatTime(e.At),
			From:   string(e.From),
			To:     string(e.To),
			Reason: e.Reason,
			Actor:  e.Actor,
		}
	}
	return CompanyResponse{
		ID:      c.ID,
		State:   string(c.State),
		Profile: toProfileBody(c.Profile),
		Flags: FlagsResponse{
			WebValidated:          c.Flags.WebValidated,
			LogoAssigned:          c.Flags.LogoAssigned,
			HasConflict:           c.Flags.HasConflict,
			RequiredFieldsPresent: c.Flags.RequiredFieldsPresent,
		},
		Visible:         c.Visible,
		VisitDate:       formatOptionalTime(c.VisitDate),
		SourceRequestID: c.SourceRequestID,
		TransitionLog:   log,
		Version:         c.Version,
		CreatedAt:       formatTime(c.CreatedAt),
		UpdatedAt:       formatTime(c.UpdatedAt),
	}
}

// --- Create / Update ---

type CreateCompanyInput struct {
	Body ProfileBody
}

type UpdateCompanyProfileInput struct {
	ID   string `path:"id" doc:"Company ID"`
	Body ProfileBody
}

type CompanyOutput struct {
	Body CompanyResponse
}

// --- Get / List ---

type CompanyIDInput struct {
	ID string `path:"id" doc:"Company ID"`
}

type ListCompaniesInput struct {
	State   string `query:"state" required:"false" doc:"Filter by lifecycle state"`
	Visible string `query:"visible" required:"false" enum:"true,false" doc:"Filter by directory visibility"`
	Limit   int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset  int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListCompaniesOutput struct {
	Body []CompanyResponse
}

// --- Flags ---

type SetFlagsInput struct {
	ID   string `path:"id" doc:"Company ID"`
	Body struct {
		WebValidated *bool `json:"web_validated,omitempty" doc:"Website checked by an operator"`
		HasConflict  *bool `json:"has_conflict,omitempty" doc:"Open conflict blocking activation"`
	}
}

// --- Transition ---

type TransitionCompanyInput struct {
	ID   string `path:"id" doc:"Company ID"`
	Body TransitionBody
}

// --- Activation ---

type ActivationResponse struct {
	Allowed bool     `json:"allowed"`
	Missing []string `json:"missing" doc:"Unmet activation requirements"`
}

type ActivationOutput struct {
	Body ActivationResponse
}

func registerCompanies(api huma.API, svc *app.WorkflowService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-company",
		Method:      http.MethodPost,
		Path:        "/api/v1/companies",
		Summary:     "Register a company in the catalogued state",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *CreateCompanyInput) (*CompanyOutput, error) {
		company, err := svc.CreateCompany(ctx, input.Body.toDomain())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CompanyOutput{Body: toCompanyResponse(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-company",
		Method:      http.MethodGet,
		Path:        "/api/v1/companies/{id}",
		Summary:     "Get a company by ID",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *CompanyIDInput) (*CompanyOutput, error) {
		company, err := svc.GetCompany(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CompanyOutput{Body: toCompanyResponse(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-companies",
		Method:      http.MethodGet,
		Path:        "/api/v1/companies",
		Summary:     "List companies",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *ListCompaniesInput) (*ListCompaniesOutput, error) {
		filter := domain.CompanyFilter{
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if input.State != "" {
			s := domain.State(input.State)
			filter.State = &s
		}
		if input.Visible != "" {
			v := input.Visible == "true"
			filter.Visible = &v
		}

		companies, err := svc.ListCompanies(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]CompanyResponse, len(companies))
		for i, c := range companies {
			resp[i] = toCompanyResponse(c)
		}
		return &ListCompaniesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-company-profile",
		Method:      http.MethodPut,
		Path:        "/api/v1/companies/{id}/profile",
		Summary:     "Replace a company profile",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *UpdateCompanyProfileInput) (*CompanyOutput, error) {
		company, err := svc.UpdateCompanyProfile(ctx, input.ID, input.Body.toDomain())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CompanyOutput{Body: toCompanyResponse(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-company-flags",
		Method:      http.MethodPatch,
		Path:        "/api/v1/companies/{id}/flags",
		Summary:     "Set review flags",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *SetFlagsInput) (*CompanyOutput, error) {
		company, err := svc.SetCompanyFlags(ctx, input.ID, app.FlagUpdate{
			WebValidated: input.Body.WebValidated,
			HasConflict:  input.Body.HasConflict,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CompanyOutput{Body: toCompanyResponse(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-company",
		Method:      http.MethodPost,
		Path:        "/api/v1/companies/{id}/transitions",
		Summary:     "Move a company to another lifecycle state",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *TransitionCompanyInput) (*CompanyOutput, error) {
		company, err := svc.TransitionCompany(ctx, input.ID, domain.State(input.Body.Target), input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CompanyOutput{Body: toCompanyResponse(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-company-activation",
		Method:      http.MethodGet,
		Path:        "/api/v1/companies/{id}/activation",
		Summary:     "Evaluate the activation requirements",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *CompanyIDInput) (*ActivationOutput, error) {
		check, err := svc.CheckActivation(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		missing := make([]string, len(check.Missing))
		for i, m := range check.Missing {
			missing[i] = string(m)
		}
		return &ActivationOutput{Body: ActivationResponse{Allowed: check.Allowed, Missing: missing}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "company-next-states",
		Method:      http.MethodGet,
		Path:        "/api/v1/companies/{id}/next-states",
		Summary:     "List the states a company may move to",
		Tags:        []string{"Companies"},
	}, func(ctx context.Context, input *CompanyIDInput) (*NextStatesOutput, error) {
		states, err := svc.CompanyNextStates(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &NextStatesOutput{Body: toStates(states)}, nil
	})
}
