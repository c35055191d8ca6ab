package domain

import (
	"fmt"
	"time"
)

// Request is a pending application that becomes a company once approved.
type Request struct {
	ID               string
	State            State
	Payload          Profile
	SourceCollection string
	CompanyID        string
	DecidedBy        string
	DecisionReason   string
	DecidedAt        *time.Time
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewRequest creates a request in the initial "pending" state.
func NewRequest(id string, payload Profile, sourceCollection string, now time.Time) Request {
	return Request{
		ID:               id,
		State:            RequestPending,
		Payload:          payload.clone(),
		SourceCollection: sourceCollection,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Enter moves the request to state, stamping decision metadata on terminal states.
func (r *Request) Enter(state State, reason, actor string, now time.Time) {
	r.State = state
	r.UpdatedAt = now
	if Terminal(WorkflowRequest, state) {
		decided := now
		r.DecidedAt = &decided
		r.DecidedBy = actor
		r.DecisionReason = reason
	}
}

// ApprovalPolicy decides what company an approved request materializes into.
type ApprovalPolicy string

const (
	// ApprovalActivate creates the company directly in "active" with the
	// activation flags satisfied, skipping visit and validation.
	ApprovalActivate ApprovalPolicy = "activate"
	// ApprovalCatalogue creates the company in "catalogued" so it goes
	// through the regular validation pipeline.
	ApprovalCatalogue ApprovalPolicy = "catalogue"
)

// Valid reports whether p is a known policy.
func (p ApprovalPolicy) Valid() bool {
	return p == ApprovalActivate || p == ApprovalCatalogue
}

// CompanyFromRequest materializes the company created by approving req.
// The payload is copied field by field and SourceRequestID links back to req.
func CompanyFromRequest(id string, req Request, policy ApprovalPolicy, actor string, now time.Time) (Company, error) {
	c := NewCompany(id, req.Payload, now)
	c.SourceRequestID = req.ID
	// The first log entry records creation, so it has no source state.
	c.State = ""
	reason := fmt.Sprintf("approved request %s", req.ID)

	switch policy {
	case ApprovalActivate:
		c.Flags = Flags{
			WebValidated:          true,
			LogoAssigned:          true,
			HasConflict:           false,
			RequiredFieldsPresent: true,
		}
		c.Enter(CompanyActive, reason, actor, now)
	case ApprovalCatalogue:
		c.Enter(CompanyCatalogued, reason, actor, now)
	default:
		return Company{}, fmt.Errorf("unknown approval policy %q", policy)
	}
	return c, nil
}
