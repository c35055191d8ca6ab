package domain

import "context"

// CompanyRepository defines the persistence contract for companies.
// Update is a compare-and-swap on Version and returns ErrConcurrentUpdate
// when the stored version differs. Transition log entries are append-only.
type CompanyRepository interface {
	Create(ctx context.Context, company Company) error
	GetByID(ctx context.Context, id string) (Company, error)
	List(ctx context.Context, filter CompanyFilter) ([]Company, error)
	Update(ctx context.Context, company Company) error
}

// CompanyFilter holds optional criteria for listing companies.
type CompanyFilter struct {
	State   *State
	Visible *bool
	Limit   int
	Offset  int
}

// RequestRepository defines the persistence contract for requests.
// Update is a compare-and-swap on Version.
type RequestRepository interface {
	Create(ctx context.Context, request Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, filter RequestFilter) ([]Request, error)
	Update(ctx context.Context, request Request) error
}

// RequestFilter holds optional criteria for listing requests.
type RequestFilter struct {
	State  *State
	Limit  int
	Offset int
}

// MembershipRepository defines the persistence contract for memberships.
// Update is a compare-and-swap on Version; activity and redemption entries
// are append-only.
type MembershipRepository interface {
	Create(ctx context.Context, membership Membership) error
	GetByID(ctx context.Context, clientID string) (Membership, error)
	Update(ctx context.Context, membership Membership) error
}

// CatalogRepository stores offers and plans. Both are read-only to the ledger.
type CatalogRepository interface {
	SaveOffer(ctx context.Context, offer Offer) error
	GetOffer(ctx context.Context, id string) (Offer, error)
	ListOffers(ctx context.Context) ([]Offer, error)
	SavePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
}

// Transactor runs fn inside a single store transaction. Repositories called
// with the context passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransitionValidator answers whether a state change is legal for a workflow.
type TransitionValidator interface {
	Validate(ctx context.Context, kind WorkflowKind, current, target State) error
	Next(ctx context.Context, kind WorkflowKind, current State) []State
}

// EventPublisher is the fire-and-forget notification sink.
type EventPublisher interface {
	Publish(ctx context.Context, n Notification) error
}

// IdentityProvider supplies the acting user for audit entries.
type IdentityProvider interface {
	Actor(ctx context.Context) Actor
}
