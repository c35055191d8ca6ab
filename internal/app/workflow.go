package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// WorkflowService orchestrates the company and request lifecycles.
type WorkflowService struct {
	companies domain.CompanyRepository
	requests  domain.RequestRepository
	tx        domain.Transactor
	validator domain.TransitionValidator
	notifier  notifier
	logger    *zap.Logger
	opts      options
}

// NewWorkflowService creates a service with the given adapters.
func NewWorkflowService(
	companies domain.CompanyRepository,
	requests domain.RequestRepository,
	tx domain.Transactor,
	validator domain.TransitionValidator,
	publisher domain.EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) (*WorkflowService, error) {
	o := buildOptions(opts)
	if !o.policy.Valid() {
		return nil, fmt.Errorf("unknown approval policy %q", o.policy)
	}

	logger = logger.Named("workflow")
	return &WorkflowService{
		companies: companies,
		requests:  requests,
		tx:        tx,
		validator: validator,
		notifier:  notifier{publisher: publisher, logger: logger},
		logger:    logger,
		opts:      o,
	}, nil
}

// FlagUpdate carries the review flags an operator may set. Nil fields are left as is.
// LogoAssigned and RequiredFieldsPresent are derived from the profile.
type FlagUpdate struct {
	WebValidated *bool
	HasConflict  *bool
}

// --- Companies ---

// CreateCompany registers a new company in "catalogued".
func (s *WorkflowService) CreateCompany(ctx context.Context, profile domain.Profile) (domain.Company, error) {
	actor := s.opts.identity.Actor(ctx)

	id, err := generateID()
	if err != nil {
		return domain.Company{}, fmt.Errorf("generating company id: %w", err)
	}

	company := domain.NewCompany(id, profile, s.opts.now())
	if err := s.companies.Create(ctx, company); err != nil {
		s.notifier.failed(ctx, domain.EventCompanyCreated, domain.EntityCompany, id, actor, err, s.opts.now())
		return domain.Company{}, fmt.Errorf("creating company: %w", err)
	}

	s.notifier.succeeded(ctx, domain.EventCompanyCreated, domain.EntityCompany, id, actor, profile.Name, company.CreatedAt)
	return company, nil
}

// GetCompany returns a company with its transition log.
func (s *WorkflowService) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	return s.companies.GetByID(ctx, id)
}

// ListCompanies returns companies matching the given filter.
func (s *WorkflowService) ListCompanies(ctx context.Context, filter domain.CompanyFilter) ([]domain.Company, error) {
	return s.companies.List(ctx, filter)
}

// UpdateCompanyProfile replaces the profile and recomputes the derived flags.
func (s *WorkflowService) UpdateCompanyProfile(ctx context.Context, id string, profile domain.Profile) (domain.Company, error) {
	return s.mutateCompany(ctx, id, domain.EventCompanyUpdated, func(c *domain.Company) (string, error) {
		c.SetProfile(profile)
		return "profile updated", nil
	})
}

// SetCompanyFlags updates the review flags consulted by the activation gate.
func (s *WorkflowService) SetCompanyFlags(ctx context.Context, id string, update FlagUpdate) (domain.Company, error) {
	return s.mutateCompany(ctx, id, domain.EventCompanyUpdated, func(c *domain.Company) (string, error) {
		var changed []string
		if update.WebValidated != nil {
			c.Flags.WebValidated = *update.WebValidated
			changed = append(changed, fmt.Sprintf("web_validated=%t", *update.WebValidated))
		}
		if update.HasConflict != nil {
			c.Flags.HasConflict = *update.HasConflict
			changed = append(changed, fmt.Sprintf("has_conflict=%t", *update.HasConflict))
		}
		return "flags " + strings.Join(changed, " "), nil
	})
}

// CheckActivation evaluates the activation gate for a stored company.
func (s *WorkflowService) CheckActivation(ctx context.Context, id string) (domain.ActivationCheck, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return domain.ActivationCheck{}, err
	}
	return domain.CanActivate(c), nil
}

// TransitionCompany moves a company to target. Leaving "validated" for
// "active" also requires the activation gate to pass.
func (s *WorkflowService) TransitionCompany(ctx context.Context, id string, target domain.State, reason string) (domain.Company, error) {
	actor := s.opts.identity.Actor(ctx)
	var from domain.State

	company, err := s.mutateCompany(ctx, id, domain.EventCompanyTransition, func(c *domain.Company) (string, error) {
		if err := s.validator.Validate(ctx, domain.WorkflowCompany, c.State, target); err != nil {
			return "", err
		}
		if c.State == domain.CompanyValidated && target == domain.CompanyActive {
			if check := domain.CanActivate(*c); !check.Allowed {
				return "", &domain.ActivationError{CompanyID: c.ID, Missing: check.Missing}
			}
		}
		from = c.State
		c.Enter(target, reason, actor.ID, s.opts.now())
		return fmt.Sprintf("%s -> %s", from, target), nil
	})
	if err != nil {
		return domain.Company{}, err
	}

	s.logger.Info("company transitioned",
		zap.String("company_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actor.ID),
	)
	return company, nil
}

// CompanyNextStates lists the states the company may move to next.
func (s *WorkflowService) CompanyNextStates(ctx context.Context, id string) ([]domain.State, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.validator.Next(ctx, domain.WorkflowCompany, c.State), nil
}

// mutateCompany runs a read-modify-write on one company under compare-and-swap,
// retrying lost races, and reports the outcome to the notification sink.
func (s *WorkflowService) mutateCompany(
	ctx context.Context,
	id string,
	event domain.EventType,
	fn func(c *domain.Company) (string, error),
) (domain.Company, error) {
	actor := s.opts.identity.Actor(ctx)

	var company domain.Company
	var detail string
	err := retryOnConflict(ctx, s.opts.retries, func() error {
		c, err := s.companies.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if detail, err = fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = s.opts.now()

		if err := s.companies.Update(ctx, c); err != nil {
			return err
		}
		c.Version++
		company = c
		return nil
	})
	if err != nil {
		s.notifier.failed(ctx, event, domain.EntityCompany, id, actor, err, s.opts.now())
		return domain.Company{}, fmt.Errorf("updating company %s: %w", id, err)
	}

	s.notifier.succeeded(ctx, event, domain.EntityCompany, id, actor, detail, company.UpdatedAt)
	return company, nil
}

// --- Requests ---

// CreateRequest files a new request in "pending".
func (s *WorkflowService) CreateRequest(ctx context.Context, payload domain.Profile, sourceCollection string) (domain.Request, error) {
	actor := s.opts.identity.Actor(ctx)

	id, err := generateID()
	if err != nil {
		return domain.Request{}, fmt.Errorf("generating request id: %w", err)
	}

	req := domain.NewRequest(id, payload, sourceCollection, s.opts.now())
	if err := s.requests.Create(ctx, req); err != nil {
		s.notifier.failed(ctx, domain.EventRequestCreated, domain.EntityRequest, id, actor, err, s.opts.now())
		return domain.Request{}, fmt.Errorf("creating request: %w", err)
	}

	s.notifier.succeeded(ctx, domain.EventRequestCreated, domain.EntityRequest, id, actor, payload.Name, req.CreatedAt)
	return req, nil
}

// GetRequest returns a request by its identifier.
func (s *WorkflowService) GetRequest(ctx context.Context, id string) (domain.Request, error) {
	return s.requests.GetByID(ctx, id)
}

// ListRequests returns requests matching the given filter.
func (s *WorkflowService) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.Request, error) {
	return s.requests.List(ctx, filter)
}

// RequestNextStates lists the states the request may move to next.
func (s *WorkflowService) RequestNextStates(ctx context.Context, id string) ([]domain.State, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.validator.Next(ctx, domain.WorkflowRequest, req.State), nil
}

// TransitionRequest moves a request to target. Approval is routed through
// ApproveRequest; the returned company is nil for every other target.
func (s *WorkflowService) TransitionRequest(ctx context.Context, id string, target domain.State, reason string) (domain.Request, *domain.Company, error) {
	if target == domain.RequestApproved {
		req, company, err := s.ApproveRequest(ctx, id, reason)
		if err != nil {
			return domain.Request{}, nil, err
		}
		return req, &company, nil
	}

	actor := s.opts.identity.Actor(ctx)

	var req domain.Request
	err := retryOnConflict(ctx, s.opts.retries, func() error {
		r, err := s.requests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.validator.Validate(ctx, domain.WorkflowRequest, r.State, target); err != nil {
			return err
		}

		r.Enter(target, reason, actor.ID, s.opts.now())
		if err := s.requests.Update(ctx, r); err != nil {
			return err
		}
		r.Version++
		req = r
		return nil
	})
	if err != nil {
		s.notifier.failed(ctx, domain.EventRequestTransition, domain.EntityRequest, id, actor, err, s.opts.now())
		return domain.Request{}, nil, fmt.Errorf("transitioning request %s: %w", id, err)
	}

	s.notifier.succeeded(ctx, domain.EventRequestTransition, domain.EntityRequest, id, actor, string(target), req.UpdatedAt)
	return req, nil, nil
}

// ApproveRequest approves a request and materializes its company. The request
// update and the company insert commit together, so a request yields at most
// one company.
func (s *WorkflowService) ApproveRequest(ctx context.Context, id, reason string) (domain.Request, domain.Company, error) {
	actor := s.opts.identity.Actor(ctx)

	var req domain.Request
	var company domain.Company
	err := retryOnConflict(ctx, s.opts.retries, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			r, err := s.requests.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if err := s.validator.Validate(ctx, domain.WorkflowRequest, r.State, domain.RequestApproved); err != nil {
				return err
			}

			companyID, err := generateID()
			if err != nil {
				return fmt.Errorf("generating company id: %w", err)
			}

			now := s.opts.now()
			c, err := domain.CompanyFromRequest(companyID, r, s.opts.policy, actor.ID, now)
			if err != nil {
				return err
			}

			r.Enter(domain.RequestApproved, reason, actor.ID, now)
			r.CompanyID = c.ID
			if err := s.requests.Update(ctx, r); err != nil {
				return err
			}
			if err := s.companies.Create(ctx, c); err != nil {
				return err
			}

			r.Version++
			req, company = r, c
			return nil
		})
	})
	if err != nil {
		s.notifier.failed(ctx, domain.EventRequestApproved, domain.EntityRequest, id, actor, err, s.opts.now())
		return domain.Request{}, domain.Company{}, fmt.Errorf("approving request %s: %w", id, err)
	}

	s.logger.Info("request approved",
		zap.String("request_id", id),
		zap.String("company_id", company.ID),
		zap.String("company_state", string(company.State)),
		zap.String("policy", string(s.opts.policy)),
	)

	s.notifier.succeeded(ctx, domain.EventRequestApproved, domain.EntityRequest, id, actor, company.ID, req.UpdatedAt)
	s.notifier.succeeded(ctx, domain.EventCompanyCreated, domain.EntityCompany, company.ID, actor, "from request "+id, company.CreatedAt)
	return req, company, nil
}
