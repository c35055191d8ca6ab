package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

const tracerName = "github.com/neomorfeo/partnerflow/internal/adapter/otel"

// finish records err on the span, if any, and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// --- Companies ---

// TracingCompanyRepository wraps a domain.CompanyRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingCompanyRepository struct {
	next   domain.CompanyRepository
	tracer trace.Tracer
}

// Compile-time check: TracingCompanyRepository implements domain.CompanyRepository.
var _ domain.CompanyRepository = (*TracingCompanyRepository)(nil)

// NewTracingCompanyRepository creates a tracing decorator around the given repository.
func NewTracingCompanyRepository(next domain.CompanyRepository) *TracingCompanyRepository {
	return &TracingCompanyRepository{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingCompanyRepository) Create(ctx context.Context, c domain.Company) (err error) {
	ctx, span := r.tracer.Start(ctx, "CompanyRepository.Create",
		trace.WithAttributes(
			attribute.String("company.id", c.ID),
			attribute.String("company.state", string(c.State)),
		),
	)
	defer func() { finish(span, err) }()

	if c.SourceRequestID != "" {
		span.SetAttributes(attribute.String("company.source_request_id", c.SourceRequestID))
	}
	return r.next.Create(ctx, c)
}

func (r *TracingCompanyRepository) GetByID(ctx context.Context, id string) (c domain.Company, err error) {
	ctx, span := r.tracer.Start(ctx, "CompanyRepository.GetByID",
		trace.WithAttributes(attribute.String("company.id", id)),
	)
	defer func() { finish(span, err) }()

	return r.next.GetByID(ctx, id)
}

func (r *TracingCompanyRepository) List(ctx context.Context, filter domain.CompanyFilter) (companies []domain.Company, err error) {
	ctx, span := r.tracer.Start(ctx, "CompanyRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer func() { finish(span, err) }()

	if filter.State != nil {
		span.SetAttributes(attribute.String("filter.state", string(*filter.State)))
	}
	if filter.Visible != nil {
		span.SetAttributes(attribute.Bool("filter.visible", *filter.Visible))
	}

	companies, err = r.next.List(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(companies)))
	}
	return companies, err
}

func (r *TracingCompanyRepository) Update(ctx context.Context, c domain.Company) (err error) {
	ctx, span := r.tracer.Start(ctx, "CompanyRepository.Update",
		trace.WithAttributes(
			attribute.String("company.id", c.ID),
			attribute.String("company.state", string(c.State)),
			attribute.Int("company.version", c.Version),
		),
	)
	defer func() { finish(span, err) }()

	return r.next.Update(ctx, c)
}

// --- Requests ---

// TracingRequestRepository wraps a domain.RequestRepository with OpenTelemetry tracing.
type TracingRequestRepository struct {
	next   domain.RequestRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRequestRepository implements domain.RequestRepository.
var _ domain.RequestRepository = (*TracingRequestRepository)(nil)

// NewTracingRequestRepository creates a tracing decorator around the given repository.
func NewTracingRequestRepository(next domain.RequestRepository) *TracingRequestRepository {
	return &TracingRequestRepository{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingRequestRepository) Create(ctx context.Context, req domain.Request) (err error) {
	ctx, span := r.tracer.Start(ctx, "RequestRepository.Create",
		trace.WithAttributes(
			attribute.String("request.id", req.ID),
			attribute.String("request.source_collection", req.SourceCollection),
		),
	)
	defer func() { finish(span, err) }()

	return r.next.Create(ctx, req)
}

func (r *TracingRequestRepository) GetByID(ctx context.Context, id string) (req domain.Request, err error) {
	ctx, span := r.tracer.Start(ctx, "RequestRepository.GetByID",
		trace.WithAttributes(attribute.String("request.id", id)),
	)
	defer func() { finish(span, err) }()

	return r.next.GetByID(ctx, id)
}

func (r *TracingRequestRepository) List(ctx context.Context, filter domain.RequestFilter) (requests []domain.Request, err error) {
	ctx, span := r.tracer.Start(ctx, "RequestRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer func() { finish(span, err) }()

	if filter.State != nil {
		span.SetAttributes(attribute.String("filter.state", string(*filter.State)))
	}

	requests, err = r.next.List(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(requests)))
	}
	return requests, err
}

func (r *TracingRequestRepository) Update(ctx context.Context, req domain.Request) (err error) {
	ctx, span := r.tracer.Start(ctx, "RequestRepository.Update",
		trace.WithAttributes(
			attribute.String("request.id", req.ID),
			attribute.String("request.state", string(req.State)),
			attribute.Int("request.version", req.Version),
		),
	)
	defer func() { finish(span, err) }()

	return r.next.Update(ctx, req)
}

// --- Memberships ---

// TracingMembershipRepository wraps a domain.MembershipRepository with OpenTelemetry tracing.
type TracingMembershipRepository struct {
	next   domain.MembershipRepository
	tracer trace.Tracer
}

// Compile-time check: TracingMembershipRepository implements domain.MembershipRepository.
var _ domain.MembershipRepository = (*TracingMembershipRepository)(nil)

// NewTracingMembershipRepository creates a tracing decorator around the given repository.
func NewTracingMembershipRepository(next domain.MembershipRepository) *TracingMembershipRepository {
	return &TracingMembershipRepository{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingMembershipRepository) Create(ctx context.Context, m domain.Membership) (err error) {
	ctx, span := r.tracer.Start(ctx, "MembershipRepository.Create",
		trace.WithAttributes(attribute.String("membership.client_id", m.ClientID)),
	)
	defer func() { finish(span, err) }()

	return r.next.Create(ctx, m)
}

func (r *TracingMembershipRepository) GetByID(ctx context.Context, clientID string) (m domain.Membership, err error) {
	ctx, span := r.tracer.Start(ctx, "MembershipRepository.GetByID",
		trace.WithAttributes(attribute.String("membership.client_id", clientID)),
	)
	defer func() { finish(span, err) }()

	return r.next.GetByID(ctx, clientID)
}

func (r *TracingMembershipRepository) Update(ctx context.Context, m domain.Membership) (err error) {
	ctx, span := r.tracer.Start(ctx, "MembershipRepository.Update",
		trace.WithAttributes(
			attribute.String("membership.client_id", m.ClientID),
			attribute.Int64("membership.points_balance", m.PointsBalance),
			attribute.String("membership.tier", string(m.Tier)),
			attribute.Int("membership.version", m.Version),
		),
	)
	defer func() { finish(span, err) }()

	return r.next.Update(ctx, m)
}

// --- Catalog ---

// TracingCatalogRepository wraps a domain.CatalogRepository with OpenTelemetry tracing.
type TracingCatalogRepository struct {
	next   domain.CatalogRepository
	tracer trace.Tracer
}

// Compile-time check: TracingCatalogRepository implements domain.CatalogRepository.
var _ domain.CatalogRepository = (*TracingCatalogRepository)(nil)

// NewTracingCatalogRepository creates a tracing decorator around the given repository.
func NewTracingCatalogRepository(next domain.CatalogRepository) *TracingCatalogRepository {
	return &TracingCatalogRepository{next: next, tracer: otel.Tracer(tracerName)}
}

func (r *TracingCatalogRepository) SaveOffer(ctx context.Context, o domain.Offer) (err error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.SaveOffer",
		trace.WithAttributes(
			attribute.String("offer.id", o.ID),
			attribute.Int64("offer.points_required", o.PointsRequired),
		),
	)
	defer func() { finish(span, err) }()

	return r.next.SaveOffer(ctx, o)
}

func (r *TracingCatalogRepository) GetOffer(ctx context.Context, id string) (o domain.Offer, err error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.GetOffer",
		trace.WithAttributes(attribute.String("offer.id", id)),
	)
	defer func() { finish(span, err) }()

	return r.next.GetOffer(ctx, id)
}

func (r *TracingCatalogRepository) ListOffers(ctx context.Context) (offers []domain.Offer, err error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.ListOffers")
	defer func() { finish(span, err) }()

	return r.next.ListOffers(ctx)
}

func (r *TracingCatalogRepository) SavePlan(ctx context.Context, p domain.Plan) (err error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.SavePlan",
		trace.WithAttributes(attribute.String("plan.id", p.ID)),
	)
	defer func() { finish(span, err) }()

	return r.next.SavePlan(ctx, p)
}

func (r *TracingCatalogRepository) GetPlan(ctx context.Context, id string) (p domain.Plan, err error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.GetPlan",
		trace.WithAttributes(attribute.String("plan.id", id)),
	)
	defer func() { finish(span, err) }()

	return r.next.GetPlan(ctx, id)
}

func (r *TracingCatalogRepository) ListPlans(ctx context.Context) (plans []domain.Plan, err error) {
	ctx, span := r.tracer.Start(ctx, "CatalogRepository.ListPlans")
	defer func() { finish(span, err) }()

	return r.next.ListPlans(ctx)
}
