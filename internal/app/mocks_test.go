package app_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// --- Mocks ---

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

// mockCompanies is an in-memory CompanyRepository with compare-and-swap updates.
// Setting conflicts makes the next Update calls lose the race.
type mockCompanies struct {
	mu        sync.Mutex
	companies map[string]domain.Company
	conflicts int
	updates   int
}

func newMockCompanies() *mockCompanies {
	return &mockCompanies{companies: make(map[string]domain.Company)}
}

func (m *mockCompanies) Create(_ context.Context, c domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[c.ID]; ok {
		return domain.ErrConcurrentUpdate
	}
	for _, existing := range m.companies {
		if c.SourceRequestID != "" && existing.SourceRequestID == c.SourceRequestID {
			return domain.ErrConcurrentUpdate
		}
	}
	c.TransitionLog = slices.Clone(c.TransitionLog)
	m.companies[c.ID] = c
	return nil
}

func (m *mockCompanies) GetByID(_ context.Context, id string) (domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return domain.Company{}, domain.ErrCompanyNotFound
	}
	c.TransitionLog = slices.Clone(c.TransitionLog)
	return c, nil
}

func (m *mockCompanies) List(_ context.Context, filter domain.CompanyFilter) ([]domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Company
	for _, c := range m.companies {
		if filter.State != nil && c.State != *filter.State {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCompanies) Update(_ context.Context, c domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.companies[c.ID]
	if !ok {
		return domain.ErrCompanyNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		return domain.ErrConcurrentUpdate
	}
	if stored.Version != c.Version {
		return domain.ErrConcurrentUpdate
	}
	c.Version++
	c.TransitionLog = slices.Clone(c.TransitionLog)
	m.companies[c.ID] = c
	m.updates++
	return nil
}

type mockRequests struct {
	mu       sync.Mutex
	requests map[string]domain.Request
}

func newMockRequests() *mockRequests {
	return &mockRequests{requests: make(map[string]domain.Request)}
}

func (m *mockRequests) Create(_ context.Context, r domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *mockRequests) GetByID(_ context.Context, id string) (domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.Request{}, domain.ErrRequestNotFound
	}
	return r, nil
}

func (m *mockRequests) List(_ context.Context, _ domain.RequestFilter) ([]domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Request, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRequests) Update(_ context.Context, r domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[r.ID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if stored.Version != r.Version {
		return domain.ErrConcurrentUpdate
	}
	r.Version++
	m.requests[r.ID] = r
	return nil
}

type mockMemberships struct {
	mu          sync.Mutex
	memberships map[string]domain.Membership
	conflicts   int
}

func newMockMemberships() *mockMemberships {
	return &mockMemberships{memberships: make(map[string]domain.Membership)}
}

func (m *mockMemberships) Create(_ context.Context, mb domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.memberships[mb.ClientID]; ok {
		return domain.ErrConcurrentUpdate
	}
	m.memberships[mb.ClientID] = mb.Clone()
	return nil
}

func (m *mockMemberships) GetByID(_ context.Context, clientID string) (domain.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mb, ok := m.memberships[clientID]
	if !ok {
		return domain.Membership{}, domain.ErrMembershipNotFound
	}
	return mb.Clone(), nil
}

func (m *mockMemberships) Update(_ context.Context, mb domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.memberships[mb.ClientID]
	if !ok {
		return domain.ErrMembershipNotFound
	}
	if m.conflicts > 0 {
		m.conflicts--
		return domain.ErrConcurrentUpdate
	}
	if stored.Version != mb.Version {
		return domain.ErrConcurrentUpdate
	}
	mb.Version++
	m.memberships[mb.ClientID] = mb.Clone()
	return nil
}

type mockCatalog struct {
	offers map[string]domain.Offer
	plans  map[string]domain.Plan
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		offers: make(map[string]domain.Offer),
		plans:  make(map[string]domain.Plan),
	}
}

func (m *mockCatalog) SaveOffer(_ context.Context, o domain.Offer) error {
	m.offers[o.ID] = o
	return nil
}

func (m *mockCatalog) GetOffer(_ context.Context, id string) (domain.Offer, error) {
	o, ok := m.offers[id]
	if !ok {
		return domain.Offer{}, domain.ErrOfferNotFound
	}
	return o, nil
}

func (m *mockCatalog) ListOffers(_ context.Context) ([]domain.Offer, error) {
	out := make([]domain.Offer, 0, len(m.offers))
	for _, o := range m.offers {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockCatalog) SavePlan(_ context.Context, p domain.Plan) error {
	m.plans[p.ID] = p
	return nil
}

func (m *mockCatalog) GetPlan(_ context.Context, id string) (domain.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return domain.Plan{}, domain.ErrPlanNotFound
	}
	return p, nil
}

func (m *mockCatalog) ListPlans(_ context.Context) ([]domain.Plan, error) {
	out := make([]domain.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

// passthroughTx runs fn without a real transaction.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Notification
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, n)
	return m.err
}

func (m *mockPublisher) last() domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return domain.Notification{}
	}
	return m.events[len(m.events)-1]
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
