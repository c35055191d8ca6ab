package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/partnerflow/internal/adapter/otel"
	"github.com/neomorfeo/partnerflow/internal/adapter/sqlite"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func profile(name string) domain.Profile {
	return domain.Profile{Name: name, Address: "Calle 1", Phone: "555"}
}

// --- Tests ---

func TestTracingCompanyRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingCompanyRepository(newTestStore(t).Companies())

	c := domain.NewCompany("c-1", profile("acme"), now)
	c.SourceRequestID = "r-1"
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "CompanyRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "CompanyRepository.Create")
	}

	assertAttribute(t, spans[0], "company.id", "c-1")
	assertAttribute(t, spans[0], "company.state", "catalogued")
	assertAttribute(t, spans[0], "company.source_request_id", "r-1")
}

func TestTracingCompanyRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingCompanyRepository(newTestStore(t).Companies())

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected an error event on the span")
	}
}

func TestTracingCompanyRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingCompanyRepository(newTestStore(t).Companies())
	ctx := context.Background()

	for _, id := range []string{"c-1", "c-2"} {
		if err := repo.Create(ctx, domain.NewCompany(id, profile(id), now)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	exporter.Reset()

	state := domain.CompanyCatalogued
	companies, err := repo.List(ctx, domain.CompanyFilter{State: &state, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("got %d companies, want 2", len(companies))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "filter.state", "catalogued")
	assertAttribute(t, spans[0], "filter.limit", "10")
	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingCompanyRepository_Update_RecordsConflict(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingCompanyRepository(newTestStore(t).Companies())
	ctx := context.Background()

	c := domain.NewCompany("c-1", profile("acme"), now)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	c.Enter(domain.CompanyPendingValidation, "", "admin", now)
	if err := repo.Update(ctx, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	exporter.Reset()

	// Same version again: the first write already bumped it.
	err := repo.Update(ctx, c)
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "CompanyRepository.Update" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "CompanyRepository.Update")
	}
	assertAttribute(t, spans[0], "company.state", "pending_validation")
	assertAttribute(t, spans[0], "company.version", "0")
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestTracingRequestRepository_RecordsSpans(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingRequestRepository(newTestStore(t).Requests())
	ctx := context.Background()

	if err := repo.Create(ctx, domain.NewRequest("r-1", profile("acme"), "applications", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.GetByID(ctx, "r-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name != "RequestRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "RequestRepository.Create")
	}
	assertAttribute(t, spans[0], "request.source_collection", "applications")
	assertAttribute(t, spans[1], "request.id", "r-1")
}

func TestTracingMembershipRepository_Update_RecordsLedgerAttributes(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingMembershipRepository(newTestStore(t).Memberships())
	ctx := context.Background()

	m := domain.NewMembership("client-1", now)
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Accrue(250, "bonus", now); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	exporter.Reset()

	if err := repo.Update(ctx, m); err != nil {
		t.Fatalf("update: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	assertAttribute(t, spans[0], "membership.client_id", "client-1")
	assertAttribute(t, spans[0], "membership.points_balance", "250")
	assertAttribute(t, spans[0], "membership.tier", "intermediate")
}

func TestTracingCatalogRepository_GetOffer_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingCatalogRepository(newTestStore(t).Catalog())
	ctx := context.Background()

	if err := repo.SaveOffer(ctx, domain.Offer{ID: "o-1", Title: "Wash", PointsRequired: 40}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.GetOffer(ctx, "o-2"); !errors.Is(err, domain.ErrOfferNotFound) {
		t.Fatalf("expected ErrOfferNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	assertAttribute(t, spans[0], "offer.points_required", "40")
	assertAttribute(t, spans[1], "offer.id", "o-2")
	if spans[1].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[1].Status.Code, codes.Error)
	}
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
