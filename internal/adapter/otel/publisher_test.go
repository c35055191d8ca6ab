package otel_test

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	adapter "github.com/neomorfeo/partnerflow/internal/adapter/otel"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []domain.Notification
}

func (m *mockPublisher) Publish(_ context.Context, n domain.Notification) error {
	m.events = append(m.events, n)
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.Notification) error {
	return fmt.Errorf("publish failed")
}

func transitionNotification(success bool) domain.Notification {
	return domain.Notification{
		Event:      domain.EventCompanyTransition,
		EntityKind: domain.EntityCompany,
		EntityID:   "c-1",
		Actor:      "admin-1",
		Success:    success,
	}
}

func setupTestMeter(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader
}

func counterPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data.(metricdata.Sum[int64]).DataPoints
			}
		}
	}
	return nil
}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	if err := pub.Publish(context.Background(), transitionNotification(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "notification.event", "company_transition")
	assertAttribute(t, spans[0], "notification.entity_kind", "company")
	assertAttribute(t, spans[0], "notification.entity_id", "c-1")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	if err := pub.Publish(context.Background(), transitionNotification(true)); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}

func TestMeteringPublisher_CountsByOutcome(t *testing.T) {
	reader := setupTestMeter(t)
	inner := &mockPublisher{}
	pub, err := adapter.NewMeteringPublisher(inner)
	if err != nil {
		t.Fatalf("NewMeteringPublisher failed: %v", err)
	}

	ctx := context.Background()
	for _, success := range []bool{true, true, false} {
		if err := pub.Publish(ctx, transitionNotification(success)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	points := counterPoints(t, reader, "partnerflow.notifications")
	counts := map[string]int64{}
	for _, dp := range points {
		v, _ := dp.Attributes.Value(attribute.Key("success"))
		counts[v.AsString()] += dp.Value
	}
	if counts["true"] != 2 || counts["false"] != 1 {
		t.Errorf("counts = %v, want true=2 false=1", counts)
	}
	if len(inner.events) != 3 {
		t.Errorf("forwarded %d notifications, want 3", len(inner.events))
	}
	if got := counterPoints(t, reader, "partnerflow.notifications.publish_errors"); len(got) != 0 {
		t.Errorf("publish errors = %v, want none", got)
	}
}

func TestMeteringPublisher_CountsSinkErrors(t *testing.T) {
	reader := setupTestMeter(t)
	pub, err := adapter.NewMeteringPublisher(&failingPublisher{})
	if err != nil {
		t.Fatalf("NewMeteringPublisher failed: %v", err)
	}

	if err := pub.Publish(context.Background(), transitionNotification(true)); err == nil {
		t.Fatal("expected error")
	}

	points := counterPoints(t, reader, "partnerflow.notifications.publish_errors")
	if len(points) != 1 || points[0].Value != 1 {
		t.Errorf("publish errors = %v, want one point of 1", points)
	}
}
