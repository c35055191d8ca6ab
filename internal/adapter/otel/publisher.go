package otel

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, n domain.Notification) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(
			attribute.String("notification.event", string(n.Event)),
			attribute.String("notification.entity_kind", n.EntityKind),
			attribute.String("notification.entity_id", n.EntityID),
			attribute.Bool("notification.success", n.Success),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// MeteringPublisher counts notifications by event and outcome before passing
// them on. Operations rejected by the engine show up as success="false".
type MeteringPublisher struct {
	next      domain.EventPublisher
	published metric.Int64Counter
	failed    metric.Int64Counter
}

// Compile-time check: MeteringPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*MeteringPublisher)(nil)

// NewMeteringPublisher creates a metering decorator using the global meter provider.
func NewMeteringPublisher(next domain.EventPublisher) (*MeteringPublisher, error) {
	meter := otel.Meter(tracerName)

	published, err := meter.Int64Counter("partnerflow.notifications",
		metric.WithDescription("Notifications emitted by the engine"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notifications counter: %w", err)
	}

	failed, err := meter.Int64Counter("partnerflow.notifications.publish_errors",
		metric.WithDescription("Notifications the sink refused"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating publish errors counter: %w", err)
	}

	return &MeteringPublisher{next: next, published: published, failed: failed}, nil
}

func (p *MeteringPublisher) Publish(ctx context.Context, n domain.Notification) error {
	attrs := metric.WithAttributes(
		attribute.String("event", string(n.Event)),
		attribute.String("entity_kind", n.EntityKind),
		attribute.String("success", strconv.FormatBool(n.Success)),
	)
	p.published.Add(ctx, 1, attrs)

	err := p.next.Publish(ctx, n)
	if err != nil {
		p.failed.Add(ctx, 1, attrs)
	}
	return err
}
