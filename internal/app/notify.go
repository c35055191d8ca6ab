package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// notifier sends fire-and-forget notifications. Publish failures are logged
// and never reach the caller.
type notifier struct {
	publisher domain.EventPublisher
	logger    *zap.Logger
}

func (n notifier) send(ctx context.Context, note domain.Notification) {
	// The operation already happened; a cancelled caller must not drop its notification.
	if err := n.publisher.Publish(context.WithoutCancel(ctx), note); err != nil {
		n.logger.Warn("publishing notification failed",
			zap.String("event", string(note.Event)),
			zap.String("entity_id", note.EntityID),
			zap.Error(err),
		)
	}
}

func (n notifier) succeeded(ctx context.Context, event domain.EventType, kind, id string, actor domain.Actor, detail string, at time.Time) {
	n.send(ctx, domain.Notification{
		Event:      event,
		EntityKind: kind,
		EntityID:   id,
		Actor:      actor.ID,
		Success:    true,
		Detail:     detail,
		At:         at,
	})
}

func (n notifier) failed(ctx context.Context, event domain.EventType, kind, id string, actor domain.Actor, cause error, at time.Time) {
	n.send(ctx, domain.Notification{
		Event:      event,
		EntityKind: kind,
		EntityID:   id,
		Actor:      actor.ID,
		Success:    false,
		Detail:     cause.Error(),
		At:         at,
	})
}
