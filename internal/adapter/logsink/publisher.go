// Package logsink delivers notifications as structured log lines.
package logsink

import (
	"context"

	"go.uber.org/zap"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Publisher writes each notification to the logger. Rejections log at warn level.
type Publisher struct {
	logger *zap.Logger
}

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger.Named("notifications")}
}

func (p *Publisher) Publish(_ context.Context, n domain.Notification) error {
	fields := []zap.Field{
		zap.String("event", string(n.Event)),
		zap.String("entity_kind", n.EntityKind),
		zap.String("entity_id", n.EntityID),
		zap.String("actor", n.Actor),
		zap.Time("at", n.At),
	}
	if n.Detail != "" {
		fields = append(fields, zap.String("detail", n.Detail))
	}

	if n.Success {
		p.logger.Info("notification", fields...)
	} else {
		p.logger.Warn("notification", fields...)
	}
	return nil
}
