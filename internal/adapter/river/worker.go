package river

import (
	"context"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// NotificationWorker delivers notification jobs from the River queue.
// Delivery is a structured log line; the UI layer tails it.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
	logger *zap.Logger
}

// Work processes a single notification job.
func (w *NotificationWorker) Work(_ context.Context, job *river.Job[NotificationJobArgs]) error {
	fields := []zap.Field{
		zap.String("event", job.Args.Event),
		zap.String("entity_kind", job.Args.EntityKind),
		zap.String("entity_id", job.Args.EntityID),
		zap.String("actor", job.Args.Actor),
		zap.Time("at", job.Args.At),
		zap.Int64("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	}
	if job.Args.Detail != "" {
		fields = append(fields, zap.String("detail", job.Args.Detail))
	}

	if job.Args.Success {
		w.logger.Info("notification", fields...)
	} else {
		w.logger.Warn("notification", fields...)
	}
	return nil
}
