package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// NotificationJobArgs carries a notification through River's job queue.
// River serializes this as JSON into its job table, so the worker never
// needs to query the entity the notification is about.
type NotificationJobArgs struct {
	Event      string    `json:"event"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Actor      string    `json:"actor"`
	Success    bool      `json:"success"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "notification.published" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a notification as an async job in River.
func (p *Publisher) Publish(ctx context.Context, n domain.Notification) error {
	_, err := p.client.Insert(ctx, NotificationJobArgs{
		Event:      string(n.Event),
		EntityKind: n.EntityKind,
		EntityID:   n.EntityID,
		Actor:      n.Actor,
		Success:    n.Success,
		Detail:     n.Detail,
		At:         n.At,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}
