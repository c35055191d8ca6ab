package domain

import (
	"context"
	"time"
)

// EventType names what happened in a notification.
type EventType string

const (
	EventCompanyCreated    EventType = "company_created"
	EventCompanyUpdated    EventType = "company_updated"
	EventCompanyTransition EventType = "company_transition"
	EventRequestCreated    EventType = "request_created"
	EventRequestTransition EventType = "request_transition"
	EventRequestApproved   EventType = "request_approved"
	EventPointsAccrued     EventType = "points_accrued"
	EventOfferRedeemed     EventType = "offer_redeemed"
	EventPlanAssigned      EventType = "plan_assigned"
)

// Entity kinds carried by notifications.
const (
	EntityCompany    = "company"
	EntityRequest    = "request"
	EntityMembership = "membership"
)

// Notification is the success or failure signal sent to the UI layer.
type Notification struct {
	Event      EventType
	EntityKind string
	EntityID   string
	Actor      string
	Success    bool
	Detail     string
	At         time.Time
}

// SystemActor is recorded when no identity is attached to the context.
const SystemActor = "system"

// Actor is the user on whose behalf the engine acts.
type Actor struct {
	ID   string
	Role string
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ContextIdentity reads the actor placed in the context by WithActor.
type ContextIdentity struct{}

// Actor returns the context actor, or SystemActor when none is set.
func (ContextIdentity) Actor(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok && a.ID != "" {
		return a
	}
	return Actor{ID: SystemActor, Role: SystemActor}
}
