package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNotFound           = errors.New("not found")
	ErrCompanyNotFound    = fmt.Errorf("company %w", ErrNotFound)
	ErrRequestNotFound    = fmt.Errorf("request %w", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("membership %w", ErrNotFound)
	ErrOfferNotFound      = fmt.Errorf("offer %w", ErrNotFound)
	ErrPlanNotFound       = fmt.Errorf("plan %w", ErrNotFound)

	// ErrConcurrentUpdate is returned when a compare-and-swap write lost
	// against another writer. The caller may reload and retry.
	ErrConcurrentUpdate = errors.New("record was modified concurrently")

	ErrNegativeAccrual = errors.New("accrual delta must not be negative")
)

// TransitionError is returned when a state change is not in the workflow table.
type TransitionError struct {
	Kind    WorkflowKind
	Current State
	Target  State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s transition from %q to %q is not allowed", e.Kind, e.Current, e.Target)
}

// ActivationError is returned when a company cannot enter "active".
type ActivationError struct {
	CompanyID string
	Missing   []ActivationRequirement
}

func (e *ActivationError) Error() string {
	reasons := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		reasons[i] = string(m)
	}
	return fmt.Sprintf("company %s cannot be activated, missing: %s", e.CompanyID, strings.Join(reasons, ", "))
}

// InsufficientPointsError is returned when a redemption costs more than the balance.
type InsufficientPointsError struct {
	ClientID string
	Balance  int64
	Required int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("client %s has %d points, %d required", e.ClientID, e.Balance, e.Required)
}

// OfferUnavailableError is returned when an offer is redeemed outside its validity window.
type OfferUnavailableError struct {
	OfferID string
	At      time.Time
}

func (e *OfferUnavailableError) Error() string {
	return fmt.Sprintf("offer %s is not valid at %s", e.OfferID, e.At.Format(time.RFC3339))
}

// ValidationError is returned when an input field breaks an entity invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
