package fsm

import (
	"context"
	"errors"
	"slices"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events maps each workflow kind to its looplab/fsm EventDesc table. Each
// target state becomes one event named after it, with every state that may
// move there as a source (e.g., "rejected" from "pending_validation",
// "in_visit" and "validated").
var events = buildEvents()

func buildEvents() map[domain.WorkflowKind][]loopfsm.EventDesc {
	out := make(map[domain.WorkflowKind][]loopfsm.EventDesc)

	for _, kind := range domain.Workflows() {
		grouped := make(map[string][]string)
		order := make([]string, 0)

		for _, t := range domain.Transitions(kind) {
			dst := string(t.Dst)
			if _, exists := grouped[dst]; !exists {
				order = append(order, dst)
			}
			grouped[dst] = append(grouped[dst], string(t.Src))
		}

		descs := make([]loopfsm.EventDesc, 0, len(order))
		for _, dst := range order {
			descs = append(descs, loopfsm.EventDesc{
				Name: dst,
				Src:  grouped[dst],
				Dst:  dst,
			})
		}
		out[kind] = descs
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per call, initialized with the
// record's current state, because looplab/fsm tracks state internally.
// Unknown kinds and states fail closed.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

func machine(kind domain.WorkflowKind, current domain.State) (*loopfsm.FSM, bool) {
	descs, ok := events[kind]
	if !ok {
		return nil, false
	}
	return loopfsm.NewFSM(string(current), descs, nil), true
}

// IsLegal reports whether moving from current to target is allowed.
func (v *Validator) IsLegal(kind domain.WorkflowKind, current, target domain.State) bool {
	m, ok := machine(kind, current)
	if !ok {
		return false
	}
	return m.Can(string(target))
}

// Validate runs the transition on a throwaway machine and returns a
// domain.TransitionError if it is not allowed.
func (v *Validator) Validate(ctx context.Context, kind domain.WorkflowKind, current, target domain.State) error {
	m, ok := machine(kind, current)
	if !ok {
		return &domain.TransitionError{Kind: kind, Current: current, Target: target}
	}

	if err := m.Event(ctx, string(target)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return &domain.TransitionError{Kind: kind, Current: current, Target: target}
		}
		return err
	}

	if domain.State(m.Current()) != target {
		return &domain.TransitionError{Kind: kind, Current: current, Target: target}
	}
	return nil
}

// Next returns the legal target states from current, sorted.
func (v *Validator) Next(_ context.Context, kind domain.WorkflowKind, current domain.State) []domain.State {
	m, ok := machine(kind, current)
	if !ok {
		return nil
	}

	available := m.AvailableTransitions()
	out := make([]domain.State, 0, len(available))
	for _, name := range available {
		out = append(out, domain.State(name))
	}
	slices.Sort(out)
	return out
}
