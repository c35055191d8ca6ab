package domain

import "slices"

// WorkflowKind selects which transition table applies to a record.
type WorkflowKind string

const (
	WorkflowCompany WorkflowKind = "company"
	WorkflowRequest WorkflowKind = "request"
)

// State is a lifecycle state. Its meaning depends on the WorkflowKind.
type State string

// Company lifecycle states.
const (
	CompanyCatalogued        State = "catalogued"
	CompanyPendingValidation State = "pending_validation"
	CompanyInVisit           State = "in_visit"
	CompanyValidated         State = "validated"
	CompanyActive            State = "active"
	CompanySuspended         State = "suspended"
	CompanyInactive          State = "inactive"
	CompanyRejected          State = "rejected"
)

// Request (solicitud) lifecycle states.
const (
	RequestPending  State = "pending"
	RequestInReview State = "in_review"
	RequestApproved State = "approved"
	RequestRejected State = "rejected"
)

// Transition defines a valid state change from Src to Dst.
type Transition struct {
	Src State
	Dst State
}

// workflow holds the known states and edges of one workflow kind.
// Tables are built once and only handed out as copies.
type workflow struct {
	states []State
	edges  []Transition
}

var workflows = map[WorkflowKind]workflow{
	WorkflowCompany: {
		states: []State{
			CompanyCatalogued, CompanyPendingValidation, CompanyInVisit, CompanyValidated,
			CompanyActive, CompanySuspended, CompanyInactive, CompanyRejected,
		},
		edges: []Transition{
			{Src: CompanyCatalogued, Dst: CompanyPendingValidation},
			{Src: CompanyPendingValidation, Dst: CompanyInVisit},
			{Src: CompanyPendingValidation, Dst: CompanyRejected},
			{Src: CompanyInVisit, Dst: CompanyValidated},
			{Src: CompanyInVisit, Dst: CompanyRejected},
			{Src: CompanyValidated, Dst: CompanyActive},
			{Src: CompanyValidated, Dst: CompanyRejected},
			{Src: CompanyActive, Dst: CompanySuspended},
			{Src: CompanyActive, Dst: CompanyInactive},
			{Src: CompanySuspended, Dst: CompanyActive},
			{Src: CompanySuspended, Dst: CompanyInactive},
		},
	},
	WorkflowRequest: {
		states: []State{RequestPending, RequestInReview, RequestApproved, RequestRejected},
		edges: []Transition{
			{Src: RequestPending, Dst: RequestInReview},
			// Review can be skipped.
			{Src: RequestPending, Dst: RequestApproved},
			{Src: RequestPending, Dst: RequestRejected},
			{Src: RequestInReview, Dst: RequestApproved},
			{Src: RequestInReview, Dst: RequestRejected},
		},
	},
}

// Workflows lists every workflow kind with a transition table.
func Workflows() []WorkflowKind {
	return []WorkflowKind{WorkflowCompany, WorkflowRequest}
}

// Transitions returns a copy of the edge set for kind, or nil for an unknown kind.
func Transitions(kind WorkflowKind) []Transition {
	return slices.Clone(workflows[kind].edges)
}

// States returns a copy of the known states for kind, or nil for an unknown kind.
func States(kind WorkflowKind) []State {
	return slices.Clone(workflows[kind].states)
}

// KnownState reports whether s belongs to the workflow kind.
func KnownState(kind WorkflowKind, s State) bool {
	return slices.Contains(workflows[kind].states, s)
}

// Terminal reports whether s is a known state of kind with no outgoing edges.
func Terminal(kind WorkflowKind, s State) bool {
	if !KnownState(kind, s) {
		return false
	}
	for _, t := range workflows[kind].edges {
		if t.Src == s {
			return false
		}
	}
	return true
}
