package domain

import (
	"slices"
	"strings"
	"time"
)

// Contact holds the primary contact channel of a company.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Representative is the legal representative of a company.
type Representative struct {
	Name       string `json:"name,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Profile holds the descriptive fields of a company. Requests carry the same
// shape as their payload so approval copies it field by field.
type Profile struct {
	Name           string
	TaxID          string
	Address        string
	Phone          string
	Email          string
	Website        string
	LogoURL        string
	Contact        Contact
	Representative Representative
	Categories     []string
	Brands         []string
}

// HasRequiredFields reports whether name, address and phone are all present.
func (p Profile) HasRequiredFields() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Address) != "" &&
		strings.TrimSpace(p.Phone) != ""
}

func (p Profile) clone() Profile {
	p.Categories = slices.Clone(p.Categories)
	p.Brands = slices.Clone(p.Brands)
	return p
}

// Flags are the review facts consulted by the activation gate.
type Flags struct {
	WebValidated          bool
	LogoAssigned          bool
	HasConflict           bool
	RequiredFieldsPresent bool
}

// TransitionLogEntry records one state change. Entries are never edited.
type TransitionLogEntry struct {
	Seq    int
	At     time.Time
	From   State
	To     State
	Reason string
	Actor  string
}

// Company is a marketplace company record moving through the company workflow.
type Company struct {
	ID              string
	Profile         Profile
	State           State
	Flags           Flags
	Visible         bool
	VisitDate       *time.Time
	SourceRequestID string
	TransitionLog   []TransitionLogEntry
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewCompany creates a company in the initial "catalogued" state.
func NewCompany(id string, profile Profile, now time.Time) Company {
	c := Company{
		ID:        id,
		State:     CompanyCatalogued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetProfile(profile)
	return c
}

// SetProfile replaces the profile and recomputes the flags derived from it.
func (c *Company) SetProfile(p Profile) {
	c.Profile = p.clone()
	c.Flags.RequiredFieldsPresent = p.HasRequiredFields()
	c.Flags.LogoAssigned = strings.TrimSpace(p.LogoURL) != ""
}

// Enter moves the company to state and applies the state-keyed side effects.
// Legality is the caller's concern; Enter only records the move.
func (c *Company) Enter(state State, reason, actor string, now time.Time) TransitionLogEntry {
	entry := TransitionLogEntry{
		Seq:    len(c.TransitionLog) + 1,
		At:     now,
		From:   c.State,
		To:     state,
		Reason: reason,
		Actor:  actor,
	}

	switch state {
	case CompanyActive:
		c.Visible = true
	case CompanyRejected, CompanySuspended:
		c.Visible = false
	case CompanyInVisit:
		visit := now
		c.VisitDate = &visit
	}

	c.State = state
	c.UpdatedAt = now
	c.TransitionLog = append(c.TransitionLog, entry)
	return entry
}
