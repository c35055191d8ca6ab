package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func completeProfile() domain.Profile {
	return domain.Profile{
		Name:    "Taller Norte",
		TaxID:   "20-12345678-9",
		Address: "Av. Siempre Viva 742",
		Phone:   "+54 11 5555 0000",
		LogoURL: "https://cdn.example.com/logo.png",
	}
}

func TestNewCompany(t *testing.T) {
	c := domain.NewCompany("c-1", completeProfile(), now)

	if c.State != domain.CompanyCatalogued {
		t.Errorf("State = %q, want %q", c.State, domain.CompanyCatalogued)
	}
	if !c.Flags.RequiredFieldsPresent {
		t.Error("RequiredFieldsPresent should be derived from a complete profile")
	}
	if !c.Flags.LogoAssigned {
		t.Error("LogoAssigned should be derived from the logo URL")
	}
	if c.Visible {
		t.Error("new company must not be visible")
	}
	if len(c.TransitionLog) != 0 {
		t.Errorf("TransitionLog has %d entries, want 0", len(c.TransitionLog))
	}
}

func TestSetProfile_MissingFields(t *testing.T) {
	c := domain.NewCompany("c-1", completeProfile(), now)

	p := completeProfile()
	p.Phone = "  "
	p.LogoURL = ""
	c.SetProfile(p)

	if c.Flags.RequiredFieldsPresent {
		t.Error("blank phone should clear RequiredFieldsPresent")
	}
	if c.Flags.LogoAssigned {
		t.Error("empty logo should clear LogoAssigned")
	}
}

func TestEnter_SideEffects(t *testing.T) {
	c := domain.NewCompany("c-1", completeProfile(), now)

	c.Enter(domain.CompanyPendingValidation, "submitted", "admin", now)
	c.Enter(domain.CompanyInVisit, "visit scheduled", "admin", now.Add(time.Hour))
	if c.VisitDate == nil || !c.VisitDate.Equal(now.Add(time.Hour)) {
		t.Errorf("VisitDate = %v, want %v", c.VisitDate, now.Add(time.Hour))
	}

	c.Enter(domain.CompanyValidated, "", "admin", now)
	c.Enter(domain.CompanyActive, "", "admin", now)
	if !c.Visible {
		t.Error("entering active should make the company visible")
	}

	c.Enter(domain.CompanySuspended, "unpaid", "admin", now)
	if c.Visible {
		t.Error("entering suspended should hide the company")
	}

	if len(c.TransitionLog) != 5 {
		t.Fatalf("TransitionLog has %d entries, want 5", len(c.TransitionLog))
	}
	last := c.TransitionLog[4]
	if last.Seq != 5 || last.From != domain.CompanyActive || last.To != domain.CompanySuspended {
		t.Errorf("last entry = %+v", last)
	}
	if last.Reason != "unpaid" || last.Actor != "admin" {
		t.Errorf("last entry reason/actor = %q/%q", last.Reason, last.Actor)
	}
}

func TestEnter_RejectedHides(t *testing.T) {
	c := domain.NewCompany("c-1", completeProfile(), now)
	c.Visible = true
	c.Enter(domain.CompanyRejected, "duplicate", "admin", now)
	if c.Visible {
		t.Error("entering rejected should hide the company")
	}
}
