package domain_test

import (
	"slices"
	"testing"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

func validatedCompany() domain.Company {
	c := domain.NewCompany("c-1", completeProfile(), now)
	c.State = domain.CompanyValidated
	c.Flags.WebValidated = true
	return c
}

func TestCanActivate_AllSatisfied(t *testing.T) {
	check := domain.CanActivate(validatedCompany())
	if !check.Allowed {
		t.Errorf("Allowed = false, missing %v", check.Missing)
	}
	if len(check.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", check.Missing)
	}
}

func TestCanActivate_MissingLogo(t *testing.T) {
	c := validatedCompany()
	c.Flags = domain.Flags{
		WebValidated:          true,
		LogoAssigned:          false,
		HasConflict:           false,
		RequiredFieldsPresent: true,
	}

	check := domain.CanActivate(c)
	if check.Allowed {
		t.Fatal("Allowed = true, want false")
	}
	want := []domain.ActivationRequirement{domain.RequireLogoAssigned}
	if !slices.Equal(check.Missing, want) {
		t.Errorf("Missing = %v, want %v", check.Missing, want)
	}
}

func TestCanActivate_ReportsEveryFailure(t *testing.T) {
	c := domain.NewCompany("c-1", domain.Profile{}, now)
	c.Flags.HasConflict = true

	check := domain.CanActivate(c)
	want := []domain.ActivationRequirement{
		domain.RequireWebValidated,
		domain.RequireLogoAssigned,
		domain.RequireRequiredFields,
		domain.RequireNoConflict,
		domain.RequireValidatedState,
	}
	if !slices.Equal(check.Missing, want) {
		t.Errorf("Missing = %v, want %v", check.Missing, want)
	}
}
