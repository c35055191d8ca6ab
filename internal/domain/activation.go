package domain

// ActivationRequirement names one precondition for entering "active".
type ActivationRequirement string

const (
	RequireWebValidated   ActivationRequirement = "web_validated"
	RequireLogoAssigned   ActivationRequirement = "logo_assigned"
	RequireRequiredFields ActivationRequirement = "required_fields_present"
	RequireNoConflict     ActivationRequirement = "no_conflict"
	RequireValidatedState ActivationRequirement = "validated_state"
)

// ActivationCheck is the result of evaluating the activation gate.
type ActivationCheck struct {
	Allowed bool
	Missing []ActivationRequirement
}

// CanActivate evaluates every activation requirement and reports all of the
// failing ones, in a stable order, so callers can render a full checklist.
func CanActivate(c Company) ActivationCheck {
	var missing []ActivationRequirement
	if !c.Flags.WebValidated {
		missing = append(missing, RequireWebValidated)
	}
	if !c.Flags.LogoAssigned {
		missing = append(missing, RequireLogoAssigned)
	}
	if !c.Flags.RequiredFieldsPresent {
		missing = append(missing, RequireRequiredFields)
	}
	if c.Flags.HasConflict {
		missing = append(missing, RequireNoConflict)
	}
	if c.State != CompanyValidated {
		missing = append(missing, RequireValidatedState)
	}
	return ActivationCheck{Allowed: len(missing) == 0, Missing: missing}
}
