package core

import (
	"regexp"
	"strings"
)

const maxDescriptionLen = 500

var budgetCodePattern = regexp.MustCompile(`^\d+-\d+$`)

// ValidateBudgetCodeFormat checks codes such as "1-2345".
func ValidateBudgetCodeFormat(code string) error {
	if !budgetCodePattern.MatchString(code) {
		return invalid("code", "must look like 1-2345")
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return invalid("name", "cannot be empty")
	}
	if !strings.Contains(u.Email, "@") {
		return invalid("email", "must be an e-mail address")
	}
	if !u.Role.IsValid() {
		return invalid("role", "unknown role "+string(u.Role))
	}
	return nil
}

func (d Division) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid("name", "cannot be empty")
	}
	return nil
}

func (u Unit) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return invalid("name", "cannot be empty")
	}
	if u.DivisionID == "" {
		return invalid("divisionId", "is required")
	}
	return nil
}

// Validate checks everything except the budget sign, which depends on settings.
func (c BudgetCode) Validate() error {
	if err := ValidateBudgetCodeFormat(c.Code); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "cannot be empty")
	}
	return nil
}

// Validate checks everything except the budget sign, which depends on settings.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "cannot be empty")
	}
	if !p.Status.IsValid() {
		return invalid("status", "unknown status "+string(p.Status))
	}
	if !p.Priority.IsValid() {
		return invalid("priority", "unknown priority "+string(p.Priority))
	}
	if !p.StartDate.IsEmpty() && !p.EndDate.IsEmpty() && p.EndDate.Before(p.StartDate.Time) {
		return invalid("endDate", "must not be before startDate")
	}
	return nil
}

func (e BudgetEntry) Validate() error {
	if e.ProjectID == "" {
		return invalid("projectId", "is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return invalid("description", "cannot be empty")
	}
	if len(e.Description) > maxDescriptionLen {
		return invalid("description", "too long")
	}
	if !e.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if !e.Type.IsValid() {
		return invalid("type", "unknown entry type "+string(e.Type))
	}
	return nil
}

func (s AppSettings) Validate() error {
	if s.BudgetAlertThreshold < 0 || s.BudgetAlertThreshold > 100 {
		return invalid("budgetAlertThreshold", "must be between 0 and 100")
	}
	if strings.TrimSpace(s.Currency) == "" {
		return invalid("currency", "cannot be empty")
	}
	if !s.DefaultProjectStatus.IsValid() {
		return invalid("defaultProjectStatus", "unknown status "+string(s.DefaultProjectStatus))
	}
	if !s.DefaultProjectPriority.IsValid() {
		return invalid("defaultProjectPriority", "unknown priority "+string(s.DefaultProjectPriority))
	}
	if s.MaxProjectDuration < 0 {
		return invalid("maxProjectDuration", "cannot be negative")
	}
	return nil
}

// ValidateBudget rejects negative allocations unless allowNegative is set.
func ValidateBudget(m Money, allowNegative bool) error {
	if m.IsNegative() && !allowNegative {
		return invalid("budget", "cannot be negative")
	}
	return nil
}
