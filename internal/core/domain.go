package core

import (
	"strings"
	"time"
)

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"

	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusOnHold    ProjectStatus = "on_hold"
	StatusCompleted ProjectStatus = "completed"
	StatusCancelled ProjectStatus = "cancelled"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	EntryExpense EntryType = "expense"
	EntryIncome  EntryType = "income"
)

type (
	Role          string
	ProjectStatus string
	Priority      string
	EntryType     string

	User struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Role      Role      `json:"role"`
		Initials  string    `json:"initials"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Division is the top-level organisational grouping.
	Division struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedBy string    `json:"createdBy"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Unit struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		DivisionID string    `json:"divisionId"`
		CreatedBy  string    `json:"createdBy"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	// BudgetCode is an allocation bucket entries may reference across projects.
	// Spent is derived from expense entries and never negative.
	BudgetCode struct {
		ID          string    `json:"id"`
		Code        string    `json:"code"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Budget      Money     `json:"budget"`
		Spent       Money     `json:"spent"`
		IsActive    bool      `json:"isActive"`
		CreatedBy   string    `json:"createdBy"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Project.Spent is the sum of the project's expense entries.
	Project struct {
		ID            string        `json:"id"`
		Name          string        `json:"name"`
		Description   string        `json:"description"`
		UnitID        string        `json:"unitId"`
		Status        ProjectStatus `json:"status"`
		Priority      Priority      `json:"priority"`
		StartDate     Date          `json:"startDate"`
		EndDate       Date          `json:"endDate"`
		Budget        Money         `json:"budget"`
		Spent         Money         `json:"spent"`
		AssignedUsers []string      `json:"assignedUsers"`
		BudgetCodes   []string      `json:"budgetCodes"`
		CreatedBy     string        `json:"createdBy"`
		CreatedAt     time.Time     `json:"createdAt"`
		UpdatedAt     time.Time     `json:"updatedAt"`
	}

	// BudgetEntry is a single income or expense line booked against a project.
	// UnitID and DivisionID are denormalised from the project at creation.
	BudgetEntry struct {
		ID           string    `json:"id"`
		ProjectID    string    `json:"projectId"`
		UnitID       string    `json:"unitId,omitempty"`
		DivisionID   string    `json:"divisionId,omitempty"`
		BudgetCodeID string    `json:"budgetCodeId,omitempty"`
		Description  string    `json:"description"`
		Amount       Money     `json:"amount"`
		Type         EntryType `json:"type"`
		Category     string    `json:"category"`
		Date         Date      `json:"date"`
		CreatedBy    string    `json:"createdBy"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

// SystemActor performs internal operations such as bootstrap seeding and loads.
var SystemActor = User{ID: "system", Name: "System", Role: RoleSuperAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// IsAdmin reports whether the role is admin or super_admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (t EntryType) IsValid() bool {
	return t == EntryExpense || t == EntryIncome
}

// IsExpense reports whether the entry counts towards spent rollups.
func (e BudgetEntry) IsExpense() bool {
	return e.Type == EntryExpense
}

// HasAssignee reports whether userID is assigned to the project.
func (p Project) HasAssignee(userID string) bool {
	for _, id := range p.AssignedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with p.
func (p Project) Clone() Project {
	p.AssignedUsers = cloneStrings(p.AssignedUsers)
	p.BudgetCodes = cloneStrings(p.BudgetCodes)
	return p
}

// DeriveInitials builds up to two upper-case initials from a display name.
func DeriveInitials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(word))[0])
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// RemoveString returns in without any occurrence of v and whether something was removed.
func RemoveString(in []string, v string) ([]string, bool) {
	out := make([]string, 0, len(in))
	removed := false
	for _, s := range in {
		if s == v {
			removed = true
			continue
		}
		out = append(out, s)
	}
	return out, removed
}

// Dedupe drops empty and repeated ids while preserving order.
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
