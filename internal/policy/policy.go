// Package policy decides whether an actor may perform an action on a target.
// The store calls Authorize on every mutation; hosts may call it up front to
// give early feedback.
package policy

import (
	"errors"
	"fmt"

	"budgetrack/internal/core"
)

// ErrForbidden is matched by every denial returned from Authorize.
var ErrForbidden = errors.New("forbidden")

// Action names a guarded operation.
type Action string

const (
	ActionCreateUser Action = "create_user"
	ActionUpdateUser Action = "update_user"
	ActionDeleteUser Action = "delete_user"

	ActionManageOrg         Action = "manage_org"
	ActionManageBudgetCodes Action = "manage_budget_codes"
	ActionUpdateSettings    Action = "update_settings"

	ActionCreateProject Action = "create_project"
	ActionUpdateProject Action = "update_project"
	ActionDeleteProject Action = "delete_project"

	ActionCreateEntry Action = "create_entry"
	ActionUpdateEntry Action = "update_entry"
	ActionDeleteEntry Action = "delete_entry"

	ActionManageNotification Action = "manage_notification"
)

// Target carries whatever the rule for an action needs to look at.
// Fields irrelevant to the action are left zero.
type Target struct {
	Project *core.Project
	Entry   *core.BudgetEntry
	User    *core.User
	// Role is the role being granted on user create/update.
	Role core.Role
	// OwnerID is the addressee of a notification.
	OwnerID string
}

// DeniedError explains a denial.
type DeniedError struct {
	ActorID string
	Role    core.Role
	Action  Action
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s role cannot %s", e.Role, e.Action)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// rolePermissions lists what each role may do without looking at the target.
var rolePermissions = map[core.Role][]Action{
	core.RoleAdmin: {
		ActionCreateUser, ActionUpdateUser, ActionDeleteUser,
		ActionManageOrg, ActionManageBudgetCodes, ActionUpdateSettings,
		ActionCreateProject, ActionUpdateProject, ActionDeleteProject,
		ActionCreateEntry, ActionUpdateEntry, ActionDeleteEntry,
	},
	core.RoleUser: {
		ActionCreateProject,
	},
}

// HasPermission reports whether role may perform action regardless of target.
func HasPermission(role core.Role, action Action) bool {
	if role == core.RoleSuperAdmin {
		return true
	}
	for _, a := range rolePermissions[role] {
		if a == action {
			return true
		}
	}
	return false
}

// Authorize returns nil when actor may perform action on target and a
// *DeniedError otherwise.
func Authorize(actor core.User, action Action, target Target) error {
	if allowed(actor, action, target) {
		return nil
	}
	return &DeniedError{ActorID: actor.ID, Role: actor.Role, Action: action}
}

func allowed(actor core.User, action Action, t Target) bool {
	if actor.Role == core.RoleSuperAdmin {
		return true
	}
	if !actor.Role.IsValid() {
		return false
	}

	switch action {
	case ActionManageNotification:
		return t.OwnerID != "" && t.OwnerID == actor.ID
	case ActionCreateUser, ActionUpdateUser, ActionDeleteUser:
		// Only super admins touch super admins.
		if t.Role == core.RoleSuperAdmin {
			return false
		}
		if t.User != nil && t.User.Role == core.RoleSuperAdmin {
			return false
		}
	}

	if HasPermission(actor.Role, action) {
		return true
	}

	switch action {
	case ActionUpdateProject:
		return t.Project != nil && (t.Project.HasAssignee(actor.ID) || t.Project.CreatedBy == actor.ID)
	case ActionDeleteProject:
		return t.Project != nil && t.Project.CreatedBy == actor.ID
	case ActionCreateEntry:
		return t.Project != nil && (t.Project.HasAssignee(actor.ID) || t.Project.CreatedBy == actor.ID)
	case ActionUpdateEntry, ActionDeleteEntry:
		return t.Entry != nil && t.Entry.CreatedBy == actor.ID
	case ActionUpdateUser:
		// Users may edit their own profile but never their role.
		return t.User != nil && t.User.ID == actor.ID && (t.Role == "" || t.Role == t.User.Role)
	}
	return false
}
