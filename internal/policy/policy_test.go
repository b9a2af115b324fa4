package policy

import (
	"errors"
	"testing"

	"budgetrack/internal/core"
)

func TestAuthorize(t *testing.T) {
	super := core.User{ID: "s", Role: core.RoleSuperAdmin}
	admin := core.User{ID: "a", Role: core.RoleAdmin}
	alice := core.User{ID: "alice", Role: core.RoleUser}
	bob := core.User{ID: "bob", Role: core.RoleUser}

	project := &core.Project{ID: "p1", CreatedBy: "bob", AssignedUsers: []string{"alice"}}
	aliceEntry := &core.BudgetEntry{ID: "e1", ProjectID: "p1", CreatedBy: "alice"}

	tests := []struct {
		name    string
		actor   core.User
		action  Action
		target  Target
		allowed bool
	}{
		{"super admin manages settings", super, ActionUpdateSettings, Target{}, true},
		{"admin manages settings", admin, ActionUpdateSettings, Target{}, true},
		{"user cannot manage settings", alice, ActionUpdateSettings, Target{}, false},
		{"user cannot manage budget codes", alice, ActionManageBudgetCodes, Target{}, false},
		{"user cannot manage org", alice, ActionManageOrg, Target{}, false},
		{"user creates project", alice, ActionCreateProject, Target{}, true},
		{"assignee updates project", alice, ActionUpdateProject, Target{Project: project}, true},
		{"creator updates project", bob, ActionUpdateProject, Target{Project: project}, true},
		{"outsider cannot update project", core.User{ID: "eve", Role: core.RoleUser}, ActionUpdateProject, Target{Project: project}, false},
		{"assignee cannot delete project", alice, ActionDeleteProject, Target{Project: project}, false},
		{"creator deletes project", bob, ActionDeleteProject, Target{Project: project}, true},
		{"assignee books entry", alice, ActionCreateEntry, Target{Project: project}, true},
		{"outsider cannot book entry", core.User{ID: "eve", Role: core.RoleUser}, ActionCreateEntry, Target{Project: project}, false},
		{"owner edits entry", alice, ActionUpdateEntry, Target{Entry: aliceEntry}, true},
		{"other user cannot delete entry", bob, ActionDeleteEntry, Target{Entry: aliceEntry}, false},
		{"admin deletes any entry", admin, ActionDeleteEntry, Target{Entry: aliceEntry}, true},
		{"user reads own notification", alice, ActionManageNotification, Target{OwnerID: "alice"}, true},
		{"admin cannot touch others notification", admin, ActionManageNotification, Target{OwnerID: "alice"}, false},
		{"admin creates user", admin, ActionCreateUser, Target{Role: core.RoleUser}, true},
		{"admin cannot create super admin", admin, ActionCreateUser, Target{Role: core.RoleSuperAdmin}, false},
		{"admin cannot delete super admin", admin, ActionDeleteUser, Target{User: &super}, false},
		{"user edits own profile", alice, ActionUpdateUser, Target{User: &alice}, true},
		{"user cannot promote self", alice, ActionUpdateUser, Target{User: &alice, Role: core.RoleAdmin}, false},
		{"user cannot edit others", alice, ActionUpdateUser, Target{User: &bob}, false},
		{"unknown role denied", core.User{ID: "x", Role: "guest"}, ActionCreateProject, Target{}, false},
		{"system actor allowed", core.SystemActor, ActionDeleteUser, Target{User: &super}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.target)
			if tt.allowed && err != nil {
				t.Errorf("Authorize() error = %v, want nil", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("Authorize() error = nil, want ErrForbidden")
				}
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("errors.Is(err, ErrForbidden) = false for %v", err)
				}
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	if !HasPermission(core.RoleSuperAdmin, ActionManageOrg) {
		t.Error("super admin should hold every permission")
	}
	if HasPermission(core.RoleUser, ActionDeleteUser) {
		t.Error("user should not delete users")
	}
}
