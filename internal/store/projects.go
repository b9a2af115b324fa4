package store

import (
	"fmt"
	"strings"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

// CreateProject inserts a project owned by actor. Empty status and priority
// come from the settings defaults, spent starts at zero, and referenced users
// and budget codes are not checked for existence.
func (s *Store) CreateProject(actor core.User, p core.Project) (core.Project, error) {
	err := s.mutate(actor, persist.KeyProjects, "create", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionCreateProject, policy.Target{}); err != nil {
			return err
		}
		p = p.Clone()
		p.Name = strings.TrimSpace(p.Name)
		if p.Status == "" {
			p.Status = s.settings.DefaultProjectStatus
		}
		if p.Priority == "" {
			p.Priority = s.settings.DefaultProjectPriority
		}
		p.AssignedUsers = core.Dedupe(p.AssignedUsers)
		p.BudgetCodes = core.Dedupe(p.BudgetCodes)
		if err := s.validateProjectLocked(p); err != nil {
			return err
		}

		p.ID = s.opts.NewID()
		p.Spent = core.Money{}
		p.CreatedBy = actor.ID
		p.CreatedAt = tx.now
		p.UpdatedAt = tx.now
		s.projects.put(p.ID, p)
		tx.emit(EventCreated, persist.KeyProjects, p.ID, p.Clone())

		data := map[string]any{core.DataProjectID: p.ID}
		tx.notify(s.allUsers(actor.ID), core.NotifyProjectCreated,
			"New Project Created",
			fmt.Sprintf("%s created project %q", actorName(actor), p.Name),
			data)
		if len(p.AssignedUsers) > 0 {
			tx.notify(p.AssignedUsers, core.NotifyUserAssigned,
				"Assigned to Project",
				fmt.Sprintf("You have been assigned to project %q", p.Name),
				data)
		}
		return nil
	})
	if err != nil {
		return core.Project{}, err
	}
	return p.Clone(), nil
}

// UpdateProject merges patch and notifies: everyone but the updater about the
// change, everyone about a transition to completed or a budget over the
// alert threshold, and newly added assignees about their assignment.
func (s *Store) UpdateProject(actor core.User, id string, patch core.ProjectPatch) (core.Project, error) {
	var out core.Project
	err := s.mutate(actor, persist.KeyProjects, "update", func(tx *txn) error {
		old, ok := s.projects.get(id)
		if !ok {
			return s.missing("project", id)
		}
		if err := policy.Authorize(actor, policy.ActionUpdateProject, policy.Target{Project: &old}); err != nil {
			return err
		}

		p := old.Clone()
		patch.Apply(&p)
		p.Name = strings.TrimSpace(p.Name)
		if err := s.validateProjectLocked(p); err != nil {
			return err
		}
		p.UpdatedAt = tx.now
		s.projects.put(p.ID, p)
		tx.emit(EventUpdated, persist.KeyProjects, p.ID, p.Clone())

		data := map[string]any{core.DataProjectID: p.ID}
		tx.notify(s.allUsers(actor.ID), core.NotifyProjectUpdated,
			"Project Updated",
			fmt.Sprintf("%s updated project %q", actorName(actor), p.Name),
			data)

		if old.Status != core.StatusCompleted && p.Status == core.StatusCompleted {
			tx.notify(s.allUsers(), core.NotifyProjectCompleted,
				"Project Completed",
				fmt.Sprintf("Project %q has been completed", p.Name),
				data)
		}

		tx.projectBudgetAlert(p)

		var added []string
		for _, uid := range p.AssignedUsers {
			if !old.HasAssignee(uid) {
				added = append(added, uid)
			}
		}
		if len(added) > 0 {
			tx.notify(added, core.NotifyUserAssigned,
				"Assigned to Project",
				fmt.Sprintf("You have been assigned to project %q", p.Name),
				data)
		}

		out = p.Clone()
		return nil
	})
	return out, err
}

// DeleteProject removes the project and every entry booked against it.
// Budget code spend is kept unless ReconcileCodesOnProjectDelete is set.
func (s *Store) DeleteProject(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyProjects, "delete", func(tx *txn) error {
		p, ok := s.projects.get(id)
		if !ok {
			return s.missing("project", id)
		}
		if err := policy.Authorize(actor, policy.ActionDeleteProject, policy.Target{Project: &p}); err != nil {
			return err
		}

		for _, e := range s.entries.list(func(e core.BudgetEntry) bool { return e.ProjectID == id }) {
			if s.opts.ReconcileCodesOnProjectDelete && e.IsExpense() && e.BudgetCodeID != "" {
				if c, ok := s.codes.get(e.BudgetCodeID); ok {
					c.Spent = c.Spent.SubFloor(e.Amount)
					c.UpdatedAt = tx.now
					s.codes.put(c.ID, c)
					tx.emit(EventUpdated, persist.KeyBudgetCodes, c.ID, c)
				}
			}
			s.entries.remove(e.ID)
			tx.emit(EventDeleted, persist.KeyBudgetEntries, e.ID, e)
		}

		s.projects.remove(id)
		tx.emit(EventDeleted, persist.KeyProjects, id, p.Clone())

		tx.notify(s.allUsers(actor.ID), core.NotifyProjectUpdated,
			"Project Deleted",
			fmt.Sprintf("%s deleted project %q", actorName(actor), p.Name),
			map[string]any{core.DataProjectID: p.ID})
		return nil
	})
}

func (s *Store) validateProjectLocked(p core.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := core.ValidateBudget(p.Budget, s.settings.AllowNegativeBudget); err != nil {
		return err
	}
	if limit := s.settings.MaxProjectDuration; limit > 0 && !p.StartDate.IsEmpty() && !p.EndDate.IsEmpty() {
		days := int(p.EndDate.Sub(p.StartDate.Time).Hours() / 24)
		if days > limit {
			return &core.ValidationError{Field: "endDate", Reason: fmt.Sprintf("project may last at most %d days", limit)}
		}
	}
	return nil
}

func actorName(u core.User) string {
	if u.Name != "" {
		return u.Name
	}
	return "Someone"
}

// Projects returns every project in creation order.
func (s *Store) Projects() []core.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjects(s.projects.list(nil))
}

func (s *Store) Project(id string) (core.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects.get(id)
	return p.Clone(), ok
}

func (s *Store) ProjectsByUnit(unitID string) []core.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjects(s.projects.list(func(p core.Project) bool { return p.UnitID == unitID }))
}

// ProjectsForUser returns the projects userID is assigned to or created.
func (s *Store) ProjectsForUser(userID string) []core.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjects(s.projects.list(func(p core.Project) bool {
		return p.CreatedBy == userID || p.HasAssignee(userID)
	}))
}
