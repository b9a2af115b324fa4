package store

import (
	"fmt"
	"strings"

	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

// CreateEntry books an entry against an existing project. The entry's unit
// and division default to the project's unit and that unit's division.
// Expenses increase project and budget code spend; the project's assignees
// and creator hear about it, and everyone hears when the budget code crosses
// the alert threshold.
func (s *Store) CreateEntry(actor core.User, e core.BudgetEntry) (core.BudgetEntry, error) {
	err := s.mutate(actor, persist.KeyBudgetEntries, "create", func(tx *txn) error {
		p, ok := s.projects.get(e.ProjectID)
		if !ok {
			if e.ProjectID == "" {
				return &core.ValidationError{Field: "projectId", Reason: "is required"}
			}
			if err := s.missing("project", e.ProjectID); err != nil {
				return err
			}
			e = core.BudgetEntry{}
			return nil
		}
		if err := policy.Authorize(actor, policy.ActionCreateEntry, policy.Target{Project: &p}); err != nil {
			return err
		}

		e.Description = strings.TrimSpace(e.Description)
		e.Category = strings.TrimSpace(e.Category)
		if err := e.Validate(); err != nil {
			return err
		}
		if err := s.checkCodeRefLocked(e.BudgetCodeID); err != nil {
			return err
		}

		if e.UnitID == "" {
			e.UnitID = p.UnitID
		}
		if e.DivisionID == "" {
			if u, ok := s.units.get(e.UnitID); ok {
				e.DivisionID = u.DivisionID
			}
		}
		if e.Date.IsEmpty() {
			e.Date = core.DateOf(tx.now)
		}
		e.ID = s.opts.NewID()
		e.CreatedBy = actor.ID
		e.CreatedAt = tx.now

		s.entries.put(e.ID, e)
		tx.emit(EventCreated, persist.KeyBudgetEntries, e.ID, e)
		s.logger.Info("Budget entry created",
			log.NewFields().
				WithActor(actor.ID).
				WithEntry(e.ID, e.ProjectID, e.BudgetCodeID, string(e.Type), e.Amount.String()).
				ToSlice()...)

		code := tx.applyEntry(e)

		recipients := without(append(append([]string{}, p.AssignedUsers...), p.CreatedBy), actor.ID)
		data := map[string]any{
			core.DataProjectID: p.ID,
			core.DataEntryID:   e.ID,
			core.DataAmount:    e.Amount.Float(),
			core.DataType:      string(e.Type),
		}
		if e.BudgetCodeID != "" {
			data[core.DataBudgetCodeID] = e.BudgetCodeID
		}
		tx.notify(recipients, core.NotifyEntryAdded,
			"New Budget Entry",
			fmt.Sprintf("%s added %s %s to project %q", actorName(actor), e.Type, e.Amount, p.Name),
			data)

		if code != nil {
			tx.codeBudgetAlert(*code)
		}
		return nil
	})
	if err != nil {
		return core.BudgetEntry{}, err
	}
	return e, nil
}

// UpdateEntry reverses the old entry's effect on spend and applies the new
// one. The project an entry belongs to cannot change.
func (s *Store) UpdateEntry(actor core.User, id string, patch core.EntryPatch) (core.BudgetEntry, error) {
	var out core.BudgetEntry
	err := s.mutate(actor, persist.KeyBudgetEntries, "update", func(tx *txn) error {
		old, ok := s.entries.get(id)
		if !ok {
			return s.missing("budget entry", id)
		}
		if err := policy.Authorize(actor, policy.ActionUpdateEntry, policy.Target{Entry: &old}); err != nil {
			return err
		}

		e := old
		patch.Apply(&e)
		e.Description = strings.TrimSpace(e.Description)
		e.Category = strings.TrimSpace(e.Category)
		if err := e.Validate(); err != nil {
			return err
		}
		if e.BudgetCodeID != old.BudgetCodeID {
			if err := s.checkCodeRefLocked(e.BudgetCodeID); err != nil {
				return err
			}
		}

		tx.reverseEntry(old)
		s.entries.put(e.ID, e)
		tx.emit(EventUpdated, persist.KeyBudgetEntries, e.ID, e)
		tx.applyEntry(e)

		out = e
		return nil
	})
	return out, err
}

// DeleteEntry removes the entry and, for expenses, its spend.
func (s *Store) DeleteEntry(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyBudgetEntries, "delete", func(tx *txn) error {
		e, ok := s.entries.get(id)
		if !ok {
			return s.missing("budget entry", id)
		}
		if err := policy.Authorize(actor, policy.ActionDeleteEntry, policy.Target{Entry: &e}); err != nil {
			return err
		}
		s.entries.remove(id)
		tx.emit(EventDeleted, persist.KeyBudgetEntries, id, e)
		tx.reverseEntry(e)
		return nil
	})
}

func (s *Store) checkCodeRefLocked(codeID string) error {
	if codeID != "" && !s.codes.has(codeID) {
		return &core.ValidationError{Field: "budgetCodeId", Reason: "unknown budget code " + codeID}
	}
	return nil
}

func (s *Store) Entries() []core.BudgetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.list(nil)
}

func (s *Store) Entry(id string) (core.BudgetEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.get(id)
}

func (s *Store) EntriesForProject(projectID string) []core.BudgetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.list(func(e core.BudgetEntry) bool { return e.ProjectID == projectID })
}

func (s *Store) EntriesForBudgetCode(codeID string) []core.BudgetEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.list(func(e core.BudgetEntry) bool { return e.BudgetCodeID == codeID })
}
