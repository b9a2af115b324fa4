package store

import (
	"strings"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

// CreateBudgetCode adds a code. Spent always starts at zero.
func (s *Store) CreateBudgetCode(actor core.User, c core.BudgetCode) (core.BudgetCode, error) {
	err := s.mutate(actor, persist.KeyBudgetCodes, "create", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionManageBudgetCodes, policy.Target{}); err != nil {
			return err
		}
		c.Code = strings.TrimSpace(c.Code)
		c.Name = strings.TrimSpace(c.Name)
		if err := s.validateCodeLocked(c); err != nil {
			return err
		}
		c.ID = s.opts.NewID()
		c.Spent = core.Money{}
		c.CreatedBy = actor.ID
		c.CreatedAt = tx.now
		c.UpdatedAt = tx.now
		s.codes.put(c.ID, c)
		tx.emit(EventCreated, persist.KeyBudgetCodes, c.ID, c)
		return nil
	})
	if err != nil {
		return core.BudgetCode{}, err
	}
	return c, nil
}

// UpdateBudgetCode merges patch. A patch carrying a budget re-evaluates the
// usage alert against the new allocation.
func (s *Store) UpdateBudgetCode(actor core.User, id string, patch core.BudgetCodePatch) (core.BudgetCode, error) {
	var out core.BudgetCode
	err := s.mutate(actor, persist.KeyBudgetCodes, "update", func(tx *txn) error {
		c, ok := s.codes.get(id)
		if !ok {
			return s.missing("budget code", id)
		}
		if err := policy.Authorize(actor, policy.ActionManageBudgetCodes, policy.Target{}); err != nil {
			return err
		}
		patch.Apply(&c)
		c.Code = strings.TrimSpace(c.Code)
		c.Name = strings.TrimSpace(c.Name)
		if err := s.validateCodeLocked(c); err != nil {
			return err
		}
		c.UpdatedAt = tx.now
		s.codes.put(c.ID, c)
		tx.emit(EventUpdated, persist.KeyBudgetCodes, c.ID, c)

		if patch.Budget != nil {
			tx.codeBudgetAlert(c)
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteBudgetCode removes the code from every project and clears it on the
// entries that referenced it. The entries themselves survive.
func (s *Store) DeleteBudgetCode(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyBudgetCodes, "delete", func(tx *txn) error {
		c, ok := s.codes.get(id)
		if !ok {
			return s.missing("budget code", id)
		}
		if err := policy.Authorize(actor, policy.ActionManageBudgetCodes, policy.Target{}); err != nil {
			return err
		}

		s.codes.remove(id)
		tx.emit(EventDeleted, persist.KeyBudgetCodes, id, c)

		for _, p := range s.projects.list(nil) {
			codes, removed := core.RemoveString(p.BudgetCodes, id)
			if !removed {
				continue
			}
			p = p.Clone()
			p.BudgetCodes = codes
			p.UpdatedAt = tx.now
			s.projects.put(p.ID, p)
			tx.emit(EventUpdated, persist.KeyProjects, p.ID, p.Clone())
		}

		for _, e := range s.entries.list(func(e core.BudgetEntry) bool { return e.BudgetCodeID == id }) {
			e.BudgetCodeID = ""
			s.entries.put(e.ID, e)
			tx.emit(EventUpdated, persist.KeyBudgetEntries, e.ID, e)
		}
		return nil
	})
}

func (s *Store) validateCodeLocked(c core.BudgetCode) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := core.ValidateBudget(c.Budget, s.settings.AllowNegativeBudget); err != nil {
		return err
	}
	for _, other := range s.codes.list(nil) {
		if other.ID != c.ID && other.Code == c.Code {
			return &core.ValidationError{Field: "code", Reason: c.Code + " already exists"}
		}
	}
	return nil
}

func (s *Store) BudgetCodes() []core.BudgetCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes.list(nil)
}

func (s *Store) BudgetCode(id string) (core.BudgetCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes.get(id)
}

// BudgetCodeByCode finds a code by its "1-2345" identifier.
func (s *Store) BudgetCodeByCode(code string) (core.BudgetCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code = strings.TrimSpace(code)
	for _, c := range s.codes.list(nil) {
		if c.Code == code {
			return c, true
		}
	}
	return core.BudgetCode{}, false
}
