package store

import (
	"strings"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

func (s *Store) CreateDivision(actor core.User, d core.Division) (core.Division, error) {
	err := s.mutate(actor, persist.KeyDivisions, "create", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionManageOrg, policy.Target{}); err != nil {
			return err
		}
		d.Name = strings.TrimSpace(d.Name)
		if err := d.Validate(); err != nil {
			return err
		}
		d.ID = s.opts.NewID()
		d.CreatedBy = actor.ID
		d.CreatedAt = tx.now
		s.divisions.put(d.ID, d)
		tx.emit(EventCreated, persist.KeyDivisions, d.ID, d)
		return nil
	})
	if err != nil {
		return core.Division{}, err
	}
	return d, nil
}

func (s *Store) UpdateDivision(actor core.User, id string, patch core.DivisionPatch) (core.Division, error) {
	var out core.Division
	err := s.mutate(actor, persist.KeyDivisions, "update", func(tx *txn) error {
		d, ok := s.divisions.get(id)
		if !ok {
			return s.missing("division", id)
		}
		if err := policy.Authorize(actor, policy.ActionManageOrg, policy.Target{}); err != nil {
			return err
		}
		patch.Apply(&d)
		d.Name = strings.TrimSpace(d.Name)
		if err := d.Validate(); err != nil {
			return err
		}
		s.divisions.put(d.ID, d)
		tx.emit(EventUpdated, persist.KeyDivisions, d.ID, d)
		out = d
		return nil
	})
	return out, err
}

// DeleteDivision removes the division and its units. Projects in those units
// lose their unit; entries lose the division and, when it was one of the
// removed units, the unit. Nothing else is deleted.
func (s *Store) DeleteDivision(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyDivisions, "delete", func(tx *txn) error {
		d, ok := s.divisions.get(id)
		if !ok {
			return s.missing("division", id)
		}
		if err := policy.Authorize(actor, policy.ActionManageOrg, policy.Target{}); err != nil {
			return err
		}

		removedUnits := make(map[string]struct{})
		for _, u := range s.units.list(func(u core.Unit) bool { return u.DivisionID == id }) {
			removedUnits[u.ID] = struct{}{}
			s.units.remove(u.ID)
			tx.emit(EventDeleted, persist.KeyUnits, u.ID, u)
		}
		s.divisions.remove(id)
		tx.emit(EventDeleted, persist.KeyDivisions, id, d)

		tx.unlinkProjects(func(p core.Project) bool {
			_, gone := removedUnits[p.UnitID]
			return gone
		})

		for _, e := range s.entries.list(nil) {
			_, unitGone := removedUnits[e.UnitID]
			if e.DivisionID != id && !unitGone {
				continue
			}
			if e.DivisionID == id {
				e.DivisionID = ""
			}
			if unitGone {
				e.UnitID = ""
			}
			s.entries.put(e.ID, e)
			tx.emit(EventUpdated, persist.KeyBudgetEntries, e.ID, e)
		}
		return nil
	})
}

// CreateUnit adds a unit to an existing division.
func (s *Store) CreateUnit(actor core.User, u core.Unit) (core.Unit, error) {
	err := s.mutate(actor, persist.KeyUnits, "create", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionManageOrg, policy.Target{}); err != nil {
			return err
		}
		u.Name = strings.TrimSpace(u.Name)
		if err := u.Validate(); err != nil {
			return err
		}
		if !s.divisions.has(u.DivisionID) {
			return &core.ValidationError{Field: "divisionId", Reason: "unknown division " + u.DivisionID}
		}
		u.ID = s.opts.NewID()
		u.CreatedBy = actor.ID
		u.CreatedAt = tx.now
		s.units.put(u.ID, u)
		tx.emit(EventCreated, persist.KeyUnits, u.ID, u)
		return nil
	})
	if err != nil {
		return core.Unit{}, err
	}
	return u, nil
}

// UpdateUnit may move the unit to another division. Entries keep the
// division they were booked under.
func (s *Store) UpdateUnit(actor core.User, id string, patch core.UnitPatch) (core.Unit, error) {
	var out core.Unit
	err := s.mutate(actor, persist.KeyUnits, "update", func(tx *txn) error {
		u, ok := s.units.get(id)
		if !ok {
			return s.missing("unit", id)
		}
		if err := policy.Authorize(actor, policy.ActionManageOrg, policy.Target{}); err != nil {
			return err
		}
		patch.Apply(&u)
		u.Name = strings.TrimSpace(u.Name)
		if err := u.Validate(); err != nil {
			return err
		}
		if !s.divisions.has(u.DivisionID) {
			return &core.ValidationError{Field: "divisionId", Reason: "unknown division " + u.DivisionID}
		}
		s.units.put(u.ID, u)
		tx.emit(EventUpdated, persist.KeyUnits, u.ID, u)
		out = u
		return nil
	})
	return out, err
}

// DeleteUnit removes the unit and clears it from projects and entries.
func (s *Store) DeleteUnit(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyUnits, "delete", func(tx *txn) error {
		u, ok := s.units.get(id)
		if !ok {
			return s.missing("unit", id)
		}
		if err := policy.Authorize(actor, policy.ActionManageOrg, policy.Target{}); err != nil {
			return err
		}

		s.units.remove(id)
		tx.emit(EventDeleted, persist.KeyUnits, id, u)

		tx.unlinkProjects(func(p core.Project) bool { return p.UnitID == id })
		for _, e := range s.entries.list(func(e core.BudgetEntry) bool { return e.UnitID == id }) {
			e.UnitID = ""
			s.entries.put(e.ID, e)
			tx.emit(EventUpdated, persist.KeyBudgetEntries, e.ID, e)
		}
		return nil
	})
}

func (tx *txn) unlinkProjects(match func(core.Project) bool) {
	s := tx.s
	for _, p := range s.projects.list(match) {
		p = p.Clone()
		p.UnitID = ""
		p.UpdatedAt = tx.now
		s.projects.put(p.ID, p)
		tx.emit(EventUpdated, persist.KeyProjects, p.ID, p.Clone())
	}
}

func (s *Store) Divisions() []core.Division {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.divisions.list(nil)
}

func (s *Store) Division(id string) (core.Division, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.divisions.get(id)
}

func (s *Store) Units() []core.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units.list(nil)
}

func (s *Store) Unit(id string) (core.Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units.get(id)
}

func (s *Store) UnitsByDivision(divisionID string) []core.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units.list(func(u core.Unit) bool { return u.DivisionID == divisionID })
}
