package store

import (
	"strings"

	"github.com/google/uuid"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

// CreateUser adds a user. A caller-supplied id must be a UUID. Initials are
// derived from the name when empty.
// Admins other than the actor are told about the newcomer.
func (s *Store) CreateUser(actor core.User, u core.User) (core.User, error) {
	err := s.mutate(actor, persist.KeyUsers, "create", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionCreateUser, policy.Target{Role: u.Role}); err != nil {
			return err
		}
		u.Name = strings.TrimSpace(u.Name)
		u.Email = strings.TrimSpace(u.Email)
		if err := u.Validate(); err != nil {
			return err
		}
		if u.ID == "" {
			u.ID = s.opts.NewID()
		} else if _, err := uuid.Parse(u.ID); err != nil {
			return &core.ValidationError{Field: "id", Reason: "must be a UUID"}
		} else if s.users.has(u.ID) {
			return &core.ValidationError{Field: "id", Reason: "already exists"}
		}
		if err := s.checkEmailLocked(u.Email, u.ID); err != nil {
			return err
		}
		if u.Initials == "" {
			u.Initials = core.DeriveInitials(u.Name)
		}
		u.CreatedAt = tx.now

		recipients := s.admins(actor.ID)
		s.users.put(u.ID, u)
		tx.emit(EventCreated, persist.KeyUsers, u.ID, u)

		tx.notify(recipients, core.NotifyUserAssigned,
			"New User Added",
			u.Name+" ("+string(u.Role)+") has joined",
			map[string]any{core.DataUserID: u.ID})
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	return u, nil
}

// UpdateUser merges patch into the user. Renaming re-derives the initials
// unless the patch sets them explicitly.
func (s *Store) UpdateUser(actor core.User, id string, patch core.UserPatch) (core.User, error) {
	var out core.User
	err := s.mutate(actor, persist.KeyUsers, "update", func(tx *txn) error {
		u, ok := s.users.get(id)
		if !ok {
			return s.missing("user", id)
		}
		target := policy.Target{User: &u}
		if patch.Role != nil {
			target.Role = *patch.Role
		}
		if err := policy.Authorize(actor, policy.ActionUpdateUser, target); err != nil {
			return err
		}

		patch.Apply(&u)
		u.Name = strings.TrimSpace(u.Name)
		u.Email = strings.TrimSpace(u.Email)
		if patch.Name != nil && patch.Initials == nil {
			u.Initials = core.DeriveInitials(u.Name)
		}
		if err := u.Validate(); err != nil {
			return err
		}
		if err := s.checkEmailLocked(u.Email, u.ID); err != nil {
			return err
		}

		s.users.put(u.ID, u)
		tx.emit(EventUpdated, persist.KeyUsers, u.ID, u)
		out = u
		return nil
	})
	return out, err
}

// DeleteUser removes the user, unassigns them from every project and deletes
// the notifications addressed to them. Entities they created keep createdBy.
func (s *Store) DeleteUser(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyUsers, "delete", func(tx *txn) error {
		u, ok := s.users.get(id)
		if !ok {
			return s.missing("user", id)
		}
		if err := policy.Authorize(actor, policy.ActionDeleteUser, policy.Target{User: &u}); err != nil {
			return err
		}

		s.users.remove(id)
		tx.emit(EventDeleted, persist.KeyUsers, id, u)

		for _, p := range s.projects.list(func(p core.Project) bool { return p.HasAssignee(id) }) {
			p = p.Clone()
			p.AssignedUsers, _ = core.RemoveString(p.AssignedUsers, id)
			p.UpdatedAt = tx.now
			s.projects.put(p.ID, p)
			tx.emit(EventUpdated, persist.KeyProjects, p.ID, p.Clone())
		}

		kept := s.notifications[:0:0]
		for _, n := range s.notifications {
			if n.UserID == id {
				tx.emit(EventDeleted, persist.KeyNotifications, n.ID, n)
				continue
			}
			kept = append(kept, n)
		}
		s.notifications = kept
		return nil
	})
}

// Users returns every user in creation order.
func (s *Store) Users() []core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.list(nil)
}

func (s *Store) User(id string) (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.get(id)
}

// UserByEmail looks a user up case-insensitively.
func (s *Store) UserByEmail(email string) (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users.list(nil) {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, true
		}
	}
	return core.User{}, false
}

func (s *Store) checkEmailLocked(email, selfID string) error {
	for _, u := range s.users.list(nil) {
		if u.ID != selfID && strings.EqualFold(u.Email, email) {
			return &core.ValidationError{Field: "email", Reason: "already in use"}
		}
	}
	return nil
}
