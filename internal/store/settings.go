package store

import (
	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

func (s *Store) Settings() core.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// UpdateSettings merges patch into the settings singleton.
func (s *Store) UpdateSettings(actor core.User, patch core.SettingsPatch) (core.AppSettings, error) {
	var out core.AppSettings
	err := s.mutate(actor, persist.KeySettings, "update", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionUpdateSettings, policy.Target{}); err != nil {
			return err
		}
		next := s.settings.Clone()
		patch.Apply(&next)
		if patch.BudgetCategories != nil {
			next.BudgetCategories = core.Dedupe(next.BudgetCategories)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		s.settings = next
		tx.emit(EventUpdated, persist.KeySettings, persist.KeySettings, next.Clone())
		out = next.Clone()
		return nil
	})
	return out, err
}
