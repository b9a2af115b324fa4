package store

import (
	"context"

	"budgetrack/internal/core"
	"budgetrack/internal/persist"
)

// AdapterLoader reads a snapshot from a local key/value adapter. Missing keys
// load as empty collections and default settings.
type AdapterLoader struct {
	Adapter persist.Adapter
}

func (l AdapterLoader) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	var err error

	if snap.Users, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyUsers, []core.User(nil)); err != nil {
		return snap, err
	}
	if snap.Divisions, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyDivisions, []core.Division(nil)); err != nil {
		return snap, err
	}
	if snap.Units, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyUnits, []core.Unit(nil)); err != nil {
		return snap, err
	}
	if snap.Projects, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyProjects, []core.Project(nil)); err != nil {
		return snap, err
	}
	if snap.BudgetEntries, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyBudgetEntries, []core.BudgetEntry(nil)); err != nil {
		return snap, err
	}
	if snap.BudgetCodes, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyBudgetCodes, []core.BudgetCode(nil)); err != nil {
		return snap, err
	}
	if snap.Notifications, err = persist.LoadJSON(ctx, l.Adapter, persist.KeyNotifications, []core.Notification(nil)); err != nil {
		return snap, err
	}
	if snap.Settings, err = persist.LoadJSON(ctx, l.Adapter, persist.KeySettings, (*core.AppSettings)(nil)); err != nil {
		return snap, err
	}
	return snap, nil
}

// PersistTo marks the writer's key for every change event so the debounced
// write-back follows the store. It returns the unsubscribe function.
func (s *Store) PersistTo(w *persist.Writer) func() {
	return s.Subscribe(func(ev Event) {
		w.Mark(ev.Collection)
	})
}
