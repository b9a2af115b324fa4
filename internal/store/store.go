// Package store is the in-memory entity store. It owns every collection,
// keeps project and budget code spend consistent with the entries that
// reference them and fans out notifications on each mutation.
//
// Mutations are serialised by a single mutex and run to completion, rollup
// and notifications included, before the next one starts. Subscribers are
// called after the mutex is released.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

// DefaultNotificationLimit is the global notification retention cap.
const DefaultNotificationLimit = 100

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("store closed")

type Options struct {
	Logger *log.Logger
	// NotificationLimit caps the number of notifications kept across all users.
	NotificationLimit int
	// StrictNotFound makes operations on unknown ids return *core.NotFoundError
	// instead of silently doing nothing.
	StrictNotFound bool
	// ReconcileCodesOnProjectDelete decrements budget code spend for the
	// expense entries removed together with a project.
	ReconcileCodesOnProjectDelete bool

	Now   func() time.Time
	NewID func() string
}

// Loader supplies the initial state.
type Loader interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
}

type Store struct {
	opts      Options
	logger    *log.Logger
	rollupLog *log.Logger
	notifyLog *log.Logger

	mu            sync.Mutex
	closed        bool
	users         *collection[core.User]
	divisions     *collection[core.Division]
	units         *collection[core.Unit]
	projects      *collection[core.Project]
	entries       *collection[core.BudgetEntry]
	codes         *collection[core.BudgetCode]
	notifications []core.Notification // newest first
	settings      core.AppSettings

	subs subscribers
}

func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.NotificationLimit <= 0 {
		opts.NotificationLimit = DefaultNotificationLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		opts:      opts,
		logger:    opts.Logger.WithComponent(log.ComponentStore),
		rollupLog: opts.Logger.WithComponent(log.ComponentRollup),
		notifyLog: opts.Logger.WithComponent(log.ComponentNotify),
		users:     newCollection[core.User](),
		divisions: newCollection[core.Division](),
		units:     newCollection[core.Unit](),
		projects:  newCollection[core.Project](),
		entries:   newCollection[core.BudgetEntry](),
		codes:     newCollection[core.BudgetCode](),
		settings:  core.DefaultSettings(),
	}
}

// Load replaces the whole state with the loader's snapshot. No events are published.
func (s *Store) Load(ctx context.Context, loader Loader) error {
	start := time.Now()
	snap, err := loader.LoadSnapshot(ctx)
	if err != nil {
		s.logger.LogError(ctx, "Failed to load state", err, log.OpLoad, nil)
		return fmt.Errorf("load snapshot: %w", err)
	}

	settings := core.DefaultSettings()
	if snap.Settings != nil {
		settings = snap.Settings.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users.reset(snap.Users, func(u core.User) string { return u.ID })
	s.divisions.reset(snap.Divisions, func(d core.Division) string { return d.ID })
	s.units.reset(snap.Units, func(u core.Unit) string { return u.ID })
	s.projects.reset(cloneProjects(snap.Projects), func(p core.Project) string { return p.ID })
	s.entries.reset(snap.BudgetEntries, func(e core.BudgetEntry) string { return e.ID })
	s.codes.reset(snap.BudgetCodes, func(c core.BudgetCode) string { return c.ID })
	s.notifications = sortNotifications(snap.Notifications)
	s.settings = settings
	dropped := s.trimNotificationsLocked()

	s.logger.InfoContext(ctx, "State loaded",
		"users", s.users.len(),
		"projects", s.projects.len(),
		"entries", s.entries.len(),
		"budget_codes", s.codes.len(),
		"notifications", len(s.notifications),
		"trimmed", len(dropped),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Close rejects further mutations and drops all subscribers.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.subs.clear()
	return nil
}

// Subscribe registers h for every future change event and returns a function
// that removes it.
func (s *Store) Subscribe(h Handler) (unsubscribe func()) {
	return s.subs.add(h)
}

// Snapshot returns the JSON document for a persistence key.
func (s *Store) Snapshot(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v any
	switch key {
	case persist.KeyUsers:
		v = s.users.list(nil)
	case persist.KeyDivisions:
		v = s.divisions.list(nil)
	case persist.KeyUnits:
		v = s.units.list(nil)
	case persist.KeyProjects:
		v = s.projects.list(nil)
	case persist.KeyBudgetEntries:
		v = s.entries.list(nil)
	case persist.KeyBudgetCodes:
		v = s.codes.list(nil)
	case persist.KeyNotifications:
		v = s.notifications
	case persist.KeySettings:
		v = s.settings
	default:
		return nil, fmt.Errorf("unknown collection %q", key)
	}
	return json.Marshal(v)
}

// State returns a deep copy of the whole store.
func (s *Store) State() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings.Clone()
	return core.Snapshot{
		Users:         s.users.list(nil),
		Divisions:     s.divisions.list(nil),
		Units:         s.units.list(nil),
		Projects:      cloneProjects(s.projects.list(nil)),
		BudgetEntries: s.entries.list(nil),
		BudgetCodes:   s.codes.list(nil),
		Notifications: cloneNotifications(s.notifications),
		Settings:      &settings,
	}
}

// txn collects the events of one mutation while the store is locked.
type txn struct {
	s      *Store
	actor  core.User
	now    time.Time
	events []Event
}

func (tx *txn) emit(kind EventKind, collection, id string, entity any) {
	tx.events = append(tx.events, Event{Kind: kind, Collection: collection, ID: id, Entity: entity, At: tx.now})
}

// mutate runs fn under the store lock, trims notifications, records metrics
// and then publishes the collected events.
func (s *Store) mutate(actor core.User, collection, op string, fn func(tx *txn) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	tx := &txn{s: s, actor: actor, now: s.opts.Now().UTC()}
	err := fn(tx)
	if err == nil {
		for _, n := range s.trimNotificationsLocked() {
			tx.emit(EventDeleted, persist.KeyNotifications, n.ID, n)
		}
	}
	s.mu.Unlock()

	metrics.ObserveMutation(collection, op, err)
	if err != nil {
		s.logMutationError(actor, collection, op, err)
		return err
	}
	s.subs.publish(tx.events)
	return nil
}

func (s *Store) logMutationError(actor core.User, collection, op string, err error) {
	fields := log.NewFields().WithActor(actor.ID).WithEntity(collection, "")
	switch {
	case errors.Is(err, core.ErrValidation):
		fields.WithErrorType(log.ErrorTypeValidation)
	case errors.Is(err, core.ErrNotFound):
		fields.WithErrorType(log.ErrorTypeNotFound)
	case errors.Is(err, policy.ErrForbidden):
		fields.WithErrorType(log.ErrorTypeForbidden)
	default:
		s.logger.LogError(context.Background(), "Mutation failed", err, op, fields)
		return
	}
	s.logger.Debug("Mutation rejected", fields.WithError(err).WithOperation(op).ToSlice()...)
}

// missing returns nil in lenient mode and a NotFoundError in strict mode.
func (s *Store) missing(kind, id string) error {
	if !s.opts.StrictNotFound {
		return nil
	}
	return &core.NotFoundError{Kind: kind, ID: id}
}

func cloneProjects(in []core.Project) []core.Project {
	out := make([]core.Project, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneNotifications(in []core.Notification) []core.Notification {
	out := make([]core.Notification, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
