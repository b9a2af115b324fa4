// Package worker applies store changes to the remote database.
package worker

import (
	"context"
	"errors"
	"fmt"

	"budgetrack/internal/amqp"
	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
	"budgetrack/internal/persist"
	"budgetrack/internal/remote"
)

// EntityTable is the write side of one remote table.
type EntityTable[T any] interface {
	Create(ctx context.Context, v T) error
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, id string) error
}

type SettingsWriter interface {
	Save(ctx context.Context, s core.AppSettings) error
}

type applier func(ctx context.Context, msg *amqp.ChangeMessage) error

// RemoteSyncWorker turns ChangeMessages into remote table writes: created
// becomes Create, updated becomes Update and deleted becomes Delete.
type RemoteSyncWorker struct {
	appliers map[string]applier
	logger   *log.Logger
}

func NewRemoteSyncWorker(logger *log.Logger) *RemoteSyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RemoteSyncWorker{
		appliers: make(map[string]applier),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// ForRemote registers every table of c.
func ForRemote(c *remote.Client, logger *log.Logger) *RemoteSyncWorker {
	w := NewRemoteSyncWorker(logger)
	Register[core.User](w, persist.KeyUsers, c.Users)
	Register[core.Division](w, persist.KeyDivisions, c.Divisions)
	Register[core.Unit](w, persist.KeyUnits, c.Units)
	Register[core.Project](w, persist.KeyProjects, c.Projects)
	Register[core.BudgetEntry](w, persist.KeyBudgetEntries, c.BudgetEntries)
	Register[core.BudgetCode](w, persist.KeyBudgetCodes, c.BudgetCodes)
	Register[core.Notification](w, persist.KeyNotifications, c.Notifications)
	w.SetSettings(c.Settings)
	return w
}

// Register routes messages for collection to table.
func Register[T any](w *RemoteSyncWorker, collection string, table EntityTable[T]) {
	w.appliers[collection] = func(ctx context.Context, msg *amqp.ChangeMessage) error {
		if msg.Kind == amqp.KindDeleted {
			return table.Delete(ctx, msg.ID)
		}

		var v T
		if err := msg.Decode(&v); err != nil {
			return err
		}
		if msg.Kind == amqp.KindCreated {
			return table.Create(ctx, v)
		}
		return table.Update(ctx, v)
	}
}

// SetSettings routes settings updates to s. Settings are never deleted.
func (w *RemoteSyncWorker) SetSettings(s SettingsWriter) {
	w.appliers[persist.KeySettings] = func(ctx context.Context, msg *amqp.ChangeMessage) error {
		if msg.Kind == amqp.KindDeleted {
			return nil
		}
		settings := core.DefaultSettings()
		if err := msg.Decode(&settings); err != nil {
			return err
		}
		return s.Save(ctx, settings)
	}
}

// HandleChangeMessage applies one message.
func (w *RemoteSyncWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	if err := msg.Validate(); err != nil {
		metrics.ObserveRemoteSync(msg.Kind, err)
		return err
	}

	apply, ok := w.appliers[msg.Collection]
	if !ok {
		err := fmt.Errorf("%w: unknown collection %q", amqp.ErrInvalidMessage, msg.Collection)
		metrics.ObserveRemoteSync(msg.Kind, err)
		return err
	}

	err := apply(ctx, msg)
	metrics.ObserveRemoteSync(msg.Kind, err)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to apply change",
			log.FieldCollection, msg.Collection,
			log.FieldEntityID, msg.ID,
			"kind", msg.Kind,
			log.FieldError, err,
		)
		return fmt.Errorf("apply %s %s: %w", msg.Kind, msg.Collection, err)
	}

	w.logger.DebugContext(ctx, "Change applied",
		log.FieldCollection, msg.Collection,
		log.FieldEntityID, msg.ID,
		"kind", msg.Kind,
	)
	return nil
}

// Send applies msg directly. It lets the worker stand in for the AMQP
// publisher when no broker is configured.
func (w *RemoteSyncWorker) Send(ctx context.Context, msg *amqp.ChangeMessage) error {
	return w.HandleChangeMessage(ctx, msg)
}

// Resync upserts every entity of snap. It recovers rows missed while the
// worker or the broker was down. Rows deleted locally are not removed.
func (w *RemoteSyncWorker) Resync(ctx context.Context, snap core.Snapshot) error {
	var msgs []*amqp.ChangeMessage
	add := func(collection, id string, entity any) error {
		msg, err := amqp.NewChangeMessage(amqp.KindUpdated, collection, id, entity)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		return nil
	}

	var errs []error
	if snap.Settings != nil {
		errs = append(errs, add(persist.KeySettings, persist.KeySettings, snap.Settings))
	}
	for _, u := range snap.Users {
		errs = append(errs, add(persist.KeyUsers, u.ID, u))
	}
	for _, d := range snap.Divisions {
		errs = append(errs, add(persist.KeyDivisions, d.ID, d))
	}
	for _, u := range snap.Units {
		errs = append(errs, add(persist.KeyUnits, u.ID, u))
	}
	for _, c := range snap.BudgetCodes {
		errs = append(errs, add(persist.KeyBudgetCodes, c.ID, c))
	}
	for _, p := range snap.Projects {
		errs = append(errs, add(persist.KeyProjects, p.ID, p))
	}
	for _, e := range snap.BudgetEntries {
		errs = append(errs, add(persist.KeyBudgetEntries, e.ID, e))
	}
	for _, n := range snap.Notifications {
		errs = append(errs, add(persist.KeyNotifications, n.ID, n))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	synced, failed := 0, 0
	var firstErr error
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.HandleChangeMessage(ctx, msg); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Remote resync completed",
		"total", len(msgs),
		"synced", synced,
		"errors", failed,
	)
	if firstErr != nil {
		return fmt.Errorf("resync: %d of %d changes failed: %w", failed, len(msgs), firstErr)
	}
	return nil
}
