package store

import (
	"fmt"
	"sort"

	"budgetrack/internal/core"
	"budgetrack/internal/log"
	"budgetrack/internal/metrics"
	"budgetrack/internal/persist"
)

// notify addresses one notification to each recipient. Duplicate and empty
// ids are dropped.
func (tx *txn) notify(recipients []string, typ core.NotificationType, title, message string, data map[string]any) {
	recipients = core.Dedupe(recipients)
	if len(recipients) == 0 {
		return
	}
	s := tx.s
	for _, userID := range recipients {
		n := core.Notification{
			ID:        s.opts.NewID(),
			UserID:    userID,
			Type:      typ,
			Title:     title,
			Message:   message,
			Data:      data,
			CreatedAt: tx.now,
			ActionURL: actionURL(data),
		}
		// Each notification gets its own map.
		n = n.Clone()
		s.notifications = append([]core.Notification{n}, s.notifications...)
		tx.emit(EventCreated, persist.KeyNotifications, n.ID, n.Clone())
	}

	metrics.ObserveNotifications(string(typ), len(recipients))
	s.notifyLog.Debug("Notifications dispatched",
		log.NewFields().
			WithNotification(string(typ), len(recipients)).
			WithActor(tx.actor.ID).
			ToSlice()...)
}

func actionURL(data map[string]any) string {
	if id, ok := data[core.DataProjectID].(string); ok && id != "" {
		return "/projects/" + id
	}
	if id, ok := data[core.DataBudgetCodeID].(string); ok && id != "" {
		return "/budget-codes/" + id
	}
	return ""
}

// trimNotificationsLocked drops the oldest notifications beyond the cap and returns them.
func (s *Store) trimNotificationsLocked() []core.Notification {
	limit := s.opts.NotificationLimit
	if len(s.notifications) <= limit {
		return nil
	}
	dropped := append([]core.Notification(nil), s.notifications[limit:]...)
	s.notifications = s.notifications[:limit:limit]
	metrics.ObserveTrimmed(len(dropped))
	return dropped
}

func sortNotifications(in []core.Notification) []core.Notification {
	out := cloneNotifications(in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// allUsers returns every user id except the excluded ones.
func (s *Store) allUsers(except ...string) []string {
	skip := make(map[string]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}
	var out []string
	for _, u := range s.users.list(nil) {
		if _, ok := skip[u.ID]; !ok {
			out = append(out, u.ID)
		}
	}
	return out
}

func (s *Store) admins(except string) []string {
	var out []string
	for _, u := range s.users.list(nil) {
		if u.Role.IsAdmin() && u.ID != except {
			out = append(out, u.ID)
		}
	}
	return out
}

func without(ids []string, id string) []string {
	out, _ := core.RemoveString(ids, id)
	return out
}

// overThreshold reports the usage percentage of spent against budget and
// whether it reaches the alert threshold. Zero budgets never alert.
func (s *Store) overThreshold(spent, budget core.Money) (float64, bool) {
	if !budget.IsPositive() {
		return 0, false
	}
	pct := spent.Percentage(budget)
	return pct, pct >= s.settings.BudgetAlertThreshold
}

func (tx *txn) projectBudgetAlert(p core.Project) {
	pct, over := tx.s.overThreshold(p.Spent, p.Budget)
	if !over {
		return
	}
	tx.s.notifyLog.Info("Project budget threshold reached",
		log.NewFields().
			WithEntity(persist.KeyProjects, p.ID).
			WithUsage(p.Spent.String(), p.Budget.String(), pct).
			ToSlice()...)
	tx.notify(tx.s.allUsers(), core.NotifyBudgetAlert,
		"Budget Alert",
		fmt.Sprintf("Project %q has used %.1f%% of its budget", p.Name, pct),
		map[string]any{
			core.DataProjectID:  p.ID,
			core.DataPercentage: pct,
			core.DataBudget:     p.Budget.Float(),
			core.DataSpent:      p.Spent.Float(),
		})
}

func (tx *txn) codeBudgetAlert(c core.BudgetCode) {
	pct, over := tx.s.overThreshold(c.Spent, c.Budget)
	if !over {
		return
	}
	tx.s.notifyLog.Info("Budget code threshold reached",
		log.NewFields().
			WithEntity(persist.KeyBudgetCodes, c.ID).
			WithUsage(c.Spent.String(), c.Budget.String(), pct).
			ToSlice()...)
	tx.notify(tx.s.allUsers(), core.NotifyBudgetCodeAlert,
		"Budget Code Alert",
		fmt.Sprintf("Budget code %s (%s) has used %.1f%% of its budget", c.Code, c.Name, pct),
		map[string]any{
			core.DataBudgetCodeID: c.ID,
			core.DataPercentage:   pct,
			core.DataBudget:       c.Budget.Float(),
			core.DataSpent:        c.Spent.Float(),
		})
}
