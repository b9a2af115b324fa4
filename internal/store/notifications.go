package store

import (
	"budgetrack/internal/core"
	"budgetrack/internal/persist"
	"budgetrack/internal/policy"
)

// Notifications returns the user's notifications, newest first.
func (s *Store) Notifications(userID string) []core.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n.Clone())
		}
	}
	return out
}

// AllNotifications returns every retained notification, newest first.
func (s *Store) AllNotifications() []core.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNotifications(s.notifications)
}

func (s *Store) UnreadCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, nt := range s.notifications {
		if nt.UserID == userID && !nt.Read {
			n++
		}
	}
	return n
}

func (s *Store) notificationIndexLocked(id string) int {
	for i, n := range s.notifications {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// MarkNotificationRead flips a notification to read. Read never goes back to unread.
func (s *Store) MarkNotificationRead(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyNotifications, "update", func(tx *txn) error {
		i := s.notificationIndexLocked(id)
		if i < 0 {
			return s.missing("notification", id)
		}
		n := s.notifications[i]
		if err := policy.Authorize(actor, policy.ActionManageNotification, policy.Target{OwnerID: n.UserID}); err != nil {
			return err
		}
		if n.Read {
			return nil
		}
		n.Read = true
		s.notifications[i] = n
		tx.emit(EventUpdated, persist.KeyNotifications, n.ID, n.Clone())
		return nil
	})
}

// MarkAllNotificationsRead marks every unread notification of userID as read
// and returns how many changed.
func (s *Store) MarkAllNotificationsRead(actor core.User, userID string) (int, error) {
	changed := 0
	err := s.mutate(actor, persist.KeyNotifications, "update", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionManageNotification, policy.Target{OwnerID: userID}); err != nil {
			return err
		}
		for i, n := range s.notifications {
			if n.UserID != userID || n.Read {
				continue
			}
			n.Read = true
			s.notifications[i] = n
			tx.emit(EventUpdated, persist.KeyNotifications, n.ID, n.Clone())
			changed++
		}
		return nil
	})
	return changed, err
}

func (s *Store) DeleteNotification(actor core.User, id string) error {
	return s.mutate(actor, persist.KeyNotifications, "delete", func(tx *txn) error {
		i := s.notificationIndexLocked(id)
		if i < 0 {
			return s.missing("notification", id)
		}
		n := s.notifications[i]
		if err := policy.Authorize(actor, policy.ActionManageNotification, policy.Target{OwnerID: n.UserID}); err != nil {
			return err
		}
		s.notifications = append(s.notifications[:i:i], s.notifications[i+1:]...)
		tx.emit(EventDeleted, persist.KeyNotifications, n.ID, n)
		return nil
	})
}

// ClearNotifications deletes every notification addressed to userID.
func (s *Store) ClearNotifications(actor core.User, userID string) (int, error) {
	removed := 0
	err := s.mutate(actor, persist.KeyNotifications, "delete", func(tx *txn) error {
		if err := policy.Authorize(actor, policy.ActionManageNotification, policy.Target{OwnerID: userID}); err != nil {
			return err
		}
		kept := make([]core.Notification, 0, len(s.notifications))
		for _, n := range s.notifications {
			if n.UserID == userID {
				tx.emit(EventDeleted, persist.KeyNotifications, n.ID, n)
				removed++
				continue
			}
			kept = append(kept, n)
		}
		s.notifications = kept
		return nil
	})
	return removed, err
}
