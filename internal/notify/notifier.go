// Package notify fans a conflict out to its affected users, at most once per
// (conflict, user) pair. Uniqueness is a store constraint, so the guarantee
// holds even when detection and a UI refresh call this concurrently.
package notify

import (
	"conflictengine/internal/logging"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

// Notifier creates notification records for conflicts.
type Notifier struct {
	store *store.Store
}

// New creates a notifier.
func New(s *store.Store) *Notifier {
	return &Notifier{store: s}
}

// EnsureNotifications makes sure every affected user of the conflict has a
// notification, returning how many were newly created. Safe to call any
// number of times.
func (n *Notifier) EnsureNotifications(conflict *model.Conflict) (int, error) {
	created, err := n.store.EnsureNotifications(conflict.ID, conflict.AffectedUserIDs)
	if err != nil {
		return created, err
	}
	if created > 0 {
		logging.Notify("Notified %d user(s) about conflict %s", created, conflict.ID)
	}
	return created, nil
}

// MarkRead stamps a user's notification as read.
func (n *Notifier) MarkRead(conflictID, userID string) error {
	return n.store.MarkNotificationRead(conflictID, userID)
}

// Acknowledge marks a user's notification as acknowledged.
func (n *Notifier) Acknowledge(conflictID, userID string) error {
	return n.store.AcknowledgeNotification(conflictID, userID)
}

// Unread lists a user's unread notifications.
func (n *Notifier) Unread(userID string) ([]model.Notification, error) {
	return n.store.ListNotifications(userID, true)
}
