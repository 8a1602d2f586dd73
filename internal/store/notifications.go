package store

import (
	"database/sql"
	"fmt"
	"time"

	"conflictengine/internal/model"
)

// EnsureNotifications creates one notification per (conflict, user) pair
// that does not already exist and returns how many were created. The UNIQUE
// constraint makes this idempotent and safe under concurrent detection runs;
// repeated calls create nothing new.
func (s *Store) EnsureNotifications(conflictID string, userIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	now := time.Now().UTC()
	for _, userID := range userIDs {
		res, err := s.db.Exec(`
			INSERT OR IGNORE INTO notifications (conflict_id, user_id, sent_at)
			VALUES (?, ?, ?)`, conflictID, userID, now)
		if err != nil {
			return created, fmt.Errorf("failed to create notification for user %s: %w", userID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return created, fmt.Errorf("failed to read insert result: %w", err)
		}
		created += int(affected)
	}
	return created, nil
}

// MarkNotificationRead stamps read_at once; later calls keep the first time.
func (s *Store) MarkNotificationRead(conflictID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE notifications SET read_at = ? WHERE conflict_id = ? AND user_id = ? AND read_at IS NULL`,
		time.Now().UTC(), conflictID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var one int
		err := s.db.QueryRow(`SELECT 1 FROM notifications WHERE conflict_id = ? AND user_id = ?`, conflictID, userID).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("notification (%s, %s): %w", conflictID, userID, model.ErrNotFound)
		}
		return err // already read is a no-op
	}
	return nil
}

// AcknowledgeNotification marks a notification acknowledged.
func (s *Store) AcknowledgeNotification(conflictID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE notifications SET acknowledged = 1 WHERE conflict_id = ? AND user_id = ?`,
		conflictID, userID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge notification: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("notification (%s, %s): %w", conflictID, userID, model.ErrNotFound)
	}
	return nil
}

// ListNotifications returns a user's notifications, optionally unread only.
func (s *Store) ListNotifications(userID string, unreadOnly bool) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, conflict_id, user_id, sent_at, read_at, acknowledged
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY sent_at DESC, id DESC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var readAt sql.NullTime
		var ack int
		if err := rows.Scan(&n.ID, &n.ConflictID, &n.UserID, &n.SentAt, &readAt, &ack); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		n.Acknowledged = ack != 0
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
