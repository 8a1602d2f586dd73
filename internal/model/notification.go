package model

import "time"

// Notification tells one affected user about one conflict. The
// (conflict, user) pair is unique; the store enforces it with a constraint
// so concurrent detection runs cannot double-send.
type Notification struct {
	ID           int64      `json:"id" db:"id"`
	ConflictID   string     `json:"conflict_id" db:"conflict_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	SentAt       time.Time  `json:"sent_at" db:"sent_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	Acknowledged bool       `json:"acknowledged" db:"acknowledged"`
}
