// Package model defines the entities shared by the conflict engine:
// conflicts, resolutions, learned resolution patterns and notifications.
package model

import (
	"sort"
	"strings"
	"time"
)

// ConflictType classifies what kind of problem a conflict describes.
type ConflictType string

const (
	ConflictResource   ConflictType = "resource"
	ConflictSchedule   ConflictType = "schedule"
	ConflictDependency ConflictType = "dependency"
)

// Severity is the impact level assigned by the detector.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight maps a severity onto an ordinal scale for sorting and comparisons.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ConflictStatus is the lifecycle state of a conflict.
// A conflict starts active and ends in exactly one terminal state.
type ConflictStatus string

const (
	StatusActive       ConflictStatus = "active"
	StatusResolved     ConflictStatus = "resolved"
	StatusIgnored      ConflictStatus = "ignored"
	StatusAutoResolved ConflictStatus = "auto_resolved"
)

// Terminal reports whether no further transition is allowed from this status.
func (s ConflictStatus) Terminal() bool {
	return s == StatusResolved || s == StatusIgnored || s == StatusAutoResolved
}

// Conflict is a detected scheduling, resource or dependency problem on a board.
type Conflict struct {
	ID          string         `json:"id" db:"id"`
	BoardID     string         `json:"board_id" db:"board_id"`
	Type        ConflictType   `json:"type" db:"type"`
	Severity    Severity       `json:"severity" db:"severity"`
	Status      ConflictStatus `json:"status" db:"status"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`

	// Involved entities, owned by the conflict as plain id sets.
	TaskIDs         []string `json:"task_ids"`
	AffectedUserIDs []string `json:"affected_user_ids"`

	// Type-specific detection evidence.
	Evidence Evidence `json:"evidence"`

	// DetectionRunID groups every conflict produced by one detection pass.
	DetectionRunID string `json:"detection_run_id" db:"detection_run_id"`

	// Resolution outcome, populated by the lifecycle manager.
	ChosenResolutionID *string    `json:"chosen_resolution_id,omitempty"`
	Effectiveness      *int       `json:"effectiveness,omitempty"` // 1-5, user supplied
	Feedback           string     `json:"feedback,omitempty"`
	IgnoreReason       string     `json:"ignore_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}

// PairKey is the dedup key for the "one active conflict per (type, task set)"
// invariant. Task ids are sorted so the key is order independent; schedule
// conflicts additionally carry their subtype so an overdue conflict and an
// unrealistic-timeline conflict on the same task do not collide.
func (c *Conflict) PairKey() string {
	ids := make([]string, len(c.TaskIDs))
	copy(ids, c.TaskIDs)
	sort.Strings(ids)
	key := strings.Join(ids, "|")
	if ev, ok := c.Evidence.(*ScheduleEvidence); ok && ev != nil {
		key += "#" + string(ev.Subtype)
	}
	return key
}
