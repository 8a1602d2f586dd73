package model

import "time"

// TaskPriority mirrors the priority scale of the host project tracker.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Weight maps priority onto the 1-4 scale used by the severity matrix.
func (p TaskPriority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Task is the read-only view of a tracker task the engine consumes.
// The engine never mutates tasks; they are owned by the host application.
type Task struct {
	ID          string       `json:"id" db:"id"`
	BoardID     string       `json:"board_id" db:"board_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	AssigneeID  string       `json:"assignee_id" db:"assignee_id"`
	StartDate   time.Time    `json:"start_date" db:"start_date"`
	DueDate     time.Time    `json:"due_date" db:"due_date"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	Complexity  int          `json:"complexity" db:"complexity"` // 1-10 estimate
	Progress    int          `json:"progress" db:"progress"`     // 0-100
	DependsOn   []string     `json:"depends_on,omitempty"`
}

// DaysOverdue returns how many whole days past due the task is at now,
// or 0 when the task is not overdue or has no due date.
func (t *Task) DaysOverdue(now time.Time) int {
	if t.DueDate.IsZero() || !now.After(t.DueDate) {
		return 0
	}
	return int(now.Sub(t.DueDate).Hours() / 24)
}

// WindowDays is the scheduled duration in days between start and due date.
func (t *Task) WindowDays() int {
	if t.StartDate.IsZero() || t.DueDate.IsZero() {
		return 0
	}
	return int(t.DueDate.Sub(t.StartDate).Hours() / 24)
}

// OverlapDays returns the inclusive number of days the [start, due] ranges
// of two tasks overlap, or 0 when they do not.
func OverlapDays(start1, end1, start2, end2 time.Time) int {
	if start1.After(end2) || start2.After(end1) {
		return 0
	}
	latestStart := start1
	if start2.After(latestStart) {
		latestStart = start2
	}
	earliestEnd := end1
	if end2.Before(earliestEnd) {
		earliestEnd = end2
	}
	return int(earliestEnd.Sub(latestStart).Hours()/24) + 1
}
