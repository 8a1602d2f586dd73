package model

import (
	"encoding/json"
	"time"
)

// ResolutionType classifies a remediation strategy.
type ResolutionType string

const (
	ResolutionReassign         ResolutionType = "reassign"
	ResolutionReschedule       ResolutionType = "reschedule"
	ResolutionAdjustDates      ResolutionType = "adjust_dates"
	ResolutionRemoveDependency ResolutionType = "remove_dependency"
	ResolutionModifyDependency ResolutionType = "modify_dependency"
	ResolutionSplitTask        ResolutionType = "split_task"
	ResolutionReduceScope      ResolutionType = "reduce_scope"
	ResolutionAddResources     ResolutionType = "add_resources"
	ResolutionCustom           ResolutionType = "custom"
)

// ResolutionSource records which component produced a suggestion.
type ResolutionSource string

const (
	SourceRule ResolutionSource = "rule"
	SourceAI   ResolutionSource = "ai"
)

// compatibleResolutions lists which resolution types make sense for each
// conflict type. ResolutionCustom is accepted everywhere.
var compatibleResolutions = map[ConflictType][]ResolutionType{
	ConflictResource: {
		ResolutionReassign, ResolutionReschedule, ResolutionAdjustDates,
		ResolutionSplitTask, ResolutionAddResources,
	},
	ConflictSchedule: {
		ResolutionReschedule, ResolutionAdjustDates, ResolutionSplitTask,
		ResolutionReduceScope, ResolutionAddResources,
	},
	ConflictDependency: {
		ResolutionReschedule, ResolutionAdjustDates,
		ResolutionRemoveDependency, ResolutionModifyDependency,
	},
}

// Compatible reports whether a resolution type may be applied to a conflict
// of the given type.
func Compatible(ct ConflictType, rt ResolutionType) bool {
	if rt == ResolutionCustom {
		return true
	}
	for _, allowed := range compatibleResolutions[ct] {
		if rt == allowed {
			return true
		}
	}
	return false
}

// Resolution is one suggested remediation for a conflict.
type Resolution struct {
	ID          string         `json:"id" db:"id"`
	ConflictID  string         `json:"conflict_id" db:"conflict_id"`
	Type        ResolutionType `json:"type" db:"type"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`

	// Confidence in [0,100] after learned adjustment.
	Confidence float64 `json:"confidence" db:"confidence"`

	// AutoApplicable marks suggestions whose Implementation carries enough
	// data to apply without further human input.
	AutoApplicable bool     `json:"auto_applicable" db:"auto_applicable"`
	ActionSteps    []string `json:"action_steps"`

	// Implementation holds the type-specific parameters needed to apply the
	// resolution (task ids, target assignee, date shifts).
	Implementation json.RawMessage `json:"implementation,omitempty"`

	Source    ResolutionSource `json:"source" db:"source"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// Implementation payloads. Each resolution type that can be auto-applied has
// a named plan struct; EncodePlan stores it on the resolution.

// ReassignPlan moves a task to a different board member.
type ReassignPlan struct {
	TaskID     string `json:"task_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id,omitempty"`
}

// ReschedulePlan replaces a task's start and due dates.
type ReschedulePlan struct {
	TaskID   string    `json:"task_id"`
	NewStart time.Time `json:"new_start"`
	NewDue   time.Time `json:"new_due"`
}

// AdjustDatesPlan extends a task's due date by a number of days.
type AdjustDatesPlan struct {
	TaskID     string `json:"task_id"`
	ExtendDays int    `json:"extend_days"`
}

// AddResourcesPlan adds a collaborator to a task.
type AddResourcesPlan struct {
	TaskID         string `json:"task_id"`
	CollaboratorID string `json:"collaborator_id,omitempty"`
}

// DependencyPlan identifies the dependency edge under review.
type DependencyPlan struct {
	TaskID         string `json:"task_id"`
	BlockingTaskID string `json:"blocking_task_id,omitempty"`
}

// EncodePlan attaches a typed implementation payload to a resolution.
func (r *Resolution) EncodePlan(plan any) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	r.Implementation = data
	return nil
}
