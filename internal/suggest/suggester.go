// Package suggest generates ranked remediation candidates for a conflict.
// Rule-based candidates carry fixed base confidences; the pattern learner
// then shifts each candidate by what has historically worked for this kind
// of conflict before the list is ordered.
package suggest

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"conflictengine/internal/config"
	"conflictengine/internal/learn"
	"conflictengine/internal/logging"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

// Base confidences for the rule-based candidates, per conflict type.
const (
	baseReassign        = 70
	baseRescheduleAfter = 85
	baseExtendDue       = 75
	baseAddCollaborator = 65
	baseAwaitBlocker    = 80
	baseDropDependency  = 60
)

// Suggester produces and persists resolution candidates.
type Suggester struct {
	store   *store.Store
	learner *learn.Learner
	cfg     config.SuggestConfig
}

// New creates a suggester.
func New(s *store.Store, l *learn.Learner, cfg config.SuggestConfig) *Suggester {
	return &Suggester{store: s, learner: l, cfg: cfg}
}

// Suggest generates candidates for a conflict, re-ranks them with learned
// boosts, persists the list for audit and returns it ordered by confidence
// descending.
func (s *Suggester) Suggest(conflict *model.Conflict) ([]model.Resolution, error) {
	timer := logging.StartTimer(logging.CategorySuggest, "Suggest")
	defer timer.Stop()

	var candidates []model.Resolution
	switch conflict.Type {
	case model.ConflictResource:
		candidates = s.resourceCandidates(conflict)
	case model.ConflictSchedule:
		candidates = s.scheduleCandidates(conflict)
	case model.ConflictDependency:
		candidates = s.dependencyCandidates(conflict)
	default:
		return nil, &model.ValidationError{Field: "conflict_type", Reason: fmt.Sprintf("unknown type %q", conflict.Type)}
	}

	if err := s.applyLearnedPatterns(conflict, candidates); err != nil {
		return nil, err
	}

	// Stable: candidates with equal final confidence keep generation order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if err := s.store.SaveResolutions(conflict.ID, candidates); err != nil {
		return nil, err
	}
	logging.Suggest("Generated %d suggestions for conflict %s (%s)", len(candidates), conflict.ID, conflict.Type)
	return candidates, nil
}

// applyLearnedPatterns adds each candidate's learned boost and clamps the
// result to [0,100].
func (s *Suggester) applyLearnedPatterns(conflict *model.Conflict, candidates []model.Resolution) error {
	for i := range candidates {
		boost, err := s.learner.ConfidenceBoost(conflict.Type, candidates[i].Type, conflict.BoardID)
		if err != nil {
			return err
		}
		if boost != 0 {
			logging.SuggestDebug("Boost %+.0f for (%s, %s) on board %s",
				boost, conflict.Type, candidates[i].Type, conflict.BoardID)
		}
		candidates[i].Confidence = clamp(candidates[i].Confidence+boost, 0, 100)
	}
	return nil
}

func (s *Suggester) resourceCandidates(conflict *model.Conflict) []model.Resolution {
	ev, _ := conflict.Evidence.(*model.ResourceEvidence)

	reassign := newResolution(conflict.ID, model.ResolutionReassign,
		"Reassign one of the overlapping tasks",
		"Move one of the two tasks to a different board member to remove the double booking",
		baseReassign, true,
		"Pick which of the two tasks is easier to hand over",
		"Choose a board member with free capacity in the overlap window",
		"Reassign the task and notify both members",
	)
	if ev != nil {
		target := s.reassignTarget(conflict.BoardID, ev.AssigneeID)
		_ = reassign.EncodePlan(&model.ReassignPlan{
			TaskID:     ev.Task2ID,
			FromUserID: ev.AssigneeID,
			ToUserID:   target,
		})
		if target == "" {
			// Nobody else on the board to take the task.
			reassign.AutoApplicable = false
		}
	}

	reschedule := newResolution(conflict.ID, model.ResolutionReschedule,
		"Reschedule the later task",
		"Start the later task the day after the earlier task is due, removing the overlap",
		baseRescheduleAfter, true,
		"Confirm the later task has no earlier hard deadline",
		"Shift its start to the day after the first task's due date",
		"Shift its due date by the same amount",
	)
	if ev != nil {
		first, second := orderByStart(ev)
		shift := first.end.AddDate(0, 0, 1).Sub(second.start)
		_ = reschedule.EncodePlan(&model.ReschedulePlan{
			TaskID:   second.id,
			NewStart: second.start.Add(shift),
			NewDue:   second.end.Add(shift),
		})
	}

	return []model.Resolution{reassign, reschedule}
}

func (s *Suggester) scheduleCandidates(conflict *model.Conflict) []model.Resolution {
	ev, _ := conflict.Evidence.(*model.ScheduleEvidence)
	taskID := firstTaskID(conflict)
	if ev != nil {
		taskID = ev.TaskID
	}
	label := s.taskLabel(taskID)

	extend := newResolution(conflict.ID, model.ResolutionAdjustDates,
		fmt.Sprintf("Extend the due date by %d days", s.cfg.DefaultExtensionDays),
		fmt.Sprintf("Give %s a realistic window by pushing the due date out", label),
		baseExtendDue, true,
		"Check downstream tasks for knock-on delays",
		fmt.Sprintf("Move the due date %d days later", s.cfg.DefaultExtensionDays),
		"Tell the assignee about the new deadline",
	)
	_ = extend.EncodePlan(&model.AdjustDatesPlan{TaskID: taskID, ExtendDays: s.cfg.DefaultExtensionDays})

	collaborate := newResolution(conflict.ID, model.ResolutionAddResources,
		"Add a collaborator",
		fmt.Sprintf("Bring in a second pair of hands to pull %s back on schedule", label),
		baseAddCollaborator, false,
		"Identify a board member familiar with the task area",
		"Split the remaining work between assignee and collaborator",
	)
	_ = collaborate.EncodePlan(&model.AddResourcesPlan{TaskID: taskID})

	return []model.Resolution{extend, collaborate}
}

func (s *Suggester) dependencyCandidates(conflict *model.Conflict) []model.Resolution {
	ev, _ := conflict.Evidence.(*model.DependencyEvidence)
	taskID := firstTaskID(conflict)
	if ev != nil {
		taskID = ev.TaskID
	}
	label := s.taskLabel(taskID)

	await := newResolution(conflict.ID, model.ResolutionReschedule,
		"Reschedule after the blocker completes",
		fmt.Sprintf("Move the dates of %s out until whatever it is waiting on is done", label),
		baseAwaitBlocker, false,
		"Identify the blocking task or deliverable",
		"Ask its owner for a realistic completion date",
		"Reschedule this task to start after that date",
	)
	_ = await.EncodePlan(&model.DependencyPlan{TaskID: taskID})

	reevaluate := newResolution(conflict.ID, model.ResolutionRemoveDependency,
		"Re-evaluate whether the dependency is necessary",
		fmt.Sprintf("Check if %s can proceed without the thing it claims to be waiting on", label),
		baseDropDependency, false,
		"Review why the dependency was recorded",
		"If it no longer applies, remove it and unblock the task",
	)
	_ = reevaluate.EncodePlan(&model.DependencyPlan{TaskID: taskID})

	return []model.Resolution{await, reevaluate}
}

// reassignTarget picks another member of the board, or "" when the assignee
// is the only member.
func (s *Suggester) reassignTarget(boardID, currentAssignee string) string {
	members, err := s.store.BoardMembers(boardID)
	if err != nil {
		logging.Get(logging.CategorySuggest).Warn("Could not list members of board %s: %v", boardID, err)
		return ""
	}
	for _, m := range members {
		if m != currentAssignee {
			return m
		}
	}
	return ""
}

type taskWindow struct {
	id         string
	start, end time.Time
}

// orderByStart returns the evidence's two task windows, earlier start first.
func orderByStart(ev *model.ResourceEvidence) (first, second taskWindow) {
	w1 := taskWindow{id: ev.Task1ID, start: ev.Start1, end: ev.End1}
	w2 := taskWindow{id: ev.Task2ID, start: ev.Start2, end: ev.End2}
	if w2.start.Before(w1.start) {
		return w2, w1
	}
	return w1, w2
}

// taskLabel names the task in suggestion text. Conflicts can outlive the
// mirrored task row, so a missing task falls back to a generic label.
func (s *Suggester) taskLabel(taskID string) string {
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return "the task"
	}
	return fmt.Sprintf("task %q", t.Title)
}

func firstTaskID(conflict *model.Conflict) string {
	if len(conflict.TaskIDs) > 0 {
		return conflict.TaskIDs[0]
	}
	return ""
}

func newResolution(conflictID string, rt model.ResolutionType, title, description string, confidence float64, auto bool, steps ...string) model.Resolution {
	return model.Resolution{
		ID:             uuid.NewString(),
		ConflictID:     conflictID,
		Type:           rt,
		Title:          title,
		Description:    description,
		Confidence:     confidence,
		AutoApplicable: auto,
		ActionSteps:    steps,
		Source:         model.SourceRule,
		CreatedAt:      time.Now().UTC(),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
