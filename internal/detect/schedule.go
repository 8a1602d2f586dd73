package detect

import (
	"fmt"

	"github.com/google/uuid"

	"conflictengine/internal/logging"
	"conflictengine/internal/model"
)

// detectScheduleConflicts runs the two schedule checks: the board-wide
// overdue sweep and the per-task unrealistic-timeline check. The checks are
// independent; a task can trip both.
func (d *Detector) detectScheduleConflicts(boardID, runID string, tasks, overdue []model.Task) []model.Conflict {
	var conflicts []model.Conflict

	// Overdue sweep only fires once the board has accumulated enough late
	// tasks, and is capped so a neglected board does not flood everyone.
	if len(overdue) >= d.cfg.MinOverdueTasks {
		emitted := 0
		for i := range overdue {
			if emitted >= d.cfg.OverdueConflictCap {
				logging.Detect("Overdue conflict cap (%d) reached on board %s, %d tasks not reported",
					d.cfg.OverdueConflictCap, boardID, len(overdue)-emitted)
				break
			}
			t := &overdue[i]
			days := t.DaysOverdue(d.now())
			conflicts = append(conflicts, model.Conflict{
				ID:       uuid.NewString(),
				BoardID:  boardID,
				Type:     model.ConflictSchedule,
				Severity: overdueSeverity(days),
				Title:    fmt.Sprintf("Task %q is overdue", t.Title),
				Description: fmt.Sprintf("Task %q is %d day(s) past its due date on a board with %d overdue tasks",
					t.Title, days, len(overdue)),
				TaskIDs:         []string{t.ID},
				AffectedUserIDs: affectedUsers(t),
				Evidence: &model.ScheduleEvidence{
					TaskID:      t.ID,
					Subtype:     model.ScheduleOverdue,
					DaysOverdue: days,
				},
				DetectionRunID: runID,
			})
			emitted++
		}
	}

	// Unrealistic timeline: high complexity squeezed into a short window.
	for i := range tasks {
		t := &tasks[i]
		if t.StartDate.IsZero() || t.DueDate.IsZero() {
			continue
		}
		window := t.WindowDays()
		if t.Complexity < d.cfg.UnrealisticComplexity || window >= d.cfg.UnrealisticWindowDays {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			ID:       uuid.NewString(),
			BoardID:  boardID,
			Type:     model.ConflictSchedule,
			Severity: model.SeverityMedium,
			Title:    fmt.Sprintf("Unrealistic timeline for %q", t.Title),
			Description: fmt.Sprintf("Task %q has complexity %d but only %d day(s) scheduled",
				t.Title, t.Complexity, window),
			TaskIDs:         []string{t.ID},
			AffectedUserIDs: affectedUsers(t),
			Evidence: &model.ScheduleEvidence{
				TaskID:     t.ID,
				Subtype:    model.ScheduleUnrealisticTimeline,
				Complexity: t.Complexity,
				WindowDays: window,
			},
			DetectionRunID: runID,
		})
	}

	return conflicts
}

// overdueSeverity scales with how late the task is.
func overdueSeverity(daysOverdue int) model.Severity {
	switch {
	case daysOverdue > 7:
		return model.SeverityHigh
	case daysOverdue > 3:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
