package detect

import (
	"fmt"

	"github.com/google/uuid"

	"conflictengine/internal/model"
)

// detectResourceConflicts finds same-assignee tasks with overlapping
// [start, due] windows. Every unordered pair is checked once.
func (d *Detector) detectResourceConflicts(boardID, runID string, tasks []model.Task) []model.Conflict {
	byAssignee := make(map[string][]*model.Task)
	for i := range tasks {
		t := &tasks[i]
		if t.AssigneeID == "" || t.StartDate.IsZero() || t.DueDate.IsZero() {
			continue
		}
		byAssignee[t.AssigneeID] = append(byAssignee[t.AssigneeID], t)
	}

	var conflicts []model.Conflict
	for assignee, owned := range byAssignee {
		for i := 0; i < len(owned); i++ {
			for j := i + 1; j < len(owned); j++ {
				t1, t2 := owned[i], owned[j]
				overlap := model.OverlapDays(t1.StartDate, t1.DueDate, t2.StartDate, t2.DueDate)
				if overlap <= 0 {
					continue
				}
				combined := t1.Priority.Weight() + t2.Priority.Weight()
				conflicts = append(conflicts, model.Conflict{
					ID:       uuid.NewString(),
					BoardID:  boardID,
					Type:     model.ConflictResource,
					Severity: resourceSeverity(combined, overlap),
					Title:    fmt.Sprintf("Resource overlap for %s", assignee),
					Description: fmt.Sprintf("Tasks %q and %q are both assigned to %s and overlap for %d day(s)",
						t1.Title, t2.Title, assignee, overlap),
					TaskIDs:         []string{t1.ID, t2.ID},
					AffectedUserIDs: affectedUsers(t1, t2),
					Evidence: &model.ResourceEvidence{
						AssigneeID:       assignee,
						Task1ID:          t1.ID,
						Task2ID:          t2.ID,
						Start1:           t1.StartDate,
						End1:             t1.DueDate,
						Start2:           t2.StartDate,
						End2:             t2.DueDate,
						OverlapDays:      overlap,
						CombinedPriority: combined,
					},
					DetectionRunID: runID,
				})
			}
		}
	}
	return conflicts
}

// resourceSeverity maps combined priority weight (2-8) and overlap length
// onto a severity. Both inputs push severity upward, never downward.
func resourceSeverity(combinedPriority, overlapDays int) model.Severity {
	switch {
	case combinedPriority >= 7 || overlapDays > 5:
		return model.SeverityCritical
	case combinedPriority >= 5 || overlapDays > 3:
		return model.SeverityHigh
	case overlapDays > 1:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
