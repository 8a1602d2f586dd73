package detect

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"conflictengine/internal/model"
)

// dependencyPhrases are the textual markers that suggest a task is waiting
// on something else. The scan is heuristic: free-text descriptions are the
// only dependency signal many boards have.
var dependencyPhrases = []string{
	"depends on",
	"blocked by",
	"waiting for",
	"waiting on",
	"requires",
	"needs",
}

// detectDependencyConflicts flags overdue tasks whose description mentions a
// dependency. An overdue blocked task means the blockage is already biting.
func (d *Detector) detectDependencyConflicts(boardID, runID string, tasks []model.Task) []model.Conflict {
	var conflicts []model.Conflict
	now := d.now()

	for i := range tasks {
		t := &tasks[i]
		days := t.DaysOverdue(now)
		if days <= 0 {
			continue
		}
		phrase := matchDependencyPhrase(t.Description)
		if phrase == "" {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			ID:       uuid.NewString(),
			BoardID:  boardID,
			Type:     model.ConflictDependency,
			Severity: model.SeverityHigh,
			Title:    fmt.Sprintf("Blocked task %q is overdue", t.Title),
			Description: fmt.Sprintf("Task %q mentions %q and is %d day(s) overdue",
				t.Title, phrase, days),
			TaskIDs:         []string{t.ID},
			AffectedUserIDs: affectedUsers(t),
			Evidence: &model.DependencyEvidence{
				TaskID:      t.ID,
				Phrase:      phrase,
				DaysOverdue: days,
			},
			DetectionRunID: runID,
		})
	}
	return conflicts
}

// matchDependencyPhrase returns the first dependency phrase found in the
// text, or "" when none match.
func matchDependencyPhrase(text string) string {
	lower := strings.ToLower(text)
	for _, phrase := range dependencyPhrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}
