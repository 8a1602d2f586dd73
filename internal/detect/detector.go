// Package detect scans a board's tasks for resource, schedule and dependency
// conflicts. Detection is heuristic and batch: each pass gets a fresh run id,
// and creation is insert-if-absent so re-running over an unchanged board is a
// no-op.
package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"conflictengine/internal/config"
	"conflictengine/internal/logging"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

// Result summarizes one detection pass over one board.
type Result struct {
	BoardID        string                       `json:"board_id"`
	DetectionRunID string                       `json:"detection_run_id"`
	Total          int                          `json:"total"`
	ByType         map[model.ConflictType]int   `json:"by_type"`
	BySeverity     map[model.Severity]int       `json:"by_severity"`
	Conflicts      []model.Conflict             `json:"conflicts"`
	Skipped        int                          `json:"skipped"` // duplicates of already-active conflicts
}

// Detector runs the three conflict scans against one board at a time.
type Detector struct {
	store *store.Store
	cfg   config.DetectionConfig
	now   func() time.Time
}

// New creates a detector. The clock is injectable for tests.
func New(s *store.Store, cfg config.DetectionConfig) *Detector {
	return &Detector{store: s, cfg: cfg, now: time.Now}
}

// WithClock overrides the detector's clock.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// DetectBoard runs all detectors over one board and persists the new
// conflicts under a shared detection run id.
func (d *Detector) DetectBoard(ctx context.Context, boardID string) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryDetect, "DetectBoard")
	defer timer.StopWithInfo()

	runID := uuid.NewString()
	result := &Result{
		BoardID:        boardID,
		DetectionRunID: runID,
		ByType:         make(map[model.ConflictType]int),
		BySeverity:     make(map[model.Severity]int),
	}

	tasks, err := d.store.ListIncompleteTasks(boardID)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	overdue, err := d.store.ListOverdueTasks(boardID, d.now())
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}

	logging.Detect("Detection run %s on board %s: %d incomplete, %d overdue tasks",
		runID, boardID, len(tasks), len(overdue))

	var candidates []model.Conflict
	candidates = append(candidates, d.detectResourceConflicts(boardID, runID, tasks)...)
	candidates = append(candidates, d.detectScheduleConflicts(boardID, runID, tasks, overdue)...)
	candidates = append(candidates, d.detectDependencyConflicts(boardID, runID, tasks)...)

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := &candidates[i]
		err := d.store.CreateConflict(c)
		if errors.Is(err, model.ErrDuplicateConflict) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Conflicts = append(result.Conflicts, *c)
		result.Total++
		result.ByType[c.Type]++
		result.BySeverity[c.Severity]++
	}

	logging.Detect("Detection run %s on board %s: %d created, %d duplicates skipped",
		runID, boardID, result.Total, result.Skipped)
	return result, nil
}

// affectedUsers collects the distinct assignees of the involved tasks.
func affectedUsers(tasks ...*model.Task) []string {
	seen := make(map[string]bool)
	var users []string
	for _, t := range tasks {
		if t.AssigneeID == "" || seen[t.AssigneeID] {
			continue
		}
		seen[t.AssigneeID] = true
		users = append(users, t.AssigneeID)
	}
	return users
}
