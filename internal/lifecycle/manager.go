// Package lifecycle owns the conflict state machine. A conflict is created
// active by detection and moves exactly once into resolved, ignored or
// auto_resolved; re-detection of the same underlying problem creates a new
// conflict rather than reopening a terminal one.
package lifecycle

import (
	"fmt"

	"conflictengine/internal/learn"
	"conflictengine/internal/logging"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

// Manager applies resolve/ignore transitions and feeds outcomes to the
// pattern learner.
type Manager struct {
	store   *store.Store
	learner *learn.Learner
}

// New creates a lifecycle manager.
func New(s *store.Store, l *learn.Learner) *Manager {
	return &Manager{store: s, learner: l}
}

// Resolve marks a conflict resolved with the chosen resolution, then records
// the outcome with the pattern learner. All validation happens before any
// state mutation.
func (m *Manager) Resolve(conflictID, resolutionID, feedback string, effectiveness *int) error {
	conflict, err := m.store.GetConflict(conflictID)
	if err != nil {
		return err
	}
	resolution, err := m.store.GetResolution(resolutionID)
	if err != nil {
		return err
	}
	if resolution.ConflictID != conflictID {
		return &model.ValidationError{
			Field:  "resolution",
			Reason: fmt.Sprintf("resolution %s belongs to conflict %s, not %s", resolutionID, resolution.ConflictID, conflictID),
		}
	}
	if !model.Compatible(conflict.Type, resolution.Type) {
		return &model.ValidationError{
			Field:  "resolution_type",
			Reason: fmt.Sprintf("%s cannot resolve a %s conflict", resolution.Type, conflict.Type),
		}
	}
	if effectiveness != nil {
		if err := model.ValidateEffectiveness(*effectiveness); err != nil {
			return err
		}
	}

	if err := m.store.TransitionConflict(conflictID, model.StatusResolved, &resolutionID, effectiveness, feedback, ""); err != nil {
		return err
	}
	logging.Lifecycle("Conflict %s resolved with %s (%s)", conflictID, resolutionID, resolution.Type)

	if err := m.learner.LearnFromResolution(conflict, resolution, effectiveness); err != nil {
		// The transition already happened; a learner failure should not
		// undo the user's resolution.
		logging.Get(logging.CategoryLifecycle).Error("Pattern update failed for conflict %s: %v", conflictID, err)
	}
	return nil
}

// Ignore marks a conflict ignored. Ignoring says nothing about whether a
// resolution type works, so the learner is not consulted.
func (m *Manager) Ignore(conflictID, reason string) error {
	if _, err := m.store.GetConflict(conflictID); err != nil {
		return err
	}
	if err := m.store.TransitionConflict(conflictID, model.StatusIgnored, nil, nil, "", reason); err != nil {
		return err
	}
	logging.Lifecycle("Conflict %s ignored (%s)", conflictID, reason)
	return nil
}
