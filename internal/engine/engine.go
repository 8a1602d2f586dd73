// Package engine wires detection, suggestion, notification and lifecycle
// into the batch operations exposed to callers. Boards are independent, so
// an all-board run fans out across a bounded worker pool and per-board
// failures never abort the batch.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"conflictengine/internal/ai"
	"conflictengine/internal/config"
	"conflictengine/internal/detect"
	"conflictengine/internal/learn"
	"conflictengine/internal/lifecycle"
	"conflictengine/internal/logging"
	"conflictengine/internal/model"
	"conflictengine/internal/notify"
	"conflictengine/internal/store"
	"conflictengine/internal/suggest"
)

// Engine is the conflict engine facade.
type Engine struct {
	store     *store.Store
	detector  *detect.Detector
	suggester *suggest.Suggester
	learner   *learn.Learner
	notifier  *notify.Notifier
	lifecycle *lifecycle.Manager
	enhancer  ai.Enhancer // nil disables AI enhancement
	cfg       *config.Config
}

// New assembles an engine over one store. The enhancer may be nil.
func New(s *store.Store, cfg *config.Config, enhancer ai.Enhancer) *Engine {
	learner := learn.New(s, cfg.Learning)
	return &Engine{
		store:     s,
		detector:  detect.New(s, cfg.Detection),
		suggester: suggest.New(s, learner, cfg.Suggest),
		learner:   learner,
		notifier:  notify.New(s),
		lifecycle: lifecycle.New(s, learner),
		enhancer:  enhancer,
		cfg:       cfg,
	}
}

// Detector exposes the detector, mainly so tests can pin its clock.
func (e *Engine) Detector() *detect.Detector { return e.detector }

// BoardError records one board's failure during a batch run.
type BoardError struct {
	BoardID string `json:"board_id"`
	Err     error  `json:"-"`
	Message string `json:"error"`
}

// BatchResult aggregates an all-boards detection run.
type BatchResult struct {
	Boards []detect.Result `json:"boards"`
	Total  int             `json:"total"`
	Errors []BoardError    `json:"errors,omitempty"`
	WithAI bool            `json:"with_ai"`
}

// DetectBoard runs the full pipeline for one board: detect, suggest,
// optionally enhance, notify.
func (e *Engine) DetectBoard(ctx context.Context, boardID string, withAI bool) (*detect.Result, error) {
	exists, err := e.store.BoardExists(boardID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("board %s: %w", boardID, model.ErrNotFound)
	}

	result, err := e.detector.DetectBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	for i := range result.Conflicts {
		conflict := &result.Conflicts[i]
		if err := e.suggestAndNotify(ctx, conflict, withAI); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// suggestAndNotify generates (and optionally enhances) suggestions for a
// fresh conflict, then fans out notifications.
func (e *Engine) suggestAndNotify(ctx context.Context, conflict *model.Conflict, withAI bool) error {
	suggestions, err := e.suggester.Suggest(conflict)
	if err != nil {
		return err
	}

	if withAI && e.enhancer != nil {
		enhanced, err := e.enhancer.Enhance(ctx, conflict, suggestions)
		if err != nil {
			// Best effort only: log and continue with rule-based suggestions.
			logging.Get(logging.CategoryAI).Warn("Enhancement unavailable for conflict %s: %v", conflict.ID, err)
		} else if len(enhanced) > 0 {
			suggestions = append(suggestions, enhanced...)
			sort.SliceStable(suggestions, func(i, j int) bool {
				return suggestions[i].Confidence > suggestions[j].Confidence
			})
			if err := e.store.SaveResolutions(conflict.ID, suggestions); err != nil {
				return err
			}
		}
	}

	if _, err := e.notifier.EnsureNotifications(conflict); err != nil {
		return err
	}
	return nil
}

// DetectAllBoards runs detection over every known board with a bounded
// worker pool. Failing boards are recorded and the rest continue.
func (e *Engine) DetectAllBoards(ctx context.Context, withAI bool) (*BatchResult, error) {
	timer := logging.StartTimer(logging.CategoryEngine, "DetectAllBoards")
	defer timer.StopWithInfo()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RunTimeout())
	defer cancel()

	boards, err := e.store.ListBoards()
	if err != nil {
		return nil, err
	}
	logging.Engine("Batch detection over %d board(s)", len(boards))

	batch := &BatchResult{WithAI: withAI}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Engine.MaxParallelBoards)

	for _, boardID := range boards {
		eg.Go(func() error {
			result, err := e.DetectBoard(egCtx, boardID, withAI)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.Get(logging.CategoryEngine).Error("Board %s failed: %v", boardID, err)
				batch.Errors = append(batch.Errors, BoardError{BoardID: boardID, Err: err, Message: err.Error()})
				return nil // keep the batch going
			}
			batch.Boards = append(batch.Boards, *result)
			batch.Total += result.Total
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(batch.Boards, func(i, j int) bool { return batch.Boards[i].BoardID < batch.Boards[j].BoardID })
	return batch, nil
}

// GenerateSuggestions returns a conflict's ranked suggestions, generating
// them when needed. Terminal conflicts keep their stored list untouched;
// the chosen resolution's audit trail must not be rewritten.
func (e *Engine) GenerateSuggestions(conflictID string) ([]model.Resolution, error) {
	conflict, err := e.store.GetConflict(conflictID)
	if err != nil {
		return nil, err
	}
	if conflict.Status.Terminal() {
		return e.store.ListResolutions(conflictID)
	}
	return e.suggester.Suggest(conflict)
}

// Resolve applies a resolution to a conflict and records the outcome.
func (e *Engine) Resolve(conflictID, resolutionID, feedback string, effectiveness *int) error {
	return e.lifecycle.Resolve(conflictID, resolutionID, feedback, effectiveness)
}

// Ignore dismisses a conflict without feeding the learner.
func (e *Engine) Ignore(conflictID, reason string) error {
	return e.lifecycle.Ignore(conflictID, reason)
}

// Clear deletes a board's conflicts (or every conflict when boardID is
// empty) ahead of a fresh detection run.
func (e *Engine) Clear(boardID string) (int, error) {
	if boardID == "" {
		return e.store.DeleteAllConflicts()
	}
	exists, err := e.store.BoardExists(boardID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("board %s: %w", boardID, model.ErrNotFound)
	}
	return e.store.DeleteConflictsForBoard(boardID)
}

// Store exposes the underlying store to the CLI.
func (e *Engine) Store() *store.Store { return e.store }
