// Package learn maintains per-(conflict type, resolution type) success
// statistics and turns them into bounded confidence adjustments for the
// suggester. Every applied resolution updates two scopes: the conflict's
// board and the global scope, so new boards can inherit cross-board history
// until they have enough of their own.
package learn

import (
	"errors"
	"fmt"

	"conflictengine/internal/config"
	"conflictengine/internal/logging"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

// Boost bounds and tier parameters. The tiers deliberately leave a dead band
// between 0.3 and 0.6 success rate where the boost keeps its previous value,
// so sparse or marginal data does not make confidence oscillate.
const (
	boostMax = 50.0
	boostMin = -50.0

	strongRate = 0.8
	goodRate   = 0.6
	poorRate   = 0.3
)

// Learner owns the resolution pattern statistics.
type Learner struct {
	store *store.Store
	cfg   config.LearningConfig
}

// New creates a learner.
func New(s *store.Store, cfg config.LearningConfig) *Learner {
	return &Learner{store: s, cfg: cfg}
}

// LearnFromResolution records the outcome of an applied resolution. The
// rating is the optional user-supplied 1-5 effectiveness score; without one
// the use still counts but neither the success counter nor the rating mean
// moves.
func (l *Learner) LearnFromResolution(conflict *model.Conflict, resolution *model.Resolution, rating *int) error {
	if rating != nil {
		if err := model.ValidateEffectiveness(*rating); err != nil {
			return err
		}
	}

	scopes := []string{conflict.BoardID}
	if conflict.BoardID != model.GlobalBoard {
		scopes = append(scopes, model.GlobalBoard)
	}
	for _, boardID := range scopes {
		p, err := l.store.UpdatePattern(conflict.Type, resolution.Type, boardID, func(p *model.ResolutionPattern) {
			l.applyOutcome(p, rating)
		})
		if err != nil {
			return fmt.Errorf("failed to update pattern (%s, %s, %q): %w",
				conflict.Type, resolution.Type, boardID, err)
		}
		logging.Learn("Pattern (%s, %s, %q): used=%d rate=%.2f boost=%.0f",
			p.ConflictType, p.ResolutionType, p.BoardID, p.TimesUsed, p.SuccessRate, p.ConfidenceBoost)
	}
	return nil
}

// applyOutcome applies one observed use to a pattern. Counters only move
// upward; the boost is recomputed once the pattern has enough history.
func (l *Learner) applyOutcome(p *model.ResolutionPattern, rating *int) {
	p.TimesUsed++
	if rating != nil && *rating >= l.cfg.SuccessRating {
		p.TimesSuccessful++
	}
	p.SuccessRate = float64(p.TimesSuccessful) / float64(p.TimesUsed)

	if rating != nil {
		n := float64(p.TimesUsed)
		p.AvgEffectiveness = (p.AvgEffectiveness*(n-1) + float64(*rating)) / n
	}

	if p.TimesUsed < l.cfg.MinUsesForBoost {
		return
	}
	used := float64(p.TimesUsed)
	switch {
	case p.SuccessRate >= strongRate:
		p.ConfidenceBoost = min(20+2*used, boostMax)
	case p.SuccessRate >= goodRate:
		p.ConfidenceBoost = min(10+used, 30)
	case p.SuccessRate < poorRate:
		p.ConfidenceBoost = max(-20-2*used, boostMin)
		// between poorRate and goodRate: keep the previous boost
	}
}

// ConfidenceBoost returns the learned adjustment for a suggestion. A
// board-scoped pattern with at least MinBoardUses wins; otherwise the global
// pattern applies once it has MinGlobalUses; otherwise 0.
func (l *Learner) ConfidenceBoost(ct model.ConflictType, rt model.ResolutionType, boardID string) (float64, error) {
	if boardID != model.GlobalBoard {
		p, err := l.store.GetPattern(ct, rt, boardID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return 0, err
		}
		if p != nil && p.TimesUsed >= l.cfg.MinBoardUses {
			return p.ConfidenceBoost, nil
		}
	}

	p, err := l.store.GetPattern(ct, rt, model.GlobalBoard)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return 0, err
	}
	if p != nil && p.TimesUsed >= l.cfg.MinGlobalUses {
		return p.ConfidenceBoost, nil
	}
	return 0, nil
}
