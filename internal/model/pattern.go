package model

import "time"

// GlobalBoard is the board id of the cross-board (global) pattern scope.
// An empty id rather than NULL keeps the sqlite UNIQUE constraint effective
// for the global row too.
const GlobalBoard = ""

// ResolutionPattern aggregates historical outcomes for one
// (conflict type, resolution type, board scope) key. Counters only increase.
type ResolutionPattern struct {
	ID             int64          `json:"id" db:"id"`
	ConflictType   ConflictType   `json:"conflict_type" db:"conflict_type"`
	ResolutionType ResolutionType `json:"resolution_type" db:"resolution_type"`
	BoardID        string         `json:"board_id" db:"board_id"` // GlobalBoard for the global scope

	TimesUsed       int     `json:"times_used" db:"times_used"`
	TimesSuccessful int     `json:"times_successful" db:"times_successful"`
	SuccessRate     float64 `json:"success_rate" db:"success_rate"` // [0,1]

	// AvgEffectiveness is the running mean of supplied 1-5 ratings.
	AvgEffectiveness float64 `json:"avg_effectiveness" db:"avg_effectiveness"`

	// ConfidenceBoost in [-50,50], added to suggestion confidence.
	ConfidenceBoost float64 `json:"confidence_boost" db:"confidence_boost"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
